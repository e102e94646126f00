package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type JobMessage struct {
	JobID string `json:"job_id"`
}

func EncodeJob(jobID string) ([]byte, error) {
	if jobID == "" {
		return nil, errors.New("rabbitmq: empty job id")
	}
	return json.Marshal(JobMessage{JobID: jobID})
}

func DecodeJob(body []byte) (string, error) {
	var m JobMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return "", err
	}
	if m.JobID == "" {
		return "", errors.New("rabbitmq: message without job id")
	}
	return m.JobID, nil
}

// DeadLetterQueue is where rejected jobs end up. Failed renders are not
// retried.
func DeadLetterQueue(queue string) string { return queue + ".dlq" }

type queueSpec struct {
	name string
	args amqp.Table
}

// topology lists the queues of a job queue, dead-letter queue first so the
// main queue's routing key exists. Publisher and consumer declare the same
// list; RabbitMQ refuses a redeclare with different arguments.
func topology(queue string) []queueSpec {
	dlq := DeadLetterQueue(queue)
	return []queueSpec{
		{name: dlq},
		{name: queue, args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlq,
		}},
	}
}

func declareQueues(ch *amqp.Channel, queue string) error {
	for _, q := range topology(queue) {
		// durable, not auto-deleted, shared
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
			return fmt.Errorf("declare %s: %w", q.name, err)
		}
	}
	return nil
}

type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := declareQueues(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *Publisher) PublishJob(ctx context.Context, jobID string) error {
	body, err := EncodeJob(jobID)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    jobID,
		AppId:        "groqchat",
		Body:         body,
		Timestamp:    time.Now(),
	})
}
