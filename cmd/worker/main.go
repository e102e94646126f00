package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/groqchat/internal/ai"
	"github.com/suPer8Hu/groqchat/internal/chat"
	"github.com/suPer8Hu/groqchat/internal/config"
	"github.com/suPer8Hu/groqchat/internal/db"
	"github.com/suPer8Hu/groqchat/internal/logging"
	"github.com/suPer8Hu/groqchat/internal/render"
	"github.com/suPer8Hu/groqchat/internal/store/rabbitmq"
	"github.com/suPer8Hu/groqchat/internal/store/redisstore"
	"go.uber.org/zap"
)

const jobTimeout = 2 * time.Minute

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Development())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.DBDSN)
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	if err := chat.Migrate(gdb); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	provider, err := ai.DefaultRegistry(ai.ProviderOptions{
		GroqAPIKey:    cfg.GroqAPIKey,
		GroqBaseURL:   cfg.GroqBaseURL,
		OllamaBaseURL: cfg.OllamaBaseURL,
	}).Get(ctx, cfg.AIProvider)
	if err != nil {
		logger.Fatal("ai provider", zap.String("provider", cfg.AIProvider), zap.Error(err))
	}

	renderer := render.NewRenderer(provider, render.Settings{
		Model:        cfg.ChatModel,
		SystemPrompt: cfg.ChatSystemPrompt,
		Temperature:  cfg.ChatTemperature,
		MaxTokens:    cfg.ChatMaxTokens,
	}, logger)
	svc := chat.NewService(chat.NewRepo(gdb), renderer, logger)

	frames := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer frames.Close()

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitQueue, concurrency)
	if err != nil {
		logger.Fatal("rabbit consumer", zap.Error(err))
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		logger.Fatal("consume", zap.Error(err))
	}

	logger.Info("worker started",
		zap.String("queue", cfg.RabbitQueue),
		zap.Int("concurrency", concurrency),
		zap.String("provider", cfg.AIProvider),
	)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			wlog := logger.With(zap.Int("worker", workerID))
			for d := range jobs {
				handleDelivery(ctx, wlog, svc, frames, d)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				logger.Error("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

// handleDelivery renders one job. Malformed messages and failed renders are
// rejected without requeue, which routes them to the dead-letter queue.
func handleDelivery(ctx context.Context, log *zap.Logger, svc *chat.Service, frames *redisstore.Store, d amqp.Delivery) {
	jobID, err := rabbitmq.DecodeJob(d.Body)
	if err != nil {
		log.Warn("bad message", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	jctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	surface := frames.Surface(jobID)
	_, err = svc.RunJob(jctx, jobID, surface)
	if errors.Is(err, chat.ErrJobClaimed) {
		// redelivery while the first run is still streaming
		log.Info("job already claimed", zap.String("job", jobID))
		_ = d.Ack(false)
		return
	}
	if err != nil {
		// readers of the job stream must not wait for frames that never come
		if ferr := surface.Fail(context.WithoutCancel(ctx), err.Error()); ferr != nil {
			log.Warn("publish failure frame", zap.String("job", jobID), zap.Error(ferr))
		}
		log.Warn("job failed",
			zap.String("job", jobID),
			zap.Duration("cost", time.Since(start)),
			zap.Error(err),
		)
		_ = d.Nack(false, false)
		return
	}

	if err := d.Ack(false); err != nil {
		log.Warn("ack failed", zap.String("job", jobID), zap.Error(err))
	}
}
