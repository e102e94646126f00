package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FrameMessage is one render frame of a job, relayed from the worker to
// whichever HTTP instance serves the job's stream.
type FrameMessage struct {
	Seq   int64  `json:"seq"`
	Text  string `json:"text"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

const defaultFrameTTL = 10 * time.Minute

func New(addr, password string, db int) *Store {
	return NewFromClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

func NewFromClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: defaultFrameTTL}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func channelKey(jobID string) string { return "render:" + jobID }
func lastKey(jobID string) string    { return "render:" + jobID + ":last" }

// PublishFrame stores m as the job's latest frame and publishes it.
func (s *Store) PublishFrame(ctx context.Context, jobID string, m FrameMessage) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, lastKey(jobID), b, s.ttl)
		p.Publish(ctx, channelKey(jobID), b)
		return nil
	})
	return err
}

// LastFrame returns the latest stored frame, or nil when none is stored.
func (s *Store) LastFrame(ctx context.Context, jobID string) (*FrameMessage, error) {
	b, err := s.rdb.Get(ctx, lastKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var m FrameMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

type Subscription struct {
	ps     *redis.PubSub
	frames chan FrameMessage
	done   chan struct{}
	once   sync.Once
}

// Subscribe returns once the subscription is confirmed by the server, so any
// frame published afterwards is delivered.
func (s *Store) Subscribe(ctx context.Context, jobID string) (*Subscription, error) {
	ps := s.rdb.Subscribe(ctx, channelKey(jobID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &Subscription{ps: ps, frames: make(chan FrameMessage, 16), done: make(chan struct{})}
	go func() {
		defer close(sub.frames)
		for msg := range ps.Channel() {
			var m FrameMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				continue
			}
			select {
			case sub.frames <- m:
			case <-sub.done:
				return
			}
		}
	}()
	return sub, nil
}

// Frames is closed after Close.
func (s *Subscription) Frames() <-chan FrameMessage { return s.frames }

func (s *Subscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.ps.Close()
}
