package ai

import (
	"context"
	"io"
)

// Stream yields chunks in arrival order. Recv returns io.EOF once the stream
// is exhausted.
type Stream interface {
	Recv() (Chunk, error)
	Close() error
}

// StreamProvider opens streamed chat completions.
type StreamProvider interface {
	StreamChat(ctx context.Context, req CompletionRequest) (Stream, error)
}

// channelStream adapts a producer goroutine that pushes chunks into a channel.
// The producer closes chunks when it is finished and sends at most one error
// before doing so.
type channelStream struct {
	chunks chan Chunk
	errs   chan error
	cancel context.CancelFunc
}

func newChannelStream(cancel context.CancelFunc) *channelStream {
	return &channelStream{
		chunks: make(chan Chunk, 16),
		errs:   make(chan error, 1),
		cancel: cancel,
	}
}

func (s *channelStream) Recv() (Chunk, error) {
	c, ok := <-s.chunks
	if ok {
		return c, nil
	}
	select {
	case err := <-s.errs:
		if err != nil {
			return Chunk{}, err
		}
	default:
	}
	return Chunk{}, io.EOF
}

func (s *channelStream) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// SliceStream replays a fixed sequence of chunks. Useful for tests and for
// canned answers.
type SliceStream struct {
	Chunks []Chunk
	Err    error
	pos    int
	closed bool
}

func (s *SliceStream) Recv() (Chunk, error) {
	if s.pos < len(s.Chunks) {
		c := s.Chunks[s.pos]
		s.pos++
		return c, nil
	}
	if s.Err != nil {
		return Chunk{}, s.Err
	}
	return Chunk{}, io.EOF
}

func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}

func (s *SliceStream) Closed() bool { return s.closed }
