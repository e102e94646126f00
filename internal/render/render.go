// Package render streams one chat completion into a display surface that is
// overwritten in place as fragments arrive.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/suPer8Hu/groqchat/internal/ai"
	"go.uber.org/zap"
)

var ErrEmptyPrompt = errors.New("render: prompt is empty")

// Frame is one state of the display surface. Cursor is true while the stream
// is still running; the final frame has Cursor == false.
type Frame struct {
	Text   string
	Cursor bool
}

// Surface is a single placeholder re-rendered in place with every frame.
type Surface interface {
	Render(ctx context.Context, f Frame) error
}

type SurfaceFunc func(ctx context.Context, f Frame) error

func (fn SurfaceFunc) Render(ctx context.Context, f Frame) error { return fn(ctx, f) }

// Settings are fixed for the lifetime of a Renderer.
type Settings struct {
	Model        string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
}

const (
	DefaultModel        = "llama3-70b-8192"
	DefaultSystemPrompt = "You are a helpful assistant. Respond clearly in English."
	DefaultTemperature  = 0.5
	DefaultMaxTokens    = 300
)

func DefaultSettings() Settings {
	return Settings{
		Model:        DefaultModel,
		SystemPrompt: DefaultSystemPrompt,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
	}
}

type Renderer struct {
	provider ai.StreamProvider
	settings Settings
	log      *zap.Logger
}

func NewRenderer(provider ai.StreamProvider, settings Settings, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{provider: provider, settings: settings, log: log}
}

func (r *Renderer) request(prompt string) ai.CompletionRequest {
	return ai.CompletionRequest{
		Model: r.settings.Model,
		Messages: []ai.Message{
			{Role: "system", Content: r.settings.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: r.settings.Temperature,
		MaxTokens:   r.settings.MaxTokens,
	}
}

// Render streams the answer to prompt into surface and returns the final text.
//
// Every non-empty fragment is appended and the surface is re-rendered with the
// cursor shown. When the stream is exhausted the surface gets exactly one
// final frame without the cursor. Any error aborts the render: nothing is
// retried and no final frame is written.
func (r *Renderer) Render(ctx context.Context, prompt string, surface Surface) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	start := time.Now()
	stream, err := r.open(ctx, r.request(prompt))
	if err != nil {
		return "", fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	var b strings.Builder
	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read stream: %w", err)
		}

		frag := chunk.Fragment()
		if frag == "" {
			continue
		}
		b.WriteString(frag)
		frames++
		if err := surface.Render(ctx, Frame{Text: b.String(), Cursor: true}); err != nil {
			return "", fmt.Errorf("render frame: %w", err)
		}
	}

	answer := b.String()
	if err := surface.Render(ctx, Frame{Text: answer}); err != nil {
		return "", fmt.Errorf("render final frame: %w", err)
	}

	r.log.Debug("render done",
		zap.String("model", r.settings.Model),
		zap.Int("frames", frames),
		zap.Int("chars", len(answer)),
		zap.Duration("cost", time.Since(start)),
	)
	return answer, nil
}

type openResult struct {
	stream ai.Stream
	err    error
}

// open issues the blocking request on its own goroutine and hands the stream
// back over a channel, so a cancelled ctx releases the caller immediately.
func (r *Renderer) open(ctx context.Context, req ai.CompletionRequest) (ai.Stream, error) {
	done := make(chan openResult, 1)
	go func() {
		s, err := r.provider.StreamChat(ctx, req)
		done <- openResult{stream: s, err: err}
	}()

	select {
	case res := <-done:
		return res.stream, res.err
	case <-ctx.Done():
		go func() {
			if res := <-done; res.stream != nil {
				_ = res.stream.Close()
			}
		}()
		return nil, ctx.Err()
	}
}
