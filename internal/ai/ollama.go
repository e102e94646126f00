package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const DefaultOllamaBaseURL = "http://localhost:11434"

type OllamaProvider struct {
	client *api.Client
}

func NewOllamaProvider(baseURL string, httpClient *http.Client) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OllamaProvider{client: api.NewClient(u, httpClient)}, nil
}

// StreamChat starts the ollama chat call on its own goroutine. Responses are
// pushed through a channel so callers can pull them in order.
func (p *OllamaProvider) StreamChat(ctx context.Context, req CompletionRequest) (Stream, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, errors.New("ollama: model is required")
	}

	msgs := make([]api.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Content})
	}

	streaming := true
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   &streaming,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	ctx, cancel := context.WithCancel(ctx)
	s := newChannelStream(cancel)

	go func() {
		defer close(s.chunks)

		err := p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			c := Chunk{Choices: []ChunkChoice{{Delta: Delta{
				Role:    resp.Message.Role,
				Content: resp.Message.Content,
			}}}}
			select {
			case s.chunks <- c:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			s.errs <- err
		}
	}()

	return s, nil
}
