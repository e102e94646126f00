package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider streams chat completions from Groq's OpenAI-compatible API.
// Any other OpenAI-compatible endpoint works by changing BaseURL.
type GroqProvider struct {
	client *openai.Client
}

type GroqConfig struct {
	APIKey  string
	BaseURL string
	// HTTPClient should carry no global timeout; ctx bounds each stream.
	HTTPClient *http.Client
}

func NewGroqProvider(cfg GroqConfig) (*GroqProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("groq: api key is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = DefaultGroqBaseURL
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	} else {
		oc.HTTPClient = &http.Client{}
	}
	return &GroqProvider{client: openai.NewClientWithConfig(oc)}, nil
}

func (p *GroqProvider) StreamChat(ctx context.Context, req CompletionRequest) (Stream, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, errors.New("groq: model is required")
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, err
	}
	return &groqStream{stream: stream}, nil
}

type groqStream struct {
	stream *openai.ChatCompletionStream
}

func (s *groqStream) Recv() (Chunk, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return Chunk{}, err
	}
	c := Chunk{Choices: make([]ChunkChoice, 0, len(resp.Choices))}
	for _, ch := range resp.Choices {
		c.Choices = append(c.Choices, ChunkChoice{Delta: Delta{Role: ch.Delta.Role, Content: ch.Delta.Content}})
	}
	return c, nil
}

func (s *groqStream) Close() error {
	return s.stream.Close()
}
