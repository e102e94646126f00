package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseServer(t *testing.T, lines []string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
			return
		}
		if seen != nil {
			body := map[string]any{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			*seen = body
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, l := range lines {
			fmt.Fprintf(w, "data: %s\n\n", l)
			w.(http.Flusher).Flush()
		}
	}))
}

func drain(t *testing.T, s Stream) []string {
	t.Helper()
	var out []string
	for {
		c, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, c.Fragment())
	}
}

func TestGroqProvider_StreamsFragmentsInOrder(t *testing.T) {
	var body map[string]any
	srv := sseServer(t, []string{
		`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"role":"assistant"}}]}`,
		`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"Hel"}}]}`,
		`{"id":"1","object":"chat.completion.chunk","choices":[]}`,
		`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"lo"}}]}`,
		`[DONE]`,
	}, &body)
	defer srv.Close()

	p, err := NewGroqProvider(GroqConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	s, err := p.StreamChat(context.Background(), CompletionRequest{
		Model:       "llama3-70b-8192",
		Temperature: 0.5,
		MaxTokens:   300,
		Messages: []Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hi"},
		},
	})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"", "Hel", "", "lo"}, drain(t, s))

	assert.Equal(t, "llama3-70b-8192", body["model"])
	assert.Equal(t, true, body["stream"])
	assert.InDelta(t, 0.5, body["temperature"], 1e-6)
	assert.EqualValues(t, 300, body["max_tokens"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "hi", msgs[1].(map[string]any)["content"])
}

func TestGroqProvider_ServiceErrorSurfaces(t *testing.T) {
	srv := sseServer(t, nil, nil)
	defer srv.Close()

	p, err := NewGroqProvider(GroqConfig{APIKey: "wrong", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.StreamChat(context.Background(), CompletionRequest{Model: "m", Messages: []Message{{Role: "user", Content: "x"}}})
	require.Error(t, err)
}

func TestNewGroqProvider_RequiresKey(t *testing.T) {
	_, err := NewGroqProvider(GroqConfig{APIKey: "  "})
	require.Error(t, err)
}

func TestGroqProvider_RequiresModel(t *testing.T) {
	p, err := NewGroqProvider(GroqConfig{APIKey: "k"})
	require.NoError(t, err)
	_, err = p.StreamChat(context.Background(), CompletionRequest{})
	require.Error(t, err)
}
