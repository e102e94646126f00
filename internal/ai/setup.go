package ai

import "context"

type ProviderOptions struct {
	GroqAPIKey    string
	GroqBaseURL   string
	OllamaBaseURL string
}

// DefaultRegistry registers the groq and ollama providers. Construction is
// deferred until Get, so a missing groq key only fails when groq is chosen.
func DefaultRegistry(opts ProviderOptions) *Registry {
	reg := NewRegistry()
	reg.Register("groq", func(_ context.Context) (StreamProvider, error) {
		return NewGroqProvider(GroqConfig{APIKey: opts.GroqAPIKey, BaseURL: opts.GroqBaseURL})
	})
	reg.Register("ollama", func(_ context.Context) (StreamProvider, error) {
		return NewOllamaProvider(opts.OllamaBaseURL, nil)
	})
	return reg
}
