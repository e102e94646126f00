package ai

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is one streamed chat-completion call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Chunk mirrors one streamed completion chunk: choices[].delta{role, content}.
type Chunk struct {
	Choices []ChunkChoice
}

type ChunkChoice struct {
	Delta Delta
}

type Delta struct {
	Role    string
	Content string
}

// Fragment returns the text carried by the first choice, or "" when the chunk
// has no choices or no content.
func (c Chunk) Fragment() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Delta.Content
}

// TextChunk builds a single-choice chunk carrying s.
func TextChunk(s string) Chunk {
	return Chunk{Choices: []ChunkChoice{{Delta: Delta{Content: s}}}}
}
