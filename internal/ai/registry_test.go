package ai

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedProvider struct{}

func (fixedProvider) StreamChat(ctx context.Context, req CompletionRequest) (Stream, error) {
	return &SliceStream{Chunks: []Chunk{TextChunk("ok")}}, nil
}

func TestRegistry_GetIsCaseInsensitive(t *testing.T) {
	reg := NewRegistry()
	reg.Register(" Fake ", func(ctx context.Context) (StreamProvider, error) {
		return fixedProvider{}, nil
	})

	p, err := reg.Get(context.Background(), "FAKE")
	require.NoError(t, err)
	assert.IsType(t, fixedProvider{}, p)

	_, err = reg.Get(context.Background(), "missing")
	require.Error(t, err)
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry(ProviderOptions{})
	assert.Equal(t, []string{"groq", "ollama"}, reg.Names())

	_, err := reg.Get(context.Background(), "groq")
	require.Error(t, err, "groq without a key must fail")

	p, err := reg.Get(context.Background(), "ollama")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestChunkFragment(t *testing.T) {
	assert.Equal(t, "", Chunk{}.Fragment())
	assert.Equal(t, "", Chunk{Choices: []ChunkChoice{{}}}.Fragment())
	assert.Equal(t, "x", TextChunk("x").Fragment())
}

func TestChannelStream_ErrorAfterChunks(t *testing.T) {
	s := newChannelStream(nil)
	s.chunks <- TextChunk("a")
	s.errs <- errors.New("boom")
	close(s.chunks)

	c, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "a", c.Fragment())

	_, err = s.Recv()
	assert.EqualError(t, err, "boom")
}

func TestChannelStream_EOF(t *testing.T) {
	s := newChannelStream(nil)
	close(s.chunks)
	_, err := s.Recv()
	assert.ErrorIs(t, err, io.EOF)
}
