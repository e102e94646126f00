package handlers

import (
	"context"
	"time"

	"github.com/suPer8Hu/groqchat/internal/chat"
	"github.com/suPer8Hu/groqchat/internal/render"
	"github.com/suPer8Hu/groqchat/internal/store/redisstore"
	"go.uber.org/zap"
)

type Renderer interface {
	Render(ctx context.Context, prompt string, surface render.Surface) (string, error)
}

type JobPublisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

// PageData feeds the chat page template.
type PageData struct {
	Title   string
	Welcome string
	Async   bool
}

type Handler struct {
	Log      *zap.Logger
	Renderer Renderer
	Guard    *render.Guard
	Markup   *render.Markup
	Page     PageData

	// async job mode; nil when disabled
	Jobs      *chat.Service
	Publisher JobPublisher
	Frames    *redisstore.Store

	// Heartbeat is the SSE ping interval.
	Heartbeat time.Duration
}

const defaultHeartbeat = 15 * time.Second

func (h *Handler) heartbeat() time.Duration {
	if h.Heartbeat <= 0 {
		return defaultHeartbeat
	}
	return h.Heartbeat
}
