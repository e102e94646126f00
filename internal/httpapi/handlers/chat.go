package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/groqchat/internal/common"
	"github.com/suPer8Hu/groqchat/internal/httpapi/middleware"
	"github.com/suPer8Hu/groqchat/internal/render"
	"go.uber.org/zap"
)

func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", h.Page)
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

type streamReq struct {
	Prompt string `json:"prompt"`
}

// promptFrom accepts ?q= (EventSource) or a JSON body.
func promptFrom(c *gin.Context) (string, bool) {
	if c.Request.Method == http.MethodGet {
		return c.Query("q"), true
	}
	var req streamReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", false
	}
	return req.Prompt, true
}

// StreamChat renders one answer as server-sent events. Each frame carries the
// whole accumulated answer; the client replaces its placeholder with it.
func (h *Handler) StreamChat(c *gin.Context) {
	prompt, ok := promptFrom(c)
	if !ok {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if strings.TrimSpace(prompt) == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "prompt required")
		return
	}

	clientID := middleware.ClientIDFrom(c)
	ctx, release := h.Guard.Acquire(c.Request.Context(), clientID)
	defer release()

	w := newSSEWriter(c)
	stop := w.heartbeat(h.heartbeat())
	defer stop()

	answer, err := h.Renderer.Render(ctx, prompt, &sseSurface{w: w, markup: h.Markup})
	if err != nil {
		switch {
		case render.Superseded(ctx):
			w.fail("superseded", "replaced by a newer question")
		case c.Request.Context().Err() != nil:
			// client went away
		case errors.Is(err, render.ErrEmptyPrompt):
			w.fail("error", "prompt required")
		default:
			h.Log.Warn("stream failed",
				zap.String("request_id", c.GetString(middleware.RequestIDKey)),
				zap.Error(err),
			)
			w.fail("error", err.Error())
		}
		return
	}

	h.Log.Debug("stream done",
		zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		zap.Int("chars", len(answer)),
	)
}
