package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/groqchat/internal/chat"
	"github.com/suPer8Hu/groqchat/internal/common"
	"github.com/suPer8Hu/groqchat/internal/httpapi/middleware"
	"github.com/suPer8Hu/groqchat/internal/render"
	"github.com/suPer8Hu/groqchat/internal/store/redisstore"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type createJobReq struct {
	Prompt string `json:"prompt" binding:"required"`
}

func (h *Handler) CreateJob(c *gin.Context) {
	var req createJobReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	idempoKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(idempoKey) > 128 {
		common.Fail(c, http.StatusBadRequest, 10003, "idempotency key too long")
		return
	}
	var idempoKeyPtr *string
	if idempoKey != "" {
		idempoKeyPtr = &idempoKey
	}

	clientID := middleware.ClientIDFrom(c)
	j, created, err := h.Jobs.CreateJob(c.Request.Context(), clientID, req.Prompt, idempoKeyPtr)
	if err != nil {
		if errors.Is(err, render.ErrEmptyPrompt) {
			common.Fail(c, http.StatusBadRequest, 10002, "prompt required")
			return
		}
		h.Log.Error("create job failed", zap.String("client", clientID), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	// A reused job that is still queued may never have reached the broker.
	// Duplicate deliveries are dropped by the worker's claim.
	if created || j.Status == chat.JobQueued {
		if err := h.Publisher.PublishJob(c.Request.Context(), j.ID); err != nil {
			h.Log.Error("publish job failed", zap.String("job", j.ID), zap.Error(err))
			common.Fail(c, http.StatusInternalServerError, 50002, "enqueue failed")
			return
		}
	}

	common.OK(c, gin.H{"job_id": j.ID})
}

func (h *Handler) GetJob(c *gin.Context) {
	j, ok := h.loadJob(c)
	if !ok {
		return
	}
	common.OK(c, gin.H{"job": j})
}

func (h *Handler) loadJob(c *gin.Context) (*chat.Job, bool) {
	jobID := c.Param("job_id")
	if jobID == "" {
		common.Fail(c, http.StatusBadRequest, 10004, "job_id required")
		return nil, false
	}
	j, err := h.Jobs.GetJob(c.Request.Context(), middleware.ClientIDFrom(c), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return nil, false
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return nil, false
	}
	return j, true
}

// StreamJob relays a job's frames from redis. A finished job is answered from
// the database; otherwise the latest stored frame goes first, then live frames
// until the final one.
func (h *Handler) StreamJob(c *gin.Context) {
	j, ok := h.loadJob(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	sub, err := h.Frames.Subscribe(ctx, j.ID)
	if err != nil {
		h.Log.Error("subscribe failed", zap.String("job", j.ID), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50003, "stream unavailable")
		return
	}
	defer sub.Close()

	w := newSSEWriter(c)
	stop := w.heartbeat(h.heartbeat())
	defer stop()

	// the job may have finished before the subscription was in place
	if fresh, err := h.Jobs.GetJob(ctx, j.ClientID, j.ID); err == nil {
		j = fresh
	}
	if j.Finished() {
		h.writeFinished(w, j)
		return
	}

	var seq int64
	last, err := h.Frames.LastFrame(ctx, j.ID)
	if err != nil {
		h.Log.Warn("read last frame failed", zap.String("job", j.ID), zap.Error(err))
	}
	if last != nil {
		if h.relay(w, *last) {
			return
		}
		seq = last.Seq
	}

	for {
		select {
		case m, ok := <-sub.Frames():
			if !ok {
				return
			}
			if m.Seq <= seq {
				continue
			}
			seq = m.Seq
			if h.relay(w, m) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// relay writes one frame and reports whether it was the last.
func (h *Handler) relay(w *sseWriter, m redisstore.FrameMessage) bool {
	if m.Error != "" {
		w.fail("error", m.Error)
		return true
	}
	w.frame(h.Markup, m.Text, m.Done)
	return m.Done
}

func (h *Handler) writeFinished(w *sseWriter, j *chat.Job) {
	if j.Status == chat.JobFailed {
		msg := "render failed"
		if j.Error != nil {
			msg = *j.Error
		}
		w.fail("error", msg)
		return
	}
	answer := ""
	if j.Answer != nil {
		answer = *j.Answer
	}
	w.frame(h.Markup, answer, true)
}
