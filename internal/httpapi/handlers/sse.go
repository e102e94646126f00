package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/groqchat/internal/render"
)

// sseWriter serialises events from the render loop and the heartbeat.
type sseWriter struct {
	mu sync.Mutex
	c  *gin.Context
}

func newSSEWriter(c *gin.Context) *sseWriter {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx

	// avoid gin writing a JSON response later
	c.Status(http.StatusOK)
	return &sseWriter{c: c}
}

func (w *sseWriter) event(name string, payload any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SSEvent(name, payload)
	w.c.Writer.Flush()
}

// heartbeat pings until the returned stop func is called. stop waits for the
// pinging goroutine, so nothing is written after the handler returns.
func (w *sseWriter) heartbeat(every time.Duration) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.event("ping", gin.H{
					"type": "ping",
					"ts":   time.Now().Unix(),
				})
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func (w *sseWriter) frame(m *render.Markup, text string, done bool) {
	w.event("frame", gin.H{
		"type": "frame",
		"html": m.HTML(render.Frame{Text: text, Cursor: !done}),
		"text": text,
		"done": done,
	})
}

func (w *sseWriter) fail(kind, msg string) {
	w.event("error", gin.H{
		"type":    kind,
		"message": msg,
	})
}

// sseSurface is the browser's response placeholder.
type sseSurface struct {
	w      *sseWriter
	markup *render.Markup
}

func (s *sseSurface) Render(ctx context.Context, f render.Frame) error {
	s.w.frame(s.markup, f.Text, !f.Cursor)
	return nil
}
