package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/groqchat/internal/render"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	return c, w
}

func TestSSEWriter_Headers(t *testing.T) {
	c, w := newTestContext()
	newSSEWriter(c)

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
}

func TestSSEWriter_HeartbeatStops(t *testing.T) {
	c, w := newTestContext()
	sw := newSSEWriter(c)

	stop := sw.heartbeat(5 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	stop()

	sw.mu.Lock()
	body := w.Body.String()
	sw.mu.Unlock()
	assert.Contains(t, body, "event:ping")

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, body, w.Body.String())
}

func TestSSESurface_CursorOnlyWhileStreaming(t *testing.T) {
	c, w := newTestContext()
	s := &sseSurface{w: newSSEWriter(c), markup: render.NewMarkup()}

	require.NoError(t, s.Render(context.Background(), render.Frame{Text: "a", Cursor: true}))
	require.NoError(t, s.Render(context.Background(), render.Frame{Text: "ab"}))

	blocks := strings.Split(strings.TrimSpace(w.Body.String()), "\n\n")
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], render.CursorMarker)
	assert.Contains(t, blocks[0], `"done":false`)
	assert.NotContains(t, blocks[1], render.CursorMarker)
	assert.Contains(t, blocks[1], `"done":true`)
}

func TestHeartbeatDefault(t *testing.T) {
	assert.Equal(t, defaultHeartbeat, (&Handler{}).heartbeat())
	assert.Equal(t, time.Second, (&Handler{Heartbeat: time.Second}).heartbeat())
}
