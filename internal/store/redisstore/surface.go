package redisstore

import (
	"context"

	"github.com/suPer8Hu/groqchat/internal/render"
)

// FrameSurface publishes every frame of one job. It is owned by a single
// render and is not safe for concurrent use.
type FrameSurface struct {
	store *Store
	jobID string
	seq   int64
}

func (s *Store) Surface(jobID string) *FrameSurface {
	return &FrameSurface{store: s, jobID: jobID}
}

func (f *FrameSurface) Render(ctx context.Context, fr render.Frame) error {
	f.seq++
	return f.store.PublishFrame(ctx, f.jobID, FrameMessage{
		Seq:  f.seq,
		Text: fr.Text,
		Done: !fr.Cursor,
	})
}

// Fail publishes a terminal error frame so stream readers can stop waiting.
func (f *FrameSurface) Fail(ctx context.Context, msg string) error {
	f.seq++
	return f.store.PublishFrame(ctx, f.jobID, FrameMessage{
		Seq:   f.seq,
		Done:  true,
		Error: msg,
	})
}
