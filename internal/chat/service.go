package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/suPer8Hu/groqchat/internal/common"
	"github.com/suPer8Hu/groqchat/internal/render"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Renderer interface {
	Render(ctx context.Context, prompt string, surface render.Surface) (string, error)
}

type Service struct {
	repo     *Repo
	renderer Renderer
	log      *zap.Logger
}

func NewService(repo *Repo, renderer Renderer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, renderer: renderer, log: log}
}

// CreateJob stores a queued job. With an idempotency key, a repeated call
// from the same client returns the first job and created == false.
func (s *Service) CreateJob(ctx context.Context, clientID, prompt string, idempotencyKey *string) (job *Job, created bool, err error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, false, render.ErrEmptyPrompt
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, false, err
	}

	j := &Job{
		ID:             id,
		ClientID:       clientID,
		Prompt:         prompt,
		IdempotencyKey: idempotencyKey,
		Status:         JobQueued,
	}
	return s.repo.Insert(ctx, j)
}

// GetJob hides jobs owned by other clients behind gorm.ErrRecordNotFound.
func (s *Service) GetJob(ctx context.Context, clientID, jobID string) (*Job, error) {
	j, err := s.repo.Find(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.ClientID != clientID {
		return nil, gorm.ErrRecordNotFound
	}
	return j, nil
}

// ErrJobClaimed is returned by RunJob when another run already owns the job.
var ErrJobClaimed = errors.New("chat: job already claimed")

// RunJob renders a queued job into surface and records the outcome. A job
// that already finished is returned untouched; one that is still running
// elsewhere is returned with ErrJobClaimed and is not rendered again.
func (s *Service) RunJob(ctx context.Context, jobID string, surface render.Surface) (*Job, error) {
	start := time.Now()

	claimed, err := s.repo.Claim(ctx, jobID)
	if err != nil {
		return nil, err
	}

	j, err := s.repo.Find(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		if j.Finished() {
			return j, nil
		}
		return j, ErrJobClaimed
	}

	answer, renderErr := s.renderer.Render(ctx, j.Prompt, surface)
	genCost := time.Since(start)

	if renderErr != nil {
		msg := renderErr.Error()
		if err := s.repo.Fail(context.WithoutCancel(ctx), jobID, msg); err != nil {
			return nil, errors.Join(renderErr, err)
		}
		s.log.Warn("job failed",
			zap.String("job", jobID),
			zap.Duration("gen", genCost),
			zap.Error(renderErr),
		)
		j.Status = JobFailed
		j.Error = &msg
		return j, renderErr
	}

	if err := s.repo.Succeed(ctx, jobID, answer); err != nil {
		return nil, err
	}
	j.Status = JobSucceeded
	j.Answer = &answer

	if total := time.Since(start); total > 2*time.Second {
		s.log.Info("job_timing",
			zap.String("job", jobID),
			zap.Duration("gen", genCost),
			zap.Duration("total", total),
		)
	}
	return j, nil
}
