package chat

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Job{})
}

func (r *Repo) Find(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := r.db.WithContext(ctx).Take(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repo) findByKey(ctx context.Context, clientID, key string) (*Job, error) {
	var j Job
	err := r.db.WithContext(ctx).
		Where(&Job{ClientID: clientID, IdempotencyKey: &key}).
		Take(&j).Error
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Insert stores a new job. When the client already used the job's
// idempotency key, the stored job is returned with created == false.
func (r *Repo) Insert(ctx context.Context, job *Job) (stored *Job, created bool, err error) {
	if job.IdempotencyKey != nil && *job.IdempotencyKey == "" {
		job.IdempotencyKey = nil
	}

	createErr := r.db.WithContext(ctx).Create(job).Error
	if createErr == nil {
		return job, true, nil
	}
	if job.IdempotencyKey == nil {
		return nil, false, createErr
	}

	// lost the unique index race, or a plain retry
	existing, err := r.findByKey(ctx, job.ClientID, *job.IdempotencyKey)
	switch {
	case err == nil:
		return existing, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, createErr
	default:
		return nil, false, err
	}
}

// Claim moves a queued job to running and reports whether this call did it.
func (r *Repo) Claim(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning)
	return res.RowsAffected == 1, res.Error
}

// Succeed and Fail record a job's outcome. Exactly one of answer and error is
// set on a finished job.
func (r *Repo) Succeed(ctx context.Context, id, answer string) error {
	return r.finish(ctx, id, JobSucceeded, &answer, nil)
}

func (r *Repo) Fail(ctx context.Context, id, msg string) error {
	return r.finish(ctx, id, JobFailed, nil, &msg)
}

func (r *Repo) finish(ctx context.Context, id string, status JobStatus, answer, msg *string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Select("status", "answer", "error").
		Updates(&Job{Status: status, Answer: answer, Error: msg}).Error
}
