package chat

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one asynchronous render: a single prompt and, once finished, its
// answer or error. Jobs are never fed back to the model.
type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"id"` // ULID length

	ClientID string `gorm:"size:36;not null;index:uniq_client_idempo,unique,priority:1" json:"-"`

	Prompt string `gorm:"type:text;not null" json:"prompt"`

	IdempotencyKey *string `gorm:"type:varchar(128);index:uniq_client_idempo,unique,priority:2" json:"-"`

	Status JobStatus `gorm:"type:varchar(16);index;not null" json:"status"`

	// Filled when succeeded
	Answer *string `gorm:"type:text" json:"answer"`

	// Filled when failed
	Error *string `gorm:"type:text" json:"error"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string { return "render_jobs" }

func (j *Job) Finished() bool {
	return j.Status == JobSucceeded || j.Status == JobFailed
}
