package model

import "time"

type DispatchJobStatus string

const (
	DispatchJobPending    DispatchJobStatus = "pending"
	DispatchJobProcessing DispatchJobStatus = "processing"
	DispatchJobCompleted  DispatchJobStatus = "completed"
	DispatchJobFailed     DispatchJobStatus = "failed" // retries exhausted; awaiting admin
)

// DispatchJob is one queued attempt series to send a paid order upstream.
// Rows are claimed with FOR UPDATE SKIP LOCKED, so a single order is never
// processed by two concurrent dispatch attempts.
type DispatchJob struct {
	ID            string
	OrderID       string
	Status        DispatchJobStatus
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
