package models

import "time"

// Import job states.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// ImportJob is a queued import request processed by the worker. The source
// API key is stored with the job and never serialized.
type ImportJob struct {
	ID           string     `json:"id"`
	Organizer    string     `json:"organizer"`
	APIKey       string     `json:"-"`
	EventIDs     []int64    `json:"eventIds"`
	WithVouchers bool       `json:"withVouchers"`
	WithOrders   bool       `json:"withOrders"`
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	ResultSlugs  []string   `json:"resultSlugs"`
	LastError    string     `json:"lastError,omitempty"`
	CreatedBy    string     `json:"createdBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
