package domain

import "time"

// Job represents a posted job
type Job struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Location    string    `json:"location,omitempty"`
	Budget      float64   `json:"budget"`
	Status      JobStatus `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type JobStatus string

const (
	JobStatusOpen       JobStatus = "open"
	JobStatusAssigned   JobStatus = "assigned"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

func (j Job) EntityID() int64  { return j.ID }
func (j Job) Type() EntityType { return EntityJob }
