package domain

import "time"

// Review is feedback left for a user (the subject) after a job
type Review struct {
	ID            int64     `json:"id"`
	SubjectUserID int64     `json:"subject_user_id"`
	AuthorID      int64     `json:"author_id"`
	JobID         int64     `json:"job_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (r Review) EntityID() int64  { return r.ID }
func (r Review) Type() EntityType { return EntityReview }
func (r Review) GroupKey() int64  { return r.SubjectUserID }
