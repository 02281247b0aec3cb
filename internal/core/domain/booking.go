package domain

import "time"

// Booking ties a job to a provider for a time slot
type Booking struct {
	ID          int64         `json:"id"`
	JobID       int64         `json:"job_id"`
	CustomerID  int64         `json:"customer_id"`
	ProviderID  int64         `json:"provider_id"`
	ScheduledAt time.Time     `json:"scheduled_at"`
	Status      BookingStatus `json:"status"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (b Booking) EntityID() int64  { return b.ID }
func (b Booking) Type() EntityType { return EntityBooking }
