package domain

import "time"

// User represents a marketplace account (customer or provider)
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Role      UserRole  `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Rating    float64   `json:"rating"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleProvider UserRole = "provider"
)

func (u User) EntityID() int64  { return u.ID }
func (u User) Type() EntityType { return EntityUser }
