package entity

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// RegistrationRequest is a membership request awaiting an admin decision.
// At most one pending request may exist per user; the registration service
// checks this before every insert.
type RegistrationRequest struct {
	ID          uint `gorm:"primaryKey"`
	UserID      int64
	Username    string
	FirstName   string
	LastName    string
	Email       string
	Status      RequestStatus `gorm:"not null;default:'pending'"`
	ProcessedBy *int64
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
