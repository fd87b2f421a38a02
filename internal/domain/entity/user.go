package entity

import "time"

type UserStatus string

const (
	StatusPending  UserStatus = "pending"
	StatusApproved UserStatus = "approved"
	StatusRejected UserStatus = "rejected"
)

// User is a row of the user directory, keyed by the Telegram user id.
type User struct {
	ID         int64 `gorm:"primaryKey;autoIncrement:false"`
	Username   string
	FirstName  string
	LastName   string
	Email      string
	Role       Role       `gorm:"not null;default:'pending'"`
	Status     UserStatus `gorm:"not null;default:'pending'"`
	ApprovedBy *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Registered reports whether the user has completed registration and was
// approved by an admin or the owner.
func (u *User) Registered() bool {
	return u.Status == StatusApproved
}
