package entity

import (
	"fmt"
	"time"
)

// EventFolder is the durable record of a dated event folder created in the
// drive workspace. The folder itself lives remotely; this row keeps the
// listing and audit trail local.
type EventFolder struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	Name          string `gorm:"not null"`
	EventDate     time.Time
	DriveFolderID string `gorm:"not null"`
	ShareURL      string
	CreatedBy     int64
	CreatedAt     time.Time
}

// ComposeFolderName builds the drive folder name for an event on a date,
// "2024-05-01; Gala". Two events composing the same name collide.
func ComposeFolderName(date time.Time, eventName string) string {
	return fmt.Sprintf("%s; %s", date.Format("2006-01-02"), eventName)
}
