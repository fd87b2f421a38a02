package entity

import (
	"time"

	"github.com/lib/pq"
)

type ActionType string

const (
	ActionFolderCreated  ActionType = "folder_created"
	ActionFilesCommitted ActionType = "files_committed"
	ActionCommitFailed   ActionType = "commit_failed"
	ActionRoleChanged    ActionType = "role_changed"
	ActionUserApproved   ActionType = "user_approved"
	ActionUserRejected   ActionType = "user_rejected"
	ActionMemberRemoved  ActionType = "member_removed"
)

// ActionLog is an operator-facing audit row. FileNames carries the names of
// every file involved in a batch commit.
type ActionLog struct {
	ID        uint `gorm:"primaryKey"`
	UserID    int64
	Action    ActionType `gorm:"not null"`
	FileNames pq.StringArray `gorm:"type:text[]"`
	Detail    string
	CreatedAt time.Time
}
