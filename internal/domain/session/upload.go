package session

import "time"

// MediaKind classifies an incoming attachment.
type MediaKind string

const (
	MediaDocument MediaKind = "document"
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
)

// PendingUpload is a file received from the chat and buffered locally,
// waiting for the session's batch commit. It is destroyed together with its
// local content when the session closes.
type PendingUpload struct {
	Name      string
	Size      int64
	Kind      MediaKind
	LocalPath string
}

// CommittedUpload records a file that has already reached the drive
// workspace during the current commit. Committed files are never rolled
// back, even when a later file in the same batch fails.
type CommittedUpload struct {
	Name        string
	Size        int64
	DriveFileID string
	URL         string
}

// UploadSession accumulates files for a single event folder until the user
// presses Done or Cancel, or the session expires. Committing marks the
// session's commit phase: once set, the batch belongs to the in-flight
// commit and no other interaction (a second Done, Cancel, new files) may
// touch it until the commit closes the session.
type UploadSession struct {
	FolderID   string
	FolderName string
	ExpiresAt  time.Time
	Committing bool
	Pending    []PendingUpload
	Committed  []CommittedUpload
}

// Expired reports whether the session no longer accepts files. Expiry is
// evaluated lazily, at the moment the next interaction arrives.
func (u *UploadSession) Expired(now time.Time) bool {
	return !now.Before(u.ExpiresAt)
}

// Add appends a buffered file to the session.
func (u *UploadSession) Add(f PendingUpload) {
	u.Pending = append(u.Pending, f)
}

// Progress is a byte-weighted snapshot of how far a commit has advanced.
type Progress struct {
	CompletedCount int
	FileCount      int
	CompletedBytes int64
	TotalBytes     int64
}

// Percent returns byte-weighted completion in [0, 100]. A batch of zero
// declared bytes reports 0, not a division fault.
func (p Progress) Percent() float64 {
	if p.TotalBytes == 0 {
		return 0
	}
	return float64(p.CompletedBytes) / float64(p.TotalBytes) * 100
}

// Progress snapshots the session counting both committed and still-pending
// files of the current batch.
func (u *UploadSession) Progress() Progress {
	var p Progress
	p.FileCount = len(u.Pending) + len(u.Committed)
	p.CompletedCount = len(u.Committed)
	for _, f := range u.Pending {
		p.TotalBytes += f.Size
	}
	for _, f := range u.Committed {
		p.TotalBytes += f.Size
		p.CompletedBytes += f.Size
	}
	return p
}
