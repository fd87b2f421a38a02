package errorz

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCallbackData   = errors.New("invalid callback data")
	ErrInvalidState          = errors.New("conversation state does not match the event")
	ErrOwnerImmutable        = errors.New("the owner role cannot be granted or revoked")
	ErrAlreadyRegistered     = errors.New("user is already registered")
	ErrRequestAlreadyPending = errors.New("a registration request is already pending")
	ErrFolderExists          = errors.New("a folder with this name already exists")
	ErrSessionExpired        = errors.New("upload session has expired")
	ErrNoUploadSession       = errors.New("no open upload session")
	ErrCommitInProgress      = errors.New("a batch commit is already in progress")
)

// RemoteError marks a failed call against the drive workspace. Name is the
// item the call was operating on, surfaced to the user so a failed batch
// names the file that broke it.
type RemoteError struct {
	Name string
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote operation on %q failed: %v", e.Name, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
