// Package session holds the in-memory conversation state of every user
// currently inside a multi-turn dialogue. State lives only in process
// memory and is lost on restart; every dialogue can be restarted by the
// user.
package session

import "time"

// Kind tags the active dialogue variant of a user's state. Exactly one
// variant pointer is non-nil for a given kind; KindNone carries none.
type Kind string

const (
	KindNone          Kind = ""
	KindRegistration  Kind = "registration"
	KindEventCreation Kind = "event_creation"
	KindUpload        Kind = "upload"
)

// State is the tagged union of dialogue payloads. A user has exactly one
// State at a time; starting a new dialogue overwrites whatever was there
// before, so the newest intent always wins.
type State struct {
	Kind         Kind
	Registration *RegistrationDialogue
	Event        *EventCreationDialogue
	Upload       *UploadSession
}

// None reports whether no dialogue is active.
func (s State) None() bool {
	return s.Kind == KindNone
}

type RegistrationStep int

const (
	AwaitingFullName RegistrationStep = iota
	AwaitingEmail
)

// RegistrationDialogue buffers profile fields while the user walks through
// the /register flow. The buffered fields become the registration request
// only when the final step commits.
type RegistrationDialogue struct {
	Step      RegistrationStep
	FirstName string
	LastName  string
	FullName  string
}

type EventCreationStep int

const (
	AwaitingName EventCreationStep = iota
	AwaitingDateChoice
	AwaitingCustomDate
)

// EventCreationDialogue buffers the event name while the user picks a date.
type EventCreationDialogue struct {
	Step      EventCreationStep
	EventName string
}

func NewRegistration() State {
	return State{Kind: KindRegistration, Registration: &RegistrationDialogue{Step: AwaitingFullName}}
}

func NewEventCreation() State {
	return State{Kind: KindEventCreation, Event: &EventCreationDialogue{Step: AwaitingName}}
}

func NewUpload(folderID, folderName string, expiresAt time.Time) State {
	return State{Kind: KindUpload, Upload: &UploadSession{
		FolderID:   folderID,
		FolderName: folderName,
		ExpiresAt:  expiresAt,
	}}
}
