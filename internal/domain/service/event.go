package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/vlasover/drive-events-bot/internal/domain/common/errorz"
	"github.com/vlasover/drive-events-bot/internal/domain/entity"
	"github.com/vlasover/drive-events-bot/internal/domain/session"
	"github.com/vlasover/drive-events-bot/internal/domain/utils/validator"
	"github.com/vlasover/drive-events-bot/pkg/logger/types"
)

// DriveClient is the narrow view of the remote storage workspace the
// services depend on.
type DriveClient interface {
	FolderExists(ctx context.Context, name string) (bool, error)
	CreateFolder(ctx context.Context, name string) (id string, err error)
	SetPublicWriter(ctx context.Context, folderID string) (url string, err error)
	Upload(ctx context.Context, content io.Reader, name string, folderID string) (id, url string, err error)
}

type EventFolderStorage interface {
	Create(ctx context.Context, folder *entity.EventFolder) (*entity.EventFolder, error)
	Count(ctx context.Context) (int64, error)
	GetWithPagination(ctx context.Context, offset, limit int) ([]entity.EventFolder, error)
}

// EventEvent tells the handler what to render after a dialogue step.
type EventEvent int

const (
	EventInvalidName EventEvent = iota
	EventAskDateChoice
	EventInvalidDate
)

// EventService drives the event-folder creation dialogue
// (AwaitingName -> AwaitingDateChoice -> optional AwaitingCustomDate) and,
// on success, opens an upload session rooted at the new folder.
type EventService struct {
	sessions      *session.Store
	drive         DriveClient
	folderStorage EventFolderStorage
	logStorage    ActionLogStorage
	logger        *types.Logger
	sessionTTL    time.Duration
	now           func() time.Time
}

func NewEventService(
	sessions *session.Store,
	drive DriveClient,
	folderStorage EventFolderStorage,
	logStorage ActionLogStorage,
	logger *types.Logger,
	sessionTTL time.Duration,
) *EventService {
	return &EventService{
		sessions:      sessions,
		drive:         drive,
		folderStorage: folderStorage,
		logStorage:    logStorage,
		logger:        logger,
		sessionTTL:    sessionTTL,
		now:           time.Now,
	}
}

// Start opens the event-creation dialogue, replacing any previous
// conversation state the user had.
func (s *EventService) Start(userID int64) {
	s.sessions.Set(userID, session.NewEventCreation())
	s.logger.Infof("(user: %d) event creation dialogue started", userID)
}

// HandleName accepts the event name and moves on to the date choice.
func (s *EventService) HandleName(userID int64, text string) (EventEvent, error) {
	state := s.sessions.Get(userID)
	if state.Kind != session.KindEventCreation || state.Event == nil || state.Event.Step != session.AwaitingName {
		s.sessions.Clear(userID)
		return 0, errorz.ErrInvalidState
	}

	if !validator.EventName(text) {
		return EventInvalidName, nil
	}

	s.sessions.Update(userID, func(st *session.State) {
		if st.Kind != session.KindEventCreation {
			return
		}
		st.Event.EventName = text
		st.Event.Step = session.AwaitingDateChoice
	})
	return EventAskDateChoice, nil
}

// ChooseCustomDate switches the dialogue to waiting for a typed date.
func (s *EventService) ChooseCustomDate(userID int64) error {
	state := s.sessions.Get(userID)
	if state.Kind != session.KindEventCreation || state.Event == nil || state.Event.Step != session.AwaitingDateChoice {
		s.sessions.Clear(userID)
		return errorz.ErrInvalidState
	}

	s.sessions.Update(userID, func(st *session.State) {
		if st.Kind != session.KindEventCreation {
			return
		}
		st.Event.Step = session.AwaitingCustomDate
	})
	return nil
}

// CreateToday creates the folder dated today, the inline shortcut that
// skips the custom date step.
func (s *EventService) CreateToday(ctx context.Context, userID int64) (*entity.EventFolder, error) {
	state := s.sessions.Get(userID)
	if state.Kind != session.KindEventCreation || state.Event == nil || state.Event.Step != session.AwaitingDateChoice {
		s.sessions.Clear(userID)
		return nil, errorz.ErrInvalidState
	}

	return s.createFolder(ctx, userID, state.Event.EventName, s.now())
}

// HandleCustomDate parses the typed date (DD/MM/YYYY) and creates the
// folder. An unparseable date re-prompts without leaving the step.
func (s *EventService) HandleCustomDate(ctx context.Context, userID int64, text string) (*entity.EventFolder, EventEvent, error) {
	state := s.sessions.Get(userID)
	if state.Kind != session.KindEventCreation || state.Event == nil || state.Event.Step != session.AwaitingCustomDate {
		s.sessions.Clear(userID)
		return nil, 0, errorz.ErrInvalidState
	}

	date, ok := validator.EventDate(text)
	if !ok {
		return nil, EventInvalidDate, nil
	}

	folder, err := s.createFolder(ctx, userID, state.Event.EventName, date)
	return folder, 0, err
}

// createFolder checks for a name collision immediately before creation. On
// collision the dialogue is kept and stepped back to AwaitingName so the
// user retries with a different name; the existing folder is not touched.
// On success the dialogue is replaced by an upload session with a fixed
// expiry.
func (s *EventService) createFolder(ctx context.Context, userID int64, eventName string, date time.Time) (*entity.EventFolder, error) {
	name := entity.ComposeFolderName(date, eventName)

	exists, err := s.drive.FolderExists(ctx, name)
	if err != nil {
		return nil, &errorz.RemoteError{Name: name, Err: err}
	}
	if exists {
		s.sessions.Update(userID, func(st *session.State) {
			if st.Kind != session.KindEventCreation {
				return
			}
			st.Event.Step = session.AwaitingName
		})
		s.logger.Infof("(user: %d) folder name collision: %q", userID, name)
		return nil, errorz.ErrFolderExists
	}

	folderID, err := s.drive.CreateFolder(ctx, name)
	if err != nil {
		return nil, &errorz.RemoteError{Name: name, Err: err}
	}

	shareURL, err := s.drive.SetPublicWriter(ctx, folderID)
	if err != nil {
		return nil, &errorz.RemoteError{Name: name, Err: err}
	}

	folder := &entity.EventFolder{
		ID:            uuid.New().String(),
		Name:          name,
		EventDate:     date,
		DriveFolderID: folderID,
		ShareURL:      shareURL,
		CreatedBy:     userID,
	}
	if _, err = s.folderStorage.Create(ctx, folder); err != nil {
		return nil, err
	}

	_, _ = s.logStorage.Create(ctx, &entity.ActionLog{
		UserID: userID,
		Action: entity.ActionFolderCreated,
		Detail: fmt.Sprintf("folder %q (drive id: %s)", name, folderID),
	})

	expiresAt := s.now().Add(s.sessionTTL)
	s.sessions.Set(userID, session.NewUpload(folderID, name, expiresAt))
	s.logger.Infof("(user: %d) folder %q created, upload session open until %s", userID, name, expiresAt.Format(time.RFC3339))

	return folder, nil
}

func (s *EventService) Count(ctx context.Context) (int64, error) {
	return s.folderStorage.Count(ctx)
}

func (s *EventService) GetWithPagination(ctx context.Context, offset, limit int) ([]entity.EventFolder, error) {
	return s.folderStorage.GetWithPagination(ctx, offset, limit)
}
