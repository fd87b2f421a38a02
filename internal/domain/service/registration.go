package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vlasover/drive-events-bot/internal/domain/common/errorz"
	"github.com/vlasover/drive-events-bot/internal/domain/entity"
	"github.com/vlasover/drive-events-bot/internal/domain/session"
	"github.com/vlasover/drive-events-bot/internal/domain/utils/validator"
	"github.com/vlasover/drive-events-bot/pkg/logger/types"
)

type RegistrationStorage interface {
	Create(ctx context.Context, request *entity.RegistrationRequest) (*entity.RegistrationRequest, error)
	Get(ctx context.Context, id uint) (*entity.RegistrationRequest, error)
	HasPending(ctx context.Context, userID int64) (bool, error)
	SetStatus(ctx context.Context, id uint, status entity.RequestStatus, processedBy int64) error
	CountPending(ctx context.Context) (int64, error)
	GetPendingWithPagination(ctx context.Context, offset, limit int) ([]entity.RegistrationRequest, error)
}

type mailClient interface {
	SendWelcomeEmail(to string, fullName string)
}

// RegistrationEvent tells the handler what to render after a dialogue step.
type RegistrationEvent int

const (
	RegistrationInvalidName RegistrationEvent = iota
	RegistrationAskEmail
	RegistrationInvalidEmail
	RegistrationSubmitted
)

// RegistrationService drives the /register dialogue
// (AwaitingFullName -> AwaitingEmail -> submitted) and processes
// approve/reject decisions on the resulting requests.
type RegistrationService struct {
	sessions       *session.Store
	userStorage    UserStorage
	requestStorage RegistrationStorage
	mail           mailClient
	logStorage     ActionLogStorage
	logger         *types.Logger
}

func NewRegistrationService(
	sessions *session.Store,
	userStorage UserStorage,
	requestStorage RegistrationStorage,
	mail mailClient,
	logStorage ActionLogStorage,
	logger *types.Logger,
) *RegistrationService {
	return &RegistrationService{
		sessions:       sessions,
		userStorage:    userStorage,
		requestStorage: requestStorage,
		mail:           mail,
		logStorage:     logStorage,
		logger:         logger,
	}
}

// Start opens the registration dialogue. An approved user or a user with a
// pending request short-circuits without entering the dialogue. Starting
// the dialogue replaces whatever conversation state the user had before.
func (s *RegistrationService) Start(ctx context.Context, userID int64) error {
	user, err := s.userStorage.Get(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil && user.Registered() {
		return errorz.ErrAlreadyRegistered
	}

	pending, err := s.requestStorage.HasPending(ctx, userID)
	if err != nil {
		return err
	}
	if pending {
		return errorz.ErrRequestAlreadyPending
	}

	s.sessions.Set(userID, session.NewRegistration())
	s.logger.Infof("(user: %d) registration dialogue started", userID)
	return nil
}

// HandleText advances the dialogue with the user's free-text answer.
// Invalid input re-prompts without leaving the current step. The final
// valid answer creates the registration request and clears the session.
// A call without a registration dialogue in progress fails closed with
// ErrInvalidState and a cleared session.
func (s *RegistrationService) HandleText(ctx context.Context, userID int64, username, text string) (RegistrationEvent, error) {
	state := s.sessions.Get(userID)
	if state.Kind != session.KindRegistration || state.Registration == nil {
		s.sessions.Clear(userID)
		return 0, errorz.ErrInvalidState
	}

	dialogue := state.Registration
	text = strings.TrimSpace(text)

	switch dialogue.Step {
	case session.AwaitingFullName:
		if !validator.FullName(text) {
			return RegistrationInvalidName, nil
		}
		parts := strings.Fields(text)
		s.sessions.Update(userID, func(st *session.State) {
			if st.Kind != session.KindRegistration {
				return
			}
			st.Registration.FirstName = parts[0]
			st.Registration.LastName = strings.Join(parts[1:], " ")
			st.Registration.FullName = text
			st.Registration.Step = session.AwaitingEmail
		})
		return RegistrationAskEmail, nil

	case session.AwaitingEmail:
		if !validator.Email(text) {
			return RegistrationInvalidEmail, nil
		}
		if err := s.submit(ctx, userID, username, dialogue, text); err != nil {
			return 0, err
		}
		s.sessions.Clear(userID)
		return RegistrationSubmitted, nil

	default:
		s.sessions.Clear(userID)
		return 0, errorz.ErrInvalidState
	}
}

func (s *RegistrationService) submit(ctx context.Context, userID int64, username string, dialogue *session.RegistrationDialogue, email string) error {
	// Re-check just before insert: the dialogue may have been started twice
	// and committed elsewhere in between.
	pending, err := s.requestStorage.HasPending(ctx, userID)
	if err != nil {
		return err
	}
	if pending {
		return errorz.ErrRequestAlreadyPending
	}

	_, err = s.requestStorage.Create(ctx, &entity.RegistrationRequest{
		UserID:    userID,
		Username:  username,
		FirstName: dialogue.FirstName,
		LastName:  dialogue.LastName,
		Email:     email,
		Status:    entity.RequestPending,
	})
	if err != nil {
		return err
	}

	s.logger.Infof("(user: %d) registration request submitted", userID)
	return nil
}

// Approve grants the request: the user becomes an approved member and gets
// a welcome email at the address they registered with.
func (s *RegistrationService) Approve(ctx context.Context, requestID uint, adminID int64) (*entity.User, error) {
	request, err := s.requestStorage.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != entity.RequestPending {
		return nil, errorz.ErrInvalidCallbackData
	}

	if err = s.requestStorage.SetStatus(ctx, requestID, entity.RequestApproved, adminID); err != nil {
		return nil, err
	}

	user, err := s.userStorage.Get(ctx, request.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &entity.User{ID: request.UserID}
		if _, errCreate := s.userStorage.Create(ctx, user); errCreate != nil {
			return nil, errCreate
		}
	} else if err != nil {
		return nil, err
	}

	user.Username = request.Username
	user.FirstName = request.FirstName
	user.LastName = request.LastName
	user.Email = request.Email
	user.Role = entity.Member
	user.Status = entity.StatusApproved
	user.ApprovedBy = &adminID
	if user, err = s.userStorage.Update(ctx, user); err != nil {
		return nil, err
	}

	s.mail.SendWelcomeEmail(user.Email, user.FullName())

	_, _ = s.logStorage.Create(ctx, &entity.ActionLog{
		UserID: adminID,
		Action: entity.ActionUserApproved,
		Detail: fmt.Sprintf("request %d, user %d", requestID, request.UserID),
	})

	s.logger.Infof("(admin: %d) approved registration request %d for user %d", adminID, requestID, request.UserID)
	return user, nil
}

// Reject declines the request without touching the user's directory row.
func (s *RegistrationService) Reject(ctx context.Context, requestID uint, adminID int64) (*entity.RegistrationRequest, error) {
	request, err := s.requestStorage.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != entity.RequestPending {
		return nil, errorz.ErrInvalidCallbackData
	}

	if err = s.requestStorage.SetStatus(ctx, requestID, entity.RequestRejected, adminID); err != nil {
		return nil, err
	}

	_, _ = s.logStorage.Create(ctx, &entity.ActionLog{
		UserID: adminID,
		Action: entity.ActionUserRejected,
		Detail: fmt.Sprintf("request %d, user %d", requestID, request.UserID),
	})

	s.logger.Infof("(admin: %d) rejected registration request %d for user %d", adminID, requestID, request.UserID)
	now := time.Now()
	request.Status = entity.RequestRejected
	request.ProcessedBy = &adminID
	request.ProcessedAt = &now
	return request, nil
}

func (s *RegistrationService) CountPending(ctx context.Context) (int64, error) {
	return s.requestStorage.CountPending(ctx)
}

func (s *RegistrationService) PendingWithPagination(ctx context.Context, offset, limit int) ([]entity.RegistrationRequest, error) {
	return s.requestStorage.GetPendingWithPagination(ctx, offset, limit)
}
