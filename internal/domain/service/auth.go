package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vlasover/drive-events-bot/internal/domain/entity"
	"github.com/vlasover/drive-events-bot/pkg/logger/types"
)

type authUserStorage interface {
	Get(ctx context.Context, id int64) (*entity.User, error)
}

// AuthService is the gate every command passes through. It resolves the
// acting user's role from the directory and consults the permission table.
// It never mutates the directory and never caches across requests, so a
// role change takes effect on the user's next message.
type AuthService struct {
	userStorage authUserStorage
	logger      *types.Logger
}

func NewAuthService(userStorage authUserStorage, logger *types.Logger) *AuthService {
	return &AuthService{
		userStorage: userStorage,
		logger:      logger,
	}
}

// Decision is the outcome of an authorization check. Reason is a short
// human-readable explanation suitable for the uniform rejection message;
// operator detail goes to the log instead.
type Decision struct {
	Allowed bool
	Role    entity.Role
	Reason  string
}

// Authorize decides whether the user may run a command requiring the
// capability. A user missing from the directory is treated as pending.
// Directory failures deny closed and are logged; Authorize itself never
// returns an error.
func (s *AuthService) Authorize(ctx context.Context, userID int64, capability entity.Capability) Decision {
	role := entity.Pending

	user, err := s.userStorage.Get(ctx, userID)
	switch {
	case err == nil:
		role = user.Role
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first interaction, no directory row yet
	default:
		s.logger.Errorf("(user: %d) directory lookup failed during authorization: %v", userID, err)
		return Decision{Allowed: false, Role: entity.Pending, Reason: "a temporary problem prevented the permission check, try again"}
	}

	if !entity.HasPermission(role, capability) {
		s.logger.Infof("(user: %d) authorization denied: role %s lacks %s", userID, role, capability)
		if role == entity.Pending {
			return Decision{Allowed: false, Role: role, Reason: "you need to be registered and approved first, use /register"}
		}
		return Decision{Allowed: false, Role: role, Reason: "you don't have permission to do this"}
	}

	return Decision{Allowed: true, Role: role}
}
