package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vlasover/drive-events-bot/internal/domain/common/errorz"
	"github.com/vlasover/drive-events-bot/internal/domain/entity"
)

type UserStorage interface {
	Create(ctx context.Context, user *entity.User) (*entity.User, error)
	Get(ctx context.Context, id int64) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) (*entity.User, error)
	Delete(ctx context.Context, id int64) error
	CountByRole(ctx context.Context, role entity.Role) (int64, error)
	GetByRoleWithPagination(ctx context.Context, role entity.Role, offset, limit int) ([]entity.User, error)
}

type ActionLogStorage interface {
	Create(ctx context.Context, log *entity.ActionLog) (*entity.ActionLog, error)
}

type UserService struct {
	userStorage UserStorage
	logStorage  ActionLogStorage
}

func NewUserService(userStorage UserStorage, logStorage ActionLogStorage) *UserService {
	return &UserService{
		userStorage: userStorage,
		logStorage:  logStorage,
	}
}

func (s *UserService) Get(ctx context.Context, userID int64) (*entity.User, error) {
	return s.userStorage.Get(ctx, userID)
}

func (s *UserService) Create(ctx context.Context, user entity.User) (*entity.User, error) {
	return s.userStorage.Create(ctx, &user)
}

func (s *UserService) Update(ctx context.Context, user *entity.User) (*entity.User, error) {
	return s.userStorage.Update(ctx, user)
}

// SetRole changes a user's role. The owner role is fixed at deployment
// time: neither granting owner nor touching the current owner is possible
// through this path, both are rejected explicitly.
func (s *UserService) SetRole(ctx context.Context, targetID int64, role entity.Role, actorID int64) (*entity.User, error) {
	if role == entity.Owner {
		return nil, errorz.ErrOwnerImmutable
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	user, err := s.userStorage.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user.Role == entity.Owner {
		return nil, errorz.ErrOwnerImmutable
	}

	previous := user.Role
	user.Role = role
	updated, err := s.userStorage.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	_, _ = s.logStorage.Create(ctx, &entity.ActionLog{
		UserID: actorID,
		Action: entity.ActionRoleChanged,
		Detail: fmt.Sprintf("user %d: %s -> %s", targetID, previous, role),
	})

	return updated, nil
}

// Remove deletes a member from the directory. The owner cannot be removed.
func (s *UserService) Remove(ctx context.Context, targetID int64, actorID int64) error {
	user, err := s.userStorage.Get(ctx, targetID)
	if err != nil {
		return err
	}
	if user.Role == entity.Owner {
		return errorz.ErrOwnerImmutable
	}

	if err = s.userStorage.Delete(ctx, targetID); err != nil {
		return err
	}

	_, _ = s.logStorage.Create(ctx, &entity.ActionLog{
		UserID: actorID,
		Action: entity.ActionMemberRemoved,
		Detail: fmt.Sprintf("user %d removed", targetID),
	})

	return nil
}

// EnsureOwner seeds the deployment's single owner account: the configured
// account exists with role owner and approved status, and any account
// still carrying the owner role from an earlier bot.owner-id is demoted
// to admin. Exactly one owner row survives.
func (s *UserService) EnsureOwner(ctx context.Context, ownerID int64) error {
	owner, err := s.userStorage.Get(ctx, ownerID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		_, err = s.userStorage.Create(ctx, &entity.User{
			ID:     ownerID,
			Role:   entity.Owner,
			Status: entity.StatusApproved,
		})
		if err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if owner.Role != entity.Owner || owner.Status != entity.StatusApproved {
			owner.Role = entity.Owner
			owner.Status = entity.StatusApproved
			if _, err = s.userStorage.Update(ctx, owner); err != nil {
				return err
			}
		}
	}

	// re-fetch from the start after each demotion round, the owner-role
	// result set shrinks underneath the pagination
	for {
		rows, err := s.userStorage.GetByRoleWithPagination(ctx, entity.Owner, 0, 50)
		if err != nil {
			return err
		}
		demoted := 0
		for _, stale := range rows {
			if stale.ID == ownerID {
				continue
			}
			stale.Role = entity.Admin
			if _, err = s.userStorage.Update(ctx, &stale); err != nil {
				return err
			}
			_, _ = s.logStorage.Create(ctx, &entity.ActionLog{
				UserID: ownerID,
				Action: entity.ActionRoleChanged,
				Detail: fmt.Sprintf("user %d: %s -> %s, owner account repointed", stale.ID, entity.Owner, entity.Admin),
			})
			demoted++
		}
		if demoted == 0 {
			return nil
		}
	}
}

func (s *UserService) CountByRole(ctx context.Context, role entity.Role) (int64, error) {
	return s.userStorage.CountByRole(ctx, role)
}

func (s *UserService) GetByRoleWithPagination(ctx context.Context, role entity.Role, offset, limit int) ([]entity.User, error) {
	return s.userStorage.GetByRoleWithPagination(ctx, role, offset, limit)
}
