package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vlasover/drive-events-bot/internal/domain/entity"
)

func TestAuthorizeKnownRole(t *testing.T) {
	users := newFakeUserStorage()
	users.users[1] = &entity.User{ID: 1, Role: entity.Admin}
	auth := NewAuthService(users, testLogger())

	decision := auth.Authorize(context.Background(), 1, entity.CapApproveRegistrations)

	assert.True(t, decision.Allowed)
	assert.Equal(t, entity.Admin, decision.Role)
}

func TestAuthorizeDeniedCapability(t *testing.T) {
	users := newFakeUserStorage()
	users.users[1] = &entity.User{ID: 1, Role: entity.Manager}
	auth := NewAuthService(users, testLogger())

	decision := auth.Authorize(context.Background(), 1, entity.CapApproveRegistrations)

	assert.False(t, decision.Allowed)
	assert.Equal(t, entity.Manager, decision.Role)
	assert.NotEmpty(t, decision.Reason)
}

func TestAuthorizeUnknownUserTreatedAsPending(t *testing.T) {
	auth := NewAuthService(newFakeUserStorage(), testLogger())

	decision := auth.Authorize(context.Background(), 999, entity.CapViewEvents)

	assert.False(t, decision.Allowed)
	assert.Equal(t, entity.Pending, decision.Role)
	assert.Contains(t, decision.Reason, "/register")
}

func TestAuthorizeDirectoryFailureDeniesClosed(t *testing.T) {
	auth := NewAuthService(erroringUserStorage{}, testLogger())

	decision := auth.Authorize(context.Background(), 1, entity.CapViewEvents)

	assert.False(t, decision.Allowed)
	assert.NotEmpty(t, decision.Reason)
}

func TestAuthorizeIsReadOnly(t *testing.T) {
	users := newFakeUserStorage()
	users.users[1] = &entity.User{ID: 1, Role: entity.Member}
	auth := NewAuthService(users, testLogger())

	auth.Authorize(context.Background(), 1, entity.CapManageAdmins)

	assert.Equal(t, entity.Member, users.users[1].Role)
	assert.Len(t, users.users, 1)
}
