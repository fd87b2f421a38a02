package registration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlasover/drive-events-bot/internal/domain/common/errorz"
)

type fakeTokenStore struct {
	payloads map[string]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{payloads: make(map[string]string)}
}

func (f *fakeTokenStore) Get(token string) (string, error) {
	payload, ok := f.payloads[token]
	if !ok {
		return "", errorz.ErrInvalidCallbackData
	}
	return payload, nil
}

func (f *fakeTokenStore) Del(token string) {
	delete(f.payloads, token)
}

func TestConsumeDecisionTokenBurnsOnSuccess(t *testing.T) {
	tokens := newFakeTokenStore()
	tokens.payloads["tok"] = "approve:7"

	var decidedID uint
	err := consumeDecisionToken(tokens, "approve", "tok", func(requestID uint) error {
		decidedID = requestID
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, uint(7), decidedID)
	assert.NotContains(t, tokens.payloads, "tok")
}

func TestConsumeDecisionTokenSurvivesTransientFailure(t *testing.T) {
	tokens := newFakeTokenStore()
	tokens.payloads["tok"] = "approve:7"

	dbDown := errors.New("directory unavailable")
	err := consumeDecisionToken(tokens, "approve", "tok", func(uint) error {
		return dbDown
	})
	assert.ErrorIs(t, err, dbDown)

	// the token survived, so the admin can press the button again
	assert.Contains(t, tokens.payloads, "tok")
	err = consumeDecisionToken(tokens, "approve", "tok", func(uint) error {
		return nil
	})
	require.NoError(t, err)
	assert.NotContains(t, tokens.payloads, "tok")
}

func TestConsumeDecisionTokenBurnsAlreadyProcessed(t *testing.T) {
	tokens := newFakeTokenStore()
	tokens.payloads["tok"] = "reject:7"

	err := consumeDecisionToken(tokens, "reject", "tok", func(uint) error {
		return errorz.ErrInvalidCallbackData
	})

	assert.ErrorIs(t, err, errorz.ErrInvalidCallbackData)
	assert.NotContains(t, tokens.payloads, "tok")
}

func TestConsumeDecisionTokenRejectsWrongAction(t *testing.T) {
	tokens := newFakeTokenStore()
	tokens.payloads["tok"] = "approve:7"

	called := false
	err := consumeDecisionToken(tokens, "reject", "tok", func(uint) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, errorz.ErrInvalidCallbackData)
	assert.False(t, called)
	assert.NotContains(t, tokens.payloads, "tok")
}

func TestConsumeDecisionTokenMissing(t *testing.T) {
	tokens := newFakeTokenStore()

	called := false
	err := consumeDecisionToken(tokens, "approve", "gone", func(uint) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, errorz.ErrInvalidCallbackData)
	assert.False(t, called)
}
