package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlasover/drive-events-bot/internal/domain/common/errorz"
	"github.com/vlasover/drive-events-bot/internal/domain/session"
)

func newEventFixture() (*EventService, *session.Store, *fakeDrive, *fakeFolderStorage) {
	sessions := session.NewStore()
	drive := newFakeDrive()
	folders := &fakeFolderStorage{}
	svc := NewEventService(sessions, drive, folders, &fakeLogStorage{}, testLogger(), 60*time.Minute)
	return svc, sessions, drive, folders
}

func TestEventDialogueTodayShortcut(t *testing.T) {
	svc, sessions, drive, folders := newEventFixture()
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	svc.Start(42)
	event, err := svc.HandleName(42, "Gala")
	require.NoError(t, err)
	require.Equal(t, EventAskDateChoice, event)

	folder, err := svc.CreateToday(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, "2024-05-01; Gala", folder.Name)
	assert.Equal(t, "folder-1", folder.DriveFolderID)
	assert.Equal(t, "https://drive.example.com/folder-1", folder.ShareURL)
	assert.Contains(t, drive.folders, "2024-05-01; Gala")
	assert.Len(t, folders.folders, 1)

	// the dialogue transitions straight into an upload session
	state := sessions.Get(42)
	require.Equal(t, session.KindUpload, state.Kind)
	assert.Equal(t, "folder-1", state.Upload.FolderID)
	assert.Equal(t, fixed.Add(60*time.Minute), state.Upload.ExpiresAt)
}

func TestEventDialogueCustomDate(t *testing.T) {
	svc, sessions, _, _ := newEventFixture()

	svc.Start(42)
	_, err := svc.HandleName(42, "Retreat")
	require.NoError(t, err)
	require.NoError(t, svc.ChooseCustomDate(42))
	assert.Equal(t, session.AwaitingCustomDate, sessions.Get(42).Event.Step)

	folder, event, err := svc.HandleCustomDate(context.Background(), 42, "15/06/2024")

	require.NoError(t, err)
	assert.Zero(t, event)
	assert.Equal(t, "2024-06-15; Retreat", folder.Name)
}

func TestEventDialogueInvalidDateReprompts(t *testing.T) {
	svc, sessions, _, _ := newEventFixture()
	svc.Start(42)
	_, _ = svc.HandleName(42, "Retreat")
	require.NoError(t, svc.ChooseCustomDate(42))

	folder, event, err := svc.HandleCustomDate(context.Background(), 42, "2024-06-15")

	require.NoError(t, err)
	assert.Nil(t, folder)
	assert.Equal(t, EventInvalidDate, event)
	assert.Equal(t, session.AwaitingCustomDate, sessions.Get(42).Event.Step)
}

func TestEventDialogueInvalidNameReprompts(t *testing.T) {
	svc, sessions, _, _ := newEventFixture()
	svc.Start(42)

	event, err := svc.HandleName(42, "   ")

	require.NoError(t, err)
	assert.Equal(t, EventInvalidName, event)
	assert.Equal(t, session.AwaitingName, sessions.Get(42).Event.Step)
}

func TestFolderNameCollision(t *testing.T) {
	svc, sessions, drive, folders := newEventFixture()
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	svc.Start(42)
	_, _ = svc.HandleName(42, "Gala")
	_, err := svc.CreateToday(context.Background(), 42)
	require.NoError(t, err)
	firstID := drive.folders["2024-05-01; Gala"]

	// second creation of the same composed name must fail without touching
	// the first folder
	svc.Start(42)
	_, _ = svc.HandleName(42, "Gala")
	_, err = svc.CreateToday(context.Background(), 42)

	assert.ErrorIs(t, err, errorz.ErrFolderExists)
	assert.Equal(t, firstID, drive.folders["2024-05-01; Gala"])
	assert.Len(t, drive.folders, 1)
	assert.Len(t, folders.folders, 1)

	// the dialogue survives, stepped back to the name prompt
	state := sessions.Get(42)
	require.Equal(t, session.KindEventCreation, state.Kind)
	assert.Equal(t, session.AwaitingName, state.Event.Step)
}

func TestCollisionRetryWithDifferentNameSucceeds(t *testing.T) {
	svc, sessions, _, _ := newEventFixture()
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	svc.Start(42)
	_, _ = svc.HandleName(42, "Gala")
	_, err := svc.CreateToday(context.Background(), 42)
	require.NoError(t, err)

	svc.Start(42)
	_, _ = svc.HandleName(42, "Gala")
	_, err = svc.CreateToday(context.Background(), 42)
	require.ErrorIs(t, err, errorz.ErrFolderExists)

	_, err = svc.HandleName(42, "Gala Night")
	require.NoError(t, err)
	folder, err := svc.CreateToday(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, "2024-05-01; Gala Night", folder.Name)
	assert.Equal(t, session.KindUpload, sessions.Get(42).Kind)
}

func TestHandleNameWithoutDialogueFailsClosed(t *testing.T) {
	svc, sessions, _, _ := newEventFixture()
	sessions.Set(42, session.NewRegistration())

	_, err := svc.HandleName(42, "Gala")

	assert.ErrorIs(t, err, errorz.ErrInvalidState)
	assert.True(t, sessions.Get(42).None())
}
