package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlasover/drive-events-bot/internal/domain/common/errorz"
	"github.com/vlasover/drive-events-bot/internal/domain/session"
)

func newUploadFixture() (*UploadService, *session.Store, *fakeDrive, *fakeBuffer, *fakeLogStorage) {
	sessions := session.NewStore()
	drive := newFakeDrive()
	buffer := newFakeBuffer()
	logs := &fakeLogStorage{}
	svc := NewUploadService(sessions, drive, buffer, logs, testLogger())
	return svc, sessions, drive, buffer, logs
}

func openSession(sessions *session.Store, userID int64, createdAt time.Time) {
	sessions.Set(userID, session.NewUpload("folder-1", "2024-05-01; Gala", createdAt.Add(60*time.Minute)))
}

func TestAddFileBuffersAndReportsProgress(t *testing.T) {
	svc, sessions, _, buffer, _ := newUploadFixture()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	openSession(sessions, 42, now)

	progress, err := svc.AddFile(context.Background(), 42, "a.jpg", 100, session.MediaPhoto, strings.NewReader("aaa"))
	require.NoError(t, err)
	assert.Equal(t, 1, progress.FileCount)

	progress, err = svc.AddFile(context.Background(), 42, "b.mp4", 300, session.MediaVideo, strings.NewReader("bbb"))
	require.NoError(t, err)

	assert.Equal(t, 2, progress.FileCount)
	assert.Equal(t, int64(400), progress.TotalBytes)
	assert.Equal(t, 0, progress.CompletedCount)
	assert.Equal(t, 2, buffer.stored(42))
}

func TestAddFileWithoutSession(t *testing.T) {
	svc, _, _, _, _ := newUploadFixture()

	_, err := svc.AddFile(context.Background(), 42, "a.jpg", 100, session.MediaPhoto, strings.NewReader("x"))

	assert.ErrorIs(t, err, errorz.ErrNoUploadSession)
}

func TestExpiredSessionRejectsFilesAndLapses(t *testing.T) {
	svc, sessions, _, buffer, _ := newUploadFixture()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created }
	openSession(sessions, 42, created)

	_, err := svc.AddFile(context.Background(), 42, "a.jpg", 100, session.MediaPhoto, strings.NewReader("x"))
	require.NoError(t, err)

	// 61 minutes after creation the session must lapse, discarding the
	// buffered file rather than committing anything
	svc.now = func() time.Time { return created.Add(61 * time.Minute) }
	_, err = svc.AddFile(context.Background(), 42, "b.jpg", 100, session.MediaPhoto, strings.NewReader("y"))

	assert.ErrorIs(t, err, errorz.ErrSessionExpired)
	assert.True(t, sessions.Get(42).None())
	assert.Zero(t, buffer.stored(42))
}

func TestCommitUploadsAllFiles(t *testing.T) {
	svc, sessions, drive, buffer, logs := newUploadFixture()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	openSession(sessions, 42, now)

	_, err := svc.AddFile(context.Background(), 42, "a.jpg", 100, session.MediaPhoto, strings.NewReader("aaa"))
	require.NoError(t, err)
	_, err = svc.AddFile(context.Background(), 42, "b.mp4", 300, session.MediaVideo, strings.NewReader("bbb"))
	require.NoError(t, err)

	var snapshots []session.Progress
	result, err := svc.Commit(context.Background(), 42, func(p session.Progress) {
		snapshots = append(snapshots, p)
	})

	require.NoError(t, err)
	assert.Equal(t, "2024-05-01; Gala", result.FolderName)
	require.Len(t, result.Committed, 2)
	assert.Equal(t, []string{"a.jpg", "b.mp4"}, drive.uploads["folder-1"])

	// per-file progress: 25% after the first file, 100% after the second
	require.Len(t, snapshots, 2)
	assert.InDelta(t, 25.0, snapshots[0].Percent(), 0.001)
	assert.InDelta(t, 100.0, snapshots[1].Percent(), 0.001)

	// session closed, buffer reclaimed, batch logged
	assert.True(t, sessions.Get(42).None())
	assert.Zero(t, buffer.stored(42))
	require.Len(t, logs.entries, 1)
	assert.Equal(t, []string{"a.jpg", "b.mp4"}, []string(logs.entries[0].FileNames))
}

func TestCommitFailureKeepsPartialProgress(t *testing.T) {
	svc, sessions, drive, buffer, _ := newUploadFixture()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	openSession(sessions, 42, now)

	for _, name := range []string{"a.jpg", "b.mp4", "c.png"} {
		_, err := svc.AddFile(context.Background(), 42, name, 100, session.MediaPhoto, strings.NewReader("x"))
		require.NoError(t, err)
	}
	drive.failOn["b.mp4"] = true

	_, err := svc.Commit(context.Background(), 42, nil)

	// the error names the failing file
	var remoteErr *errorz.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "b.mp4", remoteErr.Name)

	// a.jpg stays committed, c.png is never attempted
	assert.Equal(t, []string{"a.jpg"}, drive.uploads["folder-1"])

	// the session is closed and local content reclaimed even on failure
	assert.True(t, sessions.Get(42).None())
	assert.Zero(t, buffer.stored(42))
}

func TestCommitExpiredSessionLapses(t *testing.T) {
	svc, sessions, drive, _, _ := newUploadFixture()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created }
	openSession(sessions, 42, created)
	_, err := svc.AddFile(context.Background(), 42, "a.jpg", 100, session.MediaPhoto, strings.NewReader("x"))
	require.NoError(t, err)

	svc.now = func() time.Time { return created.Add(2 * time.Hour) }
	_, err = svc.Commit(context.Background(), 42, nil)

	assert.ErrorIs(t, err, errorz.ErrSessionExpired)
	assert.Zero(t, drive.uploaded)
	assert.True(t, sessions.Get(42).None())
}

func TestCancelDiscardsEverything(t *testing.T) {
	svc, sessions, drive, buffer, _ := newUploadFixture()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	openSession(sessions, 42, now)
	_, err := svc.AddFile(context.Background(), 42, "a.jpg", 100, session.MediaPhoto, strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(42))

	assert.True(t, sessions.Get(42).None())
	assert.Zero(t, buffer.stored(42))
	assert.Zero(t, drive.uploaded)
}

func TestCancelWithoutSession(t *testing.T) {
	svc, _, _, _, _ := newUploadFixture()

	assert.ErrorIs(t, svc.Cancel(42), errorz.ErrNoUploadSession)
}

func TestCancelDuringCommitIsRejected(t *testing.T) {
	svc, sessions, drive, buffer, _ := newUploadFixture()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	openSession(sessions, 42, now)

	for _, name := range []string{"a.jpg", "b.mp4"} {
		_, err := svc.AddFile(context.Background(), 42, name, 100, session.MediaPhoto, strings.NewReader("x"))
		require.NoError(t, err)
	}

	drive.entered = make(chan string, 2)
	drive.gate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := svc.Commit(context.Background(), 42, nil)
		done <- err
	}()
	<-drive.entered

	// the first file is in flight; cancelling now must not reclaim the
	// buffer out from under the commit
	assert.ErrorIs(t, svc.Cancel(42), errorz.ErrCommitInProgress)

	close(drive.gate)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"a.jpg", "b.mp4"}, drive.uploads["folder-1"])
	assert.True(t, sessions.Get(42).None())
	assert.Zero(t, buffer.stored(42))
}

func TestSecondCommitDuringCommitIsRejected(t *testing.T) {
	svc, sessions, drive, _, _ := newUploadFixture()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	openSession(sessions, 42, now)

	for _, name := range []string{"a.jpg", "b.mp4"} {
		_, err := svc.AddFile(context.Background(), 42, name, 100, session.MediaPhoto, strings.NewReader("x"))
		require.NoError(t, err)
	}

	drive.entered = make(chan string, 2)
	drive.gate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := svc.Commit(context.Background(), 42, nil)
		done <- err
	}()
	<-drive.entered

	_, err := svc.Commit(context.Background(), 42, nil)
	assert.ErrorIs(t, err, errorz.ErrCommitInProgress)

	close(drive.gate)
	require.NoError(t, <-done)

	// each file uploaded exactly once, by the first commit
	assert.Equal(t, []string{"a.jpg", "b.mp4"}, drive.uploads["folder-1"])
	assert.True(t, sessions.Get(42).None())
}

func TestAddFileDuringCommitIsRejected(t *testing.T) {
	svc, sessions, drive, _, _ := newUploadFixture()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	openSession(sessions, 42, now)

	_, err := svc.AddFile(context.Background(), 42, "a.jpg", 100, session.MediaPhoto, strings.NewReader("x"))
	require.NoError(t, err)

	drive.entered = make(chan string, 1)
	drive.gate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := svc.Commit(context.Background(), 42, nil)
		done <- err
	}()
	<-drive.entered

	_, err = svc.AddFile(context.Background(), 42, "b.jpg", 100, session.MediaPhoto, strings.NewReader("y"))
	assert.ErrorIs(t, err, errorz.ErrCommitInProgress)

	close(drive.gate)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"a.jpg"}, drive.uploads["folder-1"])
}

func TestCommitEmptySessionSucceeds(t *testing.T) {
	svc, sessions, drive, _, _ := newUploadFixture()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	openSession(sessions, 42, now)

	result, err := svc.Commit(context.Background(), 42, nil)

	require.NoError(t, err)
	assert.Empty(t, result.Committed)
	assert.Zero(t, drive.uploaded)
	assert.True(t, sessions.Get(42).None())
}
