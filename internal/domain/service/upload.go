package service

import (
	"context"
	"io"
	"time"

	"github.com/lib/pq"

	"github.com/vlasover/drive-events-bot/internal/domain/common/errorz"
	"github.com/vlasover/drive-events-bot/internal/domain/entity"
	"github.com/vlasover/drive-events-bot/internal/domain/session"
	"github.com/vlasover/drive-events-bot/pkg/logger/types"
)

type fileBuffer interface {
	Save(userID int64, name string, content io.Reader) (string, error)
	Open(path string) (io.ReadCloser, error)
	Cleanup(userID int64) error
}

// CommitResult summarizes a finished batch commit.
type CommitResult struct {
	FolderName string
	Committed  []session.CommittedUpload
	Progress   session.Progress
}

// UploadService accumulates files into the open upload session and commits
// them to the drive workspace as one batch when the user presses Done.
// Every session mutation goes through the store's per-key read-modify-write,
// and a started commit flags the session as Committing, so a concurrent
// Done, Cancel or incoming file cannot preempt an in-flight commit.
type UploadService struct {
	sessions   *session.Store
	drive      DriveClient
	files      fileBuffer
	logStorage ActionLogStorage
	logger     *types.Logger
	now        func() time.Time
}

func NewUploadService(
	sessions *session.Store,
	drive DriveClient,
	files fileBuffer,
	logStorage ActionLogStorage,
	logger *types.Logger,
) *UploadService {
	return &UploadService{
		sessions:   sessions,
		drive:      drive,
		files:      files,
		logStorage: logStorage,
		logger:     logger,
		now:        time.Now,
	}
}

// AddFile buffers an incoming attachment into the user's open session and
// returns the accumulation snapshot. A lapsed session closes on the spot:
// buffered content is discarded, the session cleared, and ErrSessionExpired
// returned so the user learns the session lapsed instead of files being
// silently accepted. Files arriving while a commit runs are refused.
func (s *UploadService) AddFile(ctx context.Context, userID int64, name string, size int64, kind session.MediaKind, content io.Reader) (session.Progress, error) {
	state := s.sessions.Get(userID)
	if state.Kind != session.KindUpload || state.Upload == nil {
		return session.Progress{}, errorz.ErrNoUploadSession
	}
	if state.Upload.Committing {
		return session.Progress{}, errorz.ErrCommitInProgress
	}

	if state.Upload.Expired(s.now()) {
		s.close(userID)
		s.logger.Infof("(user: %d) upload session lapsed, discarding %d buffered files", userID, len(state.Upload.Pending))
		return session.Progress{}, errorz.ErrSessionExpired
	}

	path, err := s.files.Save(userID, name, content)
	if err != nil {
		return session.Progress{}, err
	}

	var progress session.Progress
	errAdd := errorz.ErrNoUploadSession
	s.sessions.Update(userID, func(st *session.State) {
		if st.Kind != session.KindUpload || st.Upload == nil {
			return
		}
		if st.Upload.Committing {
			errAdd = errorz.ErrCommitInProgress
			return
		}
		st.Upload.Add(session.PendingUpload{
			Name:      name,
			Size:      size,
			Kind:      kind,
			LocalPath: path,
		})
		progress = st.Upload.Progress()
		errAdd = nil
	})
	if errAdd != nil {
		return session.Progress{}, errAdd
	}

	s.logger.Infof("(user: %d) buffered %q (%d bytes), %d file(s) pending", userID, name, size, progress.FileCount)
	return progress, nil
}

// Progress returns the current accumulation snapshot of the open session.
func (s *UploadService) Progress(userID int64) (session.Progress, error) {
	err := errorz.ErrNoUploadSession
	var progress session.Progress
	s.sessions.Update(userID, func(st *session.State) {
		if st.Kind != session.KindUpload || st.Upload == nil {
			return
		}
		progress = st.Upload.Progress()
		err = nil
	})
	return progress, err
}

// Commit drains the buffer file-by-file into the session's folder, calling
// onProgress after each committed file. Starting the commit flags the
// session as Committing under the store lock; only the first caller wins,
// a concurrent second Done gets ErrCommitInProgress. The first failing
// file aborts the batch: files already uploaded stay uploaded, there is no
// rollback, the rest of the buffer is abandoned, and the returned
// RemoteError names the failing file. The session and the local buffer are
// reclaimed on every path out of here.
func (s *UploadService) Commit(ctx context.Context, userID int64, onProgress func(session.Progress)) (CommitResult, error) {
	var (
		pending    []session.PendingUpload
		folderID   string
		folderName string
		expired    bool
	)
	errStart := errorz.ErrNoUploadSession
	s.sessions.Update(userID, func(st *session.State) {
		if st.Kind != session.KindUpload || st.Upload == nil {
			return
		}
		if st.Upload.Committing {
			errStart = errorz.ErrCommitInProgress
			return
		}
		if st.Upload.Expired(s.now()) {
			expired = true
			errStart = errorz.ErrSessionExpired
			return
		}
		st.Upload.Committing = true
		pending = append([]session.PendingUpload(nil), st.Upload.Pending...)
		folderID = st.Upload.FolderID
		folderName = st.Upload.FolderName
		errStart = nil
	})
	if errStart != nil {
		if expired {
			s.close(userID)
		}
		return CommitResult{}, errStart
	}

	for _, p := range pending {
		progress, err := s.commitOne(ctx, userID, folderID, p)
		if err != nil {
			s.logger.Errorf("(user: %d) batch commit aborted at %q: %v", userID, p.Name, err)
			s.logCommit(ctx, userID, entity.ActionCommitFailed, folderName, s.committedSoFar(userID))
			s.close(userID)
			return CommitResult{}, err
		}
		if onProgress != nil {
			onProgress(progress)
		}
	}

	result := CommitResult{FolderName: folderName}
	s.sessions.Update(userID, func(st *session.State) {
		if st.Kind != session.KindUpload || st.Upload == nil {
			return
		}
		result.Committed = append([]session.CommittedUpload(nil), st.Upload.Committed...)
		result.Progress = st.Upload.Progress()
	})

	s.logCommit(ctx, userID, entity.ActionFilesCommitted, folderName, result.Committed)
	s.close(userID)
	s.logger.Infof("(user: %d) committed %d file(s) to %q", userID, len(result.Committed), result.FolderName)
	return result, nil
}

// commitOne uploads the head of the pending queue, then moves it onto the
// committed list under the store lock. The remote call itself runs outside
// the lock; the Committing flag keeps the queue from changing underneath.
func (s *UploadService) commitOne(ctx context.Context, userID int64, folderID string, pending session.PendingUpload) (session.Progress, error) {
	content, err := s.files.Open(pending.LocalPath)
	if err != nil {
		return session.Progress{}, &errorz.RemoteError{Name: pending.Name, Err: err}
	}
	defer content.Close()

	id, url, err := s.drive.Upload(ctx, content, pending.Name, folderID)
	if err != nil {
		return session.Progress{}, &errorz.RemoteError{Name: pending.Name, Err: err}
	}

	var progress session.Progress
	s.sessions.Update(userID, func(st *session.State) {
		if st.Kind != session.KindUpload || st.Upload == nil {
			return
		}
		if len(st.Upload.Pending) > 0 {
			st.Upload.Pending = st.Upload.Pending[1:]
		}
		st.Upload.Committed = append(st.Upload.Committed, session.CommittedUpload{
			Name:        pending.Name,
			Size:        pending.Size,
			DriveFileID: id,
			URL:         url,
		})
		progress = st.Upload.Progress()
	})
	return progress, nil
}

// Cancel discards the open session and every buffered file. A session in
// its commit phase cannot be cancelled; the commit finishes on its own.
func (s *UploadService) Cancel(userID int64) error {
	var discarded int
	errCancel := errorz.ErrNoUploadSession
	s.sessions.Update(userID, func(st *session.State) {
		if st.Kind != session.KindUpload || st.Upload == nil {
			return
		}
		if st.Upload.Committing {
			errCancel = errorz.ErrCommitInProgress
			return
		}
		discarded = len(st.Upload.Pending)
		errCancel = nil
	})
	if errCancel != nil {
		return errCancel
	}

	s.close(userID)
	s.logger.Infof("(user: %d) upload session cancelled, %d buffered file(s) discarded", userID, discarded)
	return nil
}

// close clears the session and reclaims the user's local buffer. Every
// closed path, commit success, commit failure, lapse and cancel, comes
// through here.
func (s *UploadService) close(userID int64) {
	s.sessions.Clear(userID)
	if err := s.files.Cleanup(userID); err != nil {
		s.logger.Errorf("(user: %d) failed to reclaim upload buffer: %v", userID, err)
	}
}

func (s *UploadService) committedSoFar(userID int64) []session.CommittedUpload {
	var committed []session.CommittedUpload
	s.sessions.Update(userID, func(st *session.State) {
		if st.Kind != session.KindUpload || st.Upload == nil {
			return
		}
		committed = append([]session.CommittedUpload(nil), st.Upload.Committed...)
	})
	return committed
}

func (s *UploadService) logCommit(ctx context.Context, userID int64, action entity.ActionType, folderName string, committed []session.CommittedUpload) {
	names := make([]string, 0, len(committed))
	for _, f := range committed {
		names = append(names, f.Name)
	}
	_, _ = s.logStorage.Create(ctx, &entity.ActionLog{
		UserID:    userID,
		Action:    action,
		FileNames: pq.StringArray(names),
		Detail:    folderName,
	})
}
