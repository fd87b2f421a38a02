package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vlasover/drive-events-bot/internal/domain/entity"
	"github.com/vlasover/drive-events-bot/pkg/logger/types"
)

func testLogger() *types.Logger {
	return &types.Logger{SugaredLogger: zap.NewNop().Sugar(), Name: "test"}
}

type fakeUserStorage struct {
	users map[int64]*entity.User
}

func newFakeUserStorage() *fakeUserStorage {
	return &fakeUserStorage{users: make(map[int64]*entity.User)}
}

func (f *fakeUserStorage) Create(_ context.Context, user *entity.User) (*entity.User, error) {
	copied := *user
	f.users[user.ID] = &copied
	return user, nil
}

func (f *fakeUserStorage) Get(_ context.Context, id int64) (*entity.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStorage) Update(_ context.Context, user *entity.User) (*entity.User, error) {
	copied := *user
	f.users[user.ID] = &copied
	return user, nil
}

func (f *fakeUserStorage) Delete(_ context.Context, id int64) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserStorage) CountByRole(_ context.Context, role entity.Role) (int64, error) {
	var count int64
	for _, u := range f.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

func (f *fakeUserStorage) GetByRoleWithPagination(_ context.Context, role entity.Role, offset, limit int) ([]entity.User, error) {
	var users []entity.User
	for _, u := range f.users {
		if u.Role == role {
			users = append(users, *u)
		}
	}
	if offset >= len(users) {
		return nil, nil
	}
	end := offset + limit
	if end > len(users) {
		end = len(users)
	}
	return users[offset:end], nil
}

type erroringUserStorage struct{}

func (erroringUserStorage) Get(context.Context, int64) (*entity.User, error) {
	return nil, errors.New("directory unavailable")
}

type fakeRequestStorage struct {
	nextID   uint
	requests map[uint]*entity.RegistrationRequest
}

func newFakeRequestStorage() *fakeRequestStorage {
	return &fakeRequestStorage{nextID: 1, requests: make(map[uint]*entity.RegistrationRequest)}
}

func (f *fakeRequestStorage) Create(_ context.Context, request *entity.RegistrationRequest) (*entity.RegistrationRequest, error) {
	request.ID = f.nextID
	f.nextID++
	copied := *request
	f.requests[request.ID] = &copied
	return request, nil
}

func (f *fakeRequestStorage) Get(_ context.Context, id uint) (*entity.RegistrationRequest, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *request
	return &copied, nil
}

func (f *fakeRequestStorage) HasPending(_ context.Context, userID int64) (bool, error) {
	for _, r := range f.requests {
		if r.UserID == userID && r.Status == entity.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestStorage) SetStatus(_ context.Context, id uint, status entity.RequestStatus, processedBy int64) error {
	request, ok := f.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	request.Status = status
	request.ProcessedBy = &processedBy
	request.ProcessedAt = &now
	return nil
}

func (f *fakeRequestStorage) CountPending(_ context.Context) (int64, error) {
	var count int64
	for _, r := range f.requests {
		if r.Status == entity.RequestPending {
			count++
		}
	}
	return count, nil
}

func (f *fakeRequestStorage) GetPendingWithPagination(_ context.Context, offset, limit int) ([]entity.RegistrationRequest, error) {
	var requests []entity.RegistrationRequest
	for _, r := range f.requests {
		if r.Status == entity.RequestPending {
			requests = append(requests, *r)
		}
	}
	if offset >= len(requests) {
		return nil, nil
	}
	end := offset + limit
	if end > len(requests) {
		end = len(requests)
	}
	return requests[offset:end], nil
}

type fakeFolderStorage struct {
	folders []entity.EventFolder
}

func (f *fakeFolderStorage) Create(_ context.Context, folder *entity.EventFolder) (*entity.EventFolder, error) {
	f.folders = append(f.folders, *folder)
	return folder, nil
}

func (f *fakeFolderStorage) Count(context.Context) (int64, error) {
	return int64(len(f.folders)), nil
}

func (f *fakeFolderStorage) GetWithPagination(_ context.Context, offset, limit int) ([]entity.EventFolder, error) {
	if offset >= len(f.folders) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.folders) {
		end = len(f.folders)
	}
	return f.folders[offset:end], nil
}

type fakeLogStorage struct {
	entries []entity.ActionLog
}

func (f *fakeLogStorage) Create(_ context.Context, log *entity.ActionLog) (*entity.ActionLog, error) {
	f.entries = append(f.entries, *log)
	return log, nil
}

type fakeMail struct {
	sent []string
}

func (f *fakeMail) SendWelcomeEmail(to string, _ string) {
	f.sent = append(f.sent, to)
}

// fakeDrive records calls and can be told to fail on specific names.
// When entered and gate are set, Upload announces each call on entered
// and waits for gate before proceeding, letting a test hold a commit
// in flight.
type fakeDrive struct {
	folders  map[string]string // name -> id
	uploads  map[string][]string
	failOn   map[string]bool
	uploaded int
	entered  chan string
	gate     chan struct{}
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		folders: make(map[string]string),
		uploads: make(map[string][]string),
		failOn:  make(map[string]bool),
	}
}

func (f *fakeDrive) FolderExists(_ context.Context, name string) (bool, error) {
	_, ok := f.folders[name]
	return ok, nil
}

func (f *fakeDrive) CreateFolder(_ context.Context, name string) (string, error) {
	id := fmt.Sprintf("folder-%d", len(f.folders)+1)
	f.folders[name] = id
	return id, nil
}

func (f *fakeDrive) SetPublicWriter(_ context.Context, folderID string) (string, error) {
	return "https://drive.example.com/" + folderID, nil
}

func (f *fakeDrive) Upload(_ context.Context, content io.Reader, name string, folderID string) (string, string, error) {
	if f.entered != nil {
		f.entered <- name
		<-f.gate
	}
	if f.failOn[name] {
		return "", "", errors.New("quota exceeded")
	}
	_, _ = io.Copy(io.Discard, content)
	f.uploaded++
	f.uploads[folderID] = append(f.uploads[folderID], name)
	return fmt.Sprintf("file-%d", f.uploaded), "https://drive.example.com/file", nil
}

// fakeBuffer keeps "files" in memory, keyed by synthetic paths.
type fakeBuffer struct {
	nextID  int
	content map[string]string // path -> content
	byUser  map[int64][]string
}

func newFakeBuffer() *fakeBuffer {
	return &fakeBuffer{
		content: make(map[string]string),
		byUser:  make(map[int64][]string),
	}
}

func (f *fakeBuffer) Save(userID int64, name string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	f.nextID++
	path := fmt.Sprintf("/buf/%d/%d-%s", userID, f.nextID, name)
	f.content[path] = string(data)
	f.byUser[userID] = append(f.byUser[userID], path)
	return path, nil
}

func (f *fakeBuffer) Open(path string) (io.ReadCloser, error) {
	data, ok := f.content[path]
	if !ok {
		return nil, errors.New("buffered file missing")
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (f *fakeBuffer) Cleanup(userID int64) error {
	for _, path := range f.byUser[userID] {
		delete(f.content, path)
	}
	delete(f.byUser, userID)
	return nil
}

func (f *fakeBuffer) stored(userID int64) int {
	return len(f.byUser[userID])
}
