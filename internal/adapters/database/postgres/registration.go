package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vlasover/drive-events-bot/internal/domain/entity"
)

type registrationStorage struct {
	db *gorm.DB
}

func NewRegistrationStorage(db *gorm.DB) *registrationStorage {
	return &registrationStorage{
		db: db,
	}
}

// Create is a function that creates a new registration request in the database.
func (s *registrationStorage) Create(ctx context.Context, request *entity.RegistrationRequest) (*entity.RegistrationRequest, error) {
	err := s.db.WithContext(ctx).Create(&request).Error
	return request, err
}

// Get is a function that gets a registration request from the database by id.
func (s *registrationStorage) Get(ctx context.Context, id uint) (*entity.RegistrationRequest, error) {
	var request entity.RegistrationRequest
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	return &request, err
}

// HasPending reports whether the user already has a pending request.
func (s *registrationStorage) HasPending(ctx context.Context, userID int64) (bool, error) {
	var request entity.RegistrationRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, entity.RequestPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetStatus stamps a decision onto a request.
func (s *registrationStorage) SetStatus(ctx context.Context, id uint, status entity.RequestStatus, processedBy int64) error {
	now := time.Now()
	return s.db.WithContext(ctx).
		Model(&entity.RegistrationRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"processed_by": processedBy,
			"processed_at": now,
		}).Error
}

// CountPending is a function that gets the count of pending requests.
func (s *registrationStorage) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&entity.RegistrationRequest{}).
		Where("status = ?", entity.RequestPending).
		Count(&count).Error
	return count, err
}

// GetPendingWithPagination gets a page of pending registration requests.
func (s *registrationStorage) GetPendingWithPagination(ctx context.Context, offset, limit int) ([]entity.RegistrationRequest, error) {
	var requests []entity.RegistrationRequest
	err := s.db.WithContext(ctx).
		Where("status = ?", entity.RequestPending).
		Order("created_at").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error
	return requests, err
}
