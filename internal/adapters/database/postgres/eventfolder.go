package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/vlasover/drive-events-bot/internal/domain/entity"
)

type eventFolderStorage struct {
	db *gorm.DB
}

func NewEventFolderStorage(db *gorm.DB) *eventFolderStorage {
	return &eventFolderStorage{
		db: db,
	}
}

// Create is a function that creates a new event folder record in the database.
func (s *eventFolderStorage) Create(ctx context.Context, folder *entity.EventFolder) (*entity.EventFolder, error) {
	err := s.db.WithContext(ctx).Create(&folder).Error
	return folder, err
}

// Count is a function that gets the count of event folders.
func (s *eventFolderStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entity.EventFolder{}).Count(&count).Error
	return count, err
}

// GetWithPagination gets a page of event folders, newest first.
func (s *eventFolderStorage) GetWithPagination(ctx context.Context, offset, limit int) ([]entity.EventFolder, error) {
	var folders []entity.EventFolder
	err := s.db.WithContext(ctx).
		Order("event_date desc").
		Offset(offset).
		Limit(limit).
		Find(&folders).Error
	return folders, err
}
