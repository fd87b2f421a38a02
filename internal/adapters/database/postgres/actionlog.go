package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/vlasover/drive-events-bot/internal/domain/entity"
)

type actionLogStorage struct {
	db *gorm.DB
}

func NewActionLogStorage(db *gorm.DB) *actionLogStorage {
	return &actionLogStorage{
		db: db,
	}
}

// Create is a function that appends an action log row.
func (s *actionLogStorage) Create(ctx context.Context, log *entity.ActionLog) (*entity.ActionLog, error) {
	err := s.db.WithContext(ctx).Create(&log).Error
	return log, err
}

// GetWithPagination gets a page of action log rows, newest first.
func (s *actionLogStorage) GetWithPagination(ctx context.Context, offset, limit int) ([]entity.ActionLog, error) {
	var logs []entity.ActionLog
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
