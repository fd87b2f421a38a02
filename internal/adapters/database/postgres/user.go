package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/vlasover/drive-events-bot/internal/domain/entity"
)

type userStorage struct {
	db *gorm.DB
}

func NewUserStorage(db *gorm.DB) *userStorage {
	return &userStorage{
		db: db,
	}
}

// Create is a function that creates a new user in the database.
func (s *userStorage) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	err := s.db.WithContext(ctx).Create(&user).Error
	return user, err
}

// Get is a function that gets a user from the database by id.
func (s *userStorage) Get(ctx context.Context, id int64) (*entity.User, error) {
	var user entity.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return &user, err
}

// Update is a function that updates a user in the database.
func (s *userStorage) Update(ctx context.Context, user *entity.User) (*entity.User, error) {
	err := s.db.WithContext(ctx).Save(&user).Error
	return user, err
}

// Delete removes a user from the database.
func (s *userStorage) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Delete(&entity.User{}, "id = ?", id).Error
}

// CountByRole is a function that gets the count of users with a role.
func (s *userStorage) CountByRole(ctx context.Context, role entity.Role) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entity.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// GetByRoleWithPagination gets a page of users holding a role.
func (s *userStorage) GetByRoleWithPagination(ctx context.Context, role entity.Role, offset, limit int) ([]entity.User, error) {
	var users []entity.User
	err := s.db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	return users, err
}
