// Package callbacks stores short-lived tokens behind inline keyboard
// buttons. Telegram caps callback data at 64 bytes, so buttons carry a
// token and the payload lives here until the button is pressed or the
// token expires.
package callbacks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vlasover/drive-events-bot/internal/domain/common/errorz"
)

const tokenTTL = 24 * time.Hour

type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

// Put stores a payload and returns the token to embed in callback data.
func (s *Storage) Put(payload string) (string, error) {
	token := uuid.New().String()
	err := s.redis.Set(context.Background(), token, payload, tokenTTL).Err()
	if err != nil {
		return "", err
	}
	return token, nil
}

// Get resolves a token back to its payload.
func (s *Storage) Get(token string) (string, error) {
	payload, err := s.redis.Get(context.Background(), token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errorz.ErrInvalidCallbackData
		}
		return "", err
	}
	return payload, nil
}

// Del drops a consumed token.
func (s *Storage) Del(token string) {
	s.redis.Del(context.Background(), token)
}
