package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vlasover/drive-events-bot/internal/adapters/database/redis/callbacks"
)

type Client struct {
	Callbacks *callbacks.Storage
}

type Options struct {
	Host     string
	Port     string
	Password string
}

func New(opts Options) (*Client, error) {
	callbackStorage := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       0,
	})
	if err := callbackStorage.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping callback storage: %w", err)
	}

	return &Client{
		Callbacks: callbacks.NewStorage(callbackStorage),
	}, nil
}
