package middlewares

import (
	"context"
	"errors"
	"sync"

	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"
	"gorm.io/gorm"

	"github.com/vlasover/drive-events-bot/cmd/bot"
	"github.com/vlasover/drive-events-bot/internal/adapters/database/postgres"
	"github.com/vlasover/drive-events-bot/internal/domain/entity"
	"github.com/vlasover/drive-events-bot/internal/domain/service"
	"github.com/vlasover/drive-events-bot/pkg/logger/types"
)

type userService interface {
	Get(ctx context.Context, userID int64) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) (*entity.User, error)
}

type Handler struct {
	bot         *tele.Bot
	layout      *layout.Layout
	logger      *types.Logger
	auth        *service.AuthService
	userService userService
	senderLocks *sync.Map
}

func New(b *bot.Bot) *Handler {
	userStorage := postgres.NewUserStorage(b.DB)
	logStorage := postgres.NewActionLogStorage(b.DB)

	return &Handler{
		bot:         b.Bot,
		layout:      b.Layout,
		logger:      b.Logger,
		auth:        service.NewAuthService(userStorage, b.Logger),
		userService: service.NewUserService(userStorage, logStorage),
		senderLocks: &sync.Map{},
	}
}

// Sequenced serializes updates per sender. Telebot runs every handler in
// its own goroutine, so without this a user tapping Done twice, or
// cancelling while a commit runs, would race two handlers over the same
// session. Updates from different users still run in parallel.
func (h Handler) Sequenced(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return next(c)
		}
		lock, _ := h.senderLocks.LoadOrStore(sender.ID, &sync.Mutex{})
		mu := lock.(*sync.Mutex)
		mu.Lock()
		defer mu.Unlock()
		return next(c)
	}
}

// RequireCapability gates a handler behind the permission table. The role
// is resolved fresh on every update, so promotions and demotions take
// effect on the user's next message.
func (h Handler) RequireCapability(capability entity.Capability) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			decision := h.auth.Authorize(context.Background(), c.Sender().ID, capability)
			if !decision.Allowed {
				if c.Callback() != nil {
					return c.Respond(&tele.CallbackResponse{
						Text: h.layout.Text(c, "access_denied", decision.Reason),
					})
				}
				return c.Send(h.layout.Text(c, "access_denied", decision.Reason))
			}
			return next(c)
		}
	}
}

// SyncProfile keeps the directory's username column in step with Telegram.
func (h Handler) SyncProfile(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		user, err := h.userService.Get(context.Background(), c.Sender().ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				h.logger.Errorf("(user: %d) error while getting user from db: %v", c.Sender().ID, err)
			}
			return next(c)
		}

		if c.Sender().Username != user.Username {
			h.logger.Infof("(user: %d) update username", c.Sender().ID)
			user.Username = c.Sender().Username
			if _, err = h.userService.Update(context.Background(), user); err != nil {
				h.logger.Errorf("(user: %d) error while updating username: %v", c.Sender().ID, err)
			}
		}

		return next(c)
	}
}
