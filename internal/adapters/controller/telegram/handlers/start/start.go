package start

import (
	"context"
	"errors"

	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"
	"gorm.io/gorm"

	"github.com/vlasover/drive-events-bot/cmd/bot"
	"github.com/vlasover/drive-events-bot/internal/adapters/database/postgres"
	"github.com/vlasover/drive-events-bot/internal/domain/entity"
	"github.com/vlasover/drive-events-bot/internal/domain/service"
	"github.com/vlasover/drive-events-bot/pkg/logger/types"
)

type startUserService interface {
	Get(ctx context.Context, userID int64) (*entity.User, error)
}

type Handler struct {
	layout      *layout.Layout
	logger      *types.Logger
	userService startUserService
}

func New(b *bot.Bot) *Handler {
	userStorage := postgres.NewUserStorage(b.DB)
	logStorage := postgres.NewActionLogStorage(b.DB)

	return &Handler{
		layout:      b.Layout,
		logger:      b.Logger,
		userService: service.NewUserService(userStorage, logStorage),
	}
}

func (h *Handler) Start(c tele.Context) error {
	h.logger.Infof("(user: %d) /start", c.Sender().ID)

	user, err := h.userService.Get(context.Background(), c.Sender().ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.logger.Errorf("(user: %d) error while getting user from db: %v", c.Sender().ID, err)
			return c.Send(h.layout.Text(c, "technical_issues"))
		}
		return c.Send(h.layout.Text(c, "start_unregistered"))
	}

	if user.Registered() {
		return c.Send(h.layout.Text(c, "start_registered", user.FirstName))
	}
	return c.Send(h.layout.Text(c, "start_unregistered"))
}

func (h *Handler) Help(c tele.Context) error {
	user, err := h.userService.Get(context.Background(), c.Sender().ID)
	role := entity.Pending
	if err == nil {
		role = user.Role
	}

	switch {
	case entity.HasPermission(role, entity.CapManageAdmins):
		return c.Send(h.layout.Text(c, "help_owner"))
	case entity.HasPermission(role, entity.CapApproveRegistrations):
		return c.Send(h.layout.Text(c, "help_admin"))
	case entity.HasPermission(role, entity.CapManageEvents):
		return c.Send(h.layout.Text(c, "help_manager"))
	case entity.HasPermission(role, entity.CapViewEvents):
		return c.Send(h.layout.Text(c, "help_member"))
	default:
		return c.Send(h.layout.Text(c, "help_unregistered"))
	}
}

func (h *Handler) MyID(c tele.Context) error {
	return c.Send(h.layout.Text(c, "my_id", c.Sender().ID))
}
