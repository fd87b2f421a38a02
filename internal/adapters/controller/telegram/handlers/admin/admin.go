package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"
	"gorm.io/gorm"

	"github.com/vlasover/drive-events-bot/cmd/bot"
	"github.com/vlasover/drive-events-bot/internal/adapters/database/postgres"
	"github.com/vlasover/drive-events-bot/internal/domain/common/errorz"
	"github.com/vlasover/drive-events-bot/internal/domain/entity"
	"github.com/vlasover/drive-events-bot/internal/domain/service"
	"github.com/vlasover/drive-events-bot/internal/domain/utils"
	"github.com/vlasover/drive-events-bot/pkg/logger/types"
)

const pageSize = 5

type Handler struct {
	layout      *layout.Layout
	logger      *types.Logger
	userService *service.UserService
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

// AddAdmin promotes a member to admin. Accepts a user ID argument or a
// reply to a message from the target user.
func (h *Handler) AddAdmin(c tele.Context) error {
	return h.setRole(c, entity.Admin, "admin_granted")
}

// RemoveAdmin demotes an admin back to member.
func (h *Handler) RemoveAdmin(c tele.Context) error {
	return h.setRole(c, entity.Member, "admin_revoked")
}

// AddManager promotes a member to manager.
func (h *Handler) AddManager(c tele.Context) error {
	return h.setRole(c, entity.Manager, "manager_granted")
}

func (h *Handler) setRole(c tele.Context, role entity.Role, successKey string) error {
	targetID, err := h.targetID(c)
	if err != nil {
		return c.Send(h.layout.Text(c, "usage_user_id"))
	}

	user, err := h.userService.SetRole(context.Background(), targetID, role, c.Sender().ID)
	switch {
	case errors.Is(err, errorz.ErrOwnerImmutable):
		return c.Send(h.layout.Text(c, "owner_untouchable"))
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Send(h.layout.Text(c, "user_not_found"))
	case err != nil:
		h.logger.Errorf("(admin: %d) error while changing role of %d: %v", c.Sender().ID, targetID, err)
		return c.Send(h.layout.Text(c, "technical_issues"))
	}

	return c.Send(h.layout.Text(c, successKey, user.FullName()))
}

// RemoveMember deletes a user from the directory.
func (h *Handler) RemoveMember(c tele.Context) error {
	targetID, err := h.targetID(c)
	if err != nil {
		return c.Send(h.layout.Text(c, "usage_user_id"))
	}

	err = h.userService.Remove(context.Background(), targetID, c.Sender().ID)
	switch {
	case errors.Is(err, errorz.ErrOwnerImmutable):
		return c.Send(h.layout.Text(c, "owner_untouchable"))
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Send(h.layout.Text(c, "user_not_found"))
	case err != nil:
		h.logger.Errorf("(admin: %d) error while removing user %d: %v", c.Sender().ID, targetID, err)
		return c.Send(h.layout.Text(c, "technical_issues"))
	}

	return c.Send(h.layout.Text(c, "member_removed", targetID))
}

// ListAdmins shows admins page by page.
func (h *Handler) ListAdmins(c tele.Context) error {
	return h.sendRolePage(c, entity.Admin, "admins_header", "admins_page", 1, false)
}

func (h *Handler) AdminsPage(c tele.Context) error {
	page, err := strconv.Atoi(c.Callback().Data)
	if err != nil {
		return errorz.ErrInvalidCallbackData
	}
	return h.sendRolePage(c, entity.Admin, "admins_header", "admins_page", page, true)
}

// ListMembers shows members page by page.
func (h *Handler) ListMembers(c tele.Context) error {
	return h.sendRolePage(c, entity.Member, "members_header", "members_page", 1, false)
}

func (h *Handler) MembersPage(c tele.Context) error {
	page, err := strconv.Atoi(c.Callback().Data)
	if err != nil {
		return errorz.ErrInvalidCallbackData
	}
	return h.sendRolePage(c, entity.Member, "members_header", "members_page", page, true)
}

func (h *Handler) sendRolePage(c tele.Context, role entity.Role, headerKey, pageUnique string, pageNumber int, edit bool) error {
	total, err := h.userService.CountByRole(context.Background(), role)
	if err != nil {
		h.logger.Errorf("(user: %d) error while counting %s users: %v", c.Sender().ID, role, err)
		return c.Send(h.layout.Text(c, "technical_issues"))
	}
	if total == 0 {
		if edit {
			return c.Edit(h.layout.Text(c, "no_users_with_role"))
		}
		return c.Send(h.layout.Text(c, "no_users_with_role"))
	}

	page := utils.Paginate(int(total), pageNumber, pageSize)
	users, err := h.userService.GetByRoleWithPagination(context.Background(), role, page.Offset, page.Limit)
	if err != nil {
		h.logger.Errorf("(user: %d) error while listing %s users: %v", c.Sender().ID, role, err)
		return c.Send(h.layout.Text(c, "technical_issues"))
	}

	var lines []string
	for _, user := range users {
		line := fmt.Sprintf("%s (id %d)", user.FullName(), user.ID)
		if user.Username != "" {
			line = fmt.Sprintf("%s (@%s, id %d)", user.FullName(), user.Username, user.ID)
		}
		lines = append(lines, line)
	}

	markup := c.Bot().NewMarkup()
	markup.Inline(paginationRow(markup, pageUnique, page.Number, page.TotalPages, page.HasPrevious, page.HasNext))

	text := h.layout.Text(c, headerKey, struct {
		Page       int
		TotalPages int
	}{page.Number, page.TotalPages}) + "\n\n" + strings.Join(lines, "\n")
	if edit {
		return c.Edit(text, markup)
	}
	return c.Send(text, markup)
}

func paginationRow(markup *tele.ReplyMarkup, unique string, page, totalPages int, hasPrev, hasNext bool) tele.Row {
	var buttons []tele.Btn
	if hasPrev {
		buttons = append(buttons, markup.Data("«", unique, strconv.Itoa(page-1)))
	}
	buttons = append(buttons, markup.Data(fmt.Sprintf("%d/%d", page, totalPages), "list_noop"))
	if hasNext {
		buttons = append(buttons, markup.Data("»", unique, strconv.Itoa(page+1)))
	}
	return markup.Row(buttons...)
}

func (h *Handler) targetID(c tele.Context) (int64, error) {
	if reply := c.Message().ReplyTo; reply != nil && reply.Sender != nil {
		return reply.Sender.ID, nil
	}
	args := c.Args()
	if len(args) == 0 {
		return 0, fmt.Errorf("no target given")
	}
	return strconv.ParseInt(args[0], 10, 64)
}
