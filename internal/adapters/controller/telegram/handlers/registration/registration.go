package registration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"

	"github.com/vlasover/drive-events-bot/cmd/bot"
	"github.com/vlasover/drive-events-bot/internal/adapters/database/postgres"
	"github.com/vlasover/drive-events-bot/internal/adapters/database/redis/callbacks"
	"github.com/vlasover/drive-events-bot/internal/domain/common/errorz"
	"github.com/vlasover/drive-events-bot/internal/domain/entity"
	"github.com/vlasover/drive-events-bot/internal/domain/service"
	"github.com/vlasover/drive-events-bot/internal/domain/utils"
	"github.com/vlasover/drive-events-bot/pkg/logger/types"
	"github.com/vlasover/drive-events-bot/pkg/smtp"
)

const pageSize = 5

type Handler struct {
	bot                 *tele.Bot
	layout              *layout.Layout
	logger              *types.Logger
	callbacksStorage    *callbacks.Storage
	registrationService *service.RegistrationService
}

func New(b *bot.Bot) *Handler {
	userStorage := postgres.NewUserStorage(b.DB)
	requestStorage := postgres.NewRegistrationStorage(b.DB)
	logStorage := postgres.NewActionLogStorage(b.DB)
	mail := smtp.NewClient(b.SMTPDialer)

	return &Handler{
		bot:              b.Bot,
		layout:           b.Layout,
		logger:           b.Logger,
		callbacksStorage: b.Redis.Callbacks,
		registrationService: service.NewRegistrationService(
			b.Sessions, userStorage, requestStorage, mail, logStorage, b.Logger,
		),
	}
}

// Register opens the registration dialogue. Duplicate submissions while a
// request is pending short-circuit without creating a second request.
func (h *Handler) Register(c tele.Context) error {
	err := h.registrationService.Start(context.Background(), c.Sender().ID)
	switch {
	case errors.Is(err, errorz.ErrAlreadyRegistered):
		return c.Send(h.layout.Text(c, "already_registered"))
	case errors.Is(err, errorz.ErrRequestAlreadyPending):
		return c.Send(h.layout.Text(c, "request_already_pending"))
	case err != nil:
		h.logger.Errorf("(user: %d) error while starting registration: %v", c.Sender().ID, err)
		return c.Send(h.layout.Text(c, "technical_issues"))
	}

	return c.Send(h.layout.Text(c, "ask_full_name"))
}

// OnText advances the registration dialogue with a free-text answer.
func (h *Handler) OnText(c tele.Context) error {
	event, err := h.registrationService.HandleText(
		context.Background(), c.Sender().ID, c.Sender().Username, c.Text(),
	)
	switch {
	case errors.Is(err, errorz.ErrRequestAlreadyPending):
		return c.Send(h.layout.Text(c, "request_already_pending"))
	case errors.Is(err, errorz.ErrInvalidState):
		return c.Send(h.layout.Text(c, "restart_dialogue"))
	case err != nil:
		h.logger.Errorf("(user: %d) error in registration dialogue: %v", c.Sender().ID, err)
		return c.Send(h.layout.Text(c, "technical_issues"))
	}

	switch event {
	case service.RegistrationInvalidName:
		return c.Send(h.layout.Text(c, "invalid_full_name"))
	case service.RegistrationAskEmail:
		return c.Send(h.layout.Text(c, "ask_email"))
	case service.RegistrationInvalidEmail:
		return c.Send(h.layout.Text(c, "invalid_email"))
	case service.RegistrationSubmitted:
		return c.Send(h.layout.Text(c, "request_submitted"))
	default:
		return nil
	}
}

// Pending lists pending registration requests with approve/reject buttons.
// Button payloads go through redis: callback data is length-limited, so
// each button carries a token resolving to "approve:<id>" or "reject:<id>".
func (h *Handler) Pending(c tele.Context) error {
	return h.sendPendingPage(c, 1, false)
}

func (h *Handler) PendingPage(c tele.Context) error {
	page, err := strconv.Atoi(c.Callback().Data)
	if err != nil {
		return errorz.ErrInvalidCallbackData
	}
	return h.sendPendingPage(c, page, true)
}

func (h *Handler) sendPendingPage(c tele.Context, pageNumber int, edit bool) error {
	total, err := h.registrationService.CountPending(context.Background())
	if err != nil {
		h.logger.Errorf("(user: %d) error while counting pending requests: %v", c.Sender().ID, err)
		return c.Send(h.layout.Text(c, "technical_issues"))
	}
	if total == 0 {
		if edit {
			return c.Edit(h.layout.Text(c, "no_pending_requests"))
		}
		return c.Send(h.layout.Text(c, "no_pending_requests"))
	}

	page := utils.Paginate(int(total), pageNumber, pageSize)
	requests, err := h.registrationService.PendingWithPagination(context.Background(), page.Offset, page.Limit)
	if err != nil {
		h.logger.Errorf("(user: %d) error while listing pending requests: %v", c.Sender().ID, err)
		return c.Send(h.layout.Text(c, "technical_issues"))
	}

	var rows []tele.Row
	markup := h.bot.NewMarkup()
	for _, request := range requests {
		approveToken, errPut := h.callbacksStorage.Put(fmt.Sprintf("approve:%d", request.ID))
		if errPut != nil {
			return errPut
		}
		rejectToken, errPut := h.callbacksStorage.Put(fmt.Sprintf("reject:%d", request.ID))
		if errPut != nil {
			return errPut
		}

		label := fmt.Sprintf("%s %s | %s", request.FirstName, request.LastName, request.Email)
		rows = append(rows,
			markup.Row(markup.Data(label, "request_info", strconv.Itoa(int(request.ID)))),
			markup.Row(
				markup.Data(h.layout.Text(c, "approve_button"), "approve", approveToken),
				markup.Data(h.layout.Text(c, "reject_button"), "reject", rejectToken),
			),
		)
	}
	rows = append(rows, paginationRow(markup, page.Number, page.TotalPages, page.HasPrevious, page.HasNext))
	markup.Inline(rows...)

	text := h.layout.Text(c, "pending_requests_header", struct {
		Page       int
		TotalPages int
	}{page.Number, page.TotalPages})
	if edit {
		return c.Edit(text, markup)
	}
	return c.Send(text, markup)
}

func paginationRow(markup *tele.ReplyMarkup, page, totalPages int, hasPrev, hasNext bool) tele.Row {
	var buttons []tele.Btn
	if hasPrev {
		buttons = append(buttons, markup.Data("«", "pending_page", strconv.Itoa(page-1)))
	}
	buttons = append(buttons, markup.Data(fmt.Sprintf("%d/%d", page, totalPages), "pending_noop"))
	if hasNext {
		buttons = append(buttons, markup.Data("»", "pending_page", strconv.Itoa(page+1)))
	}
	return markup.Row(buttons...)
}

// Approve resolves the callback token and grants the request.
func (h *Handler) Approve(c tele.Context) error {
	var user *entity.User
	var decided bool
	err := consumeDecisionToken(h.callbacksStorage, "approve", c.Callback().Data, func(requestID uint) error {
		decided = true
		var errApprove error
		user, errApprove = h.registrationService.Approve(context.Background(), requestID, c.Sender().ID)
		return errApprove
	})
	switch {
	case err != nil && !decided:
		return c.Respond(&tele.CallbackResponse{Text: h.layout.Text(c, "stale_button")})
	case errors.Is(err, errorz.ErrInvalidCallbackData):
		return c.Respond(&tele.CallbackResponse{Text: h.layout.Text(c, "request_already_processed")})
	case err != nil:
		h.logger.Errorf("(admin: %d) error while approving request: %v", c.Sender().ID, err)
		return c.Respond(&tele.CallbackResponse{Text: h.layout.Text(c, "technical_issues")})
	}

	_, _ = h.bot.Send(&tele.User{ID: user.ID}, h.layout.Text(c, "registration_approved"))
	return c.Edit(h.layout.Text(c, "request_approved", user.FullName()))
}

// Reject resolves the callback token and declines the request.
func (h *Handler) Reject(c tele.Context) error {
	var request *entity.RegistrationRequest
	var decided bool
	err := consumeDecisionToken(h.callbacksStorage, "reject", c.Callback().Data, func(requestID uint) error {
		decided = true
		var errReject error
		request, errReject = h.registrationService.Reject(context.Background(), requestID, c.Sender().ID)
		return errReject
	})
	switch {
	case err != nil && !decided:
		return c.Respond(&tele.CallbackResponse{Text: h.layout.Text(c, "stale_button")})
	case errors.Is(err, errorz.ErrInvalidCallbackData):
		return c.Respond(&tele.CallbackResponse{Text: h.layout.Text(c, "request_already_processed")})
	case err != nil:
		h.logger.Errorf("(admin: %d) error while rejecting request: %v", c.Sender().ID, err)
		return c.Respond(&tele.CallbackResponse{Text: h.layout.Text(c, "technical_issues")})
	}

	_, _ = h.bot.Send(&tele.User{ID: request.UserID}, h.layout.Text(c, "registration_rejected"))
	return c.Edit(h.layout.Text(c, "request_rejected", request.FirstName+" "+request.LastName))
}

type tokenStore interface {
	Get(token string) (string, error)
	Del(token string)
}

// consumeDecisionToken resolves an action token to its request ID, runs
// the decision, and burns the token only once the request is settled. A
// transient failure in decide keeps the token alive so pressing the
// button again retries instead of hitting a stale button.
func consumeDecisionToken(tokens tokenStore, action, token string, decide func(requestID uint) error) error {
	payload, err := tokens.Get(token)
	if err != nil {
		return err
	}

	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 || parts[0] != action {
		tokens.Del(token)
		return errorz.ErrInvalidCallbackData
	}
	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		tokens.Del(token)
		return errorz.ErrInvalidCallbackData
	}

	err = decide(uint(id))
	if err == nil || errors.Is(err, errorz.ErrInvalidCallbackData) {
		tokens.Del(token)
	}
	return err
}
