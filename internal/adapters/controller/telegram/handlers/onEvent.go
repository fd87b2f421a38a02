package handlers

import (
	"errors"

	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"

	"github.com/vlasover/drive-events-bot/cmd/bot"
	"github.com/vlasover/drive-events-bot/internal/adapters/controller/telegram/handlers/events"
	"github.com/vlasover/drive-events-bot/internal/adapters/controller/telegram/handlers/registration"
	"github.com/vlasover/drive-events-bot/internal/domain/common/errorz"
	"github.com/vlasover/drive-events-bot/internal/domain/session"
)

// OnEventHandler routes free-form input to whichever dialogue the sender
// has open. Exactly one dialogue per user exists at a time, so the session
// kind decides everything.
type OnEventHandler struct {
	layout       *layout.Layout
	sessions     *session.Store
	registration *registration.Handler
	events       *events.Handler
}

func NewOnEventHandler(b *bot.Bot, registrationHandler *registration.Handler, eventsHandler *events.Handler) *OnEventHandler {
	return &OnEventHandler{
		layout:       b.Layout,
		sessions:     b.Sessions,
		registration: registrationHandler,
		events:       eventsHandler,
	}
}

func (h *OnEventHandler) OnText(c tele.Context) error {
	state := h.sessions.Get(c.Sender().ID)

	switch state.Kind {
	case session.KindRegistration:
		return h.registration.OnText(c)
	case session.KindEventCreation:
		switch state.Event.Step {
		case session.AwaitingName:
			return h.events.OnName(c, c.Text())
		case session.AwaitingDateChoice:
			return c.Send(h.layout.Text(c, "ask_event_date"), h.layout.Markup(c, "dateChoice"))
		case session.AwaitingCustomDate:
			return h.events.OnCustomDate(c)
		default:
			return c.Send(h.layout.Text(c, "unknown_command"))
		}
	case session.KindUpload:
		return c.Send(h.layout.Text(c, "awaiting_files"), h.layout.Markup(c, "uploadActions"))
	default:
		return c.Send(h.layout.Text(c, "unknown_command"))
	}
}

func (h *OnEventHandler) OnMedia(c tele.Context) error {
	state := h.sessions.Get(c.Sender().ID)

	switch state.Kind {
	case session.KindUpload:
		return h.events.OnMedia(c)
	default:
		return c.Send(h.layout.Text(c, "unknown_command"))
	}
}

// Cancel drops whatever dialogue the sender has open. An open upload
// session also reclaims its buffered files.
func (h *OnEventHandler) Cancel(c tele.Context) error {
	state := h.sessions.Get(c.Sender().ID)

	switch state.Kind {
	case session.KindNone:
		return c.Send(h.layout.Text(c, "nothing_to_cancel"))
	case session.KindUpload:
		err := h.events.CancelUpload(c.Sender().ID)
		if errors.Is(err, errorz.ErrCommitInProgress) {
			return c.Send(h.layout.Text(c, "commit_in_progress"))
		}
		if err != nil && !errors.Is(err, errorz.ErrNoUploadSession) {
			return err
		}
		return c.Send(h.layout.Text(c, "upload_cancelled"))
	default:
		h.sessions.Clear(c.Sender().ID)
		return c.Send(h.layout.Text(c, "dialogue_cancelled"))
	}
}
