package events

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"

	"github.com/vlasover/drive-events-bot/cmd/bot"
	"github.com/vlasover/drive-events-bot/internal/adapters/database/postgres"
	"github.com/vlasover/drive-events-bot/internal/domain/common/errorz"
	"github.com/vlasover/drive-events-bot/internal/domain/service"
	"github.com/vlasover/drive-events-bot/internal/domain/session"
	"github.com/vlasover/drive-events-bot/internal/domain/utils"
	"github.com/vlasover/drive-events-bot/pkg/logger/types"
	"github.com/vlasover/drive-events-bot/pkg/qrcode"
)

const pageSize = 5

type Handler struct {
	bot           *tele.Bot
	layout        *layout.Layout
	logger        *types.Logger
	eventService  *service.EventService
	uploadService *service.UploadService
}

func New(b *bot.Bot) *Handler {
	folderStorage := postgres.NewEventFolderStorage(b.DB)
	logStorage := postgres.NewActionLogStorage(b.DB)

	return &Handler{
		bot:    b.Bot,
		layout: b.Layout,
		logger: b.Logger,
		eventService: service.NewEventService(
			b.Sessions, b.Drive, folderStorage, logStorage, b.Logger, b.SessionTTL,
		),
		uploadService: service.NewUploadService(
			b.Sessions, b.Drive, b.Files, logStorage, b.Logger,
		),
	}
}

// AddEvent opens the event-creation dialogue. A name passed inline
// (/addevent Spring Gala) skips the first question.
func (h *Handler) AddEvent(c tele.Context) error {
	h.eventService.Start(c.Sender().ID)

	if name := strings.TrimSpace(c.Message().Payload); name != "" {
		return h.OnName(c, name)
	}
	return c.Send(h.layout.Text(c, "ask_event_name"))
}

// OnName accepts the event name and offers the date choice.
func (h *Handler) OnName(c tele.Context, name string) error {
	event, err := h.eventService.HandleName(c.Sender().ID, name)
	if err != nil {
		return h.dialogueError(c, err)
	}
	if event == service.EventInvalidName {
		return c.Send(h.layout.Text(c, "invalid_event_name"))
	}
	return c.Send(h.layout.Text(c, "ask_event_date"), h.layout.Markup(c, "dateChoice"))
}

// DateToday creates the folder dated today.
func (h *Handler) DateToday(c tele.Context) error {
	folder, err := h.eventService.CreateToday(context.Background(), c.Sender().ID)
	if err != nil {
		return h.creationError(c, err)
	}
	return h.sendFolderCreated(c, folder.Name, folder.ShareURL)
}

// DateCustom asks for a typed date.
func (h *Handler) DateCustom(c tele.Context) error {
	if err := h.eventService.ChooseCustomDate(c.Sender().ID); err != nil {
		return h.dialogueError(c, err)
	}
	return c.Edit(h.layout.Text(c, "ask_custom_date"))
}

// OnCustomDate parses the typed DD/MM/YYYY date and creates the folder.
func (h *Handler) OnCustomDate(c tele.Context) error {
	folder, event, err := h.eventService.HandleCustomDate(context.Background(), c.Sender().ID, c.Text())
	if err != nil {
		return h.creationError(c, err)
	}
	if event == service.EventInvalidDate {
		return c.Send(h.layout.Text(c, "invalid_event_date"))
	}
	return h.sendFolderCreated(c, folder.Name, folder.ShareURL)
}

// sendFolderCreated announces the new folder, shares the link as a QR code
// and explains the upload session now waiting for files.
func (h *Handler) sendFolderCreated(c tele.Context, name, shareURL string) error {
	if err := c.Send(
		h.layout.Text(c, "folder_created", struct {
			Name     string
			ShareURL string
		}{name, shareURL}),
		h.layout.Markup(c, "uploadActions"),
	); err != nil {
		return err
	}

	png, err := qrcode.Generate(shareURL)
	if err != nil {
		h.logger.Errorf("(user: %d) failed to render share QR for %q: %v", c.Sender().ID, name, err)
		return nil
	}
	photo := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(png)),
		Caption: h.layout.Text(c, "share_qr_caption", name),
	}
	return c.Send(photo)
}

// OnMedia buffers an incoming attachment into the open upload session.
func (h *Handler) OnMedia(c tele.Context) error {
	name, size, kind, file := describeMedia(c.Message())
	if file == nil {
		return c.Send(h.layout.Text(c, "unsupported_media"))
	}

	content, err := h.bot.File(file)
	if err != nil {
		h.logger.Errorf("(user: %d) failed to download %q: %v", c.Sender().ID, name, err)
		return c.Send(h.layout.Text(c, "technical_issues"))
	}
	defer content.Close()

	progress, err := h.uploadService.AddFile(context.Background(), c.Sender().ID, name, size, kind, content)
	switch {
	case errors.Is(err, errorz.ErrSessionExpired):
		return c.Send(h.layout.Text(c, "upload_session_lapsed"))
	case errors.Is(err, errorz.ErrNoUploadSession):
		return c.Send(h.layout.Text(c, "no_upload_session"))
	case errors.Is(err, errorz.ErrCommitInProgress):
		return c.Send(h.layout.Text(c, "commit_in_progress"))
	case err != nil:
		h.logger.Errorf("(user: %d) failed to buffer %q: %v", c.Sender().ID, name, err)
		return c.Send(h.layout.Text(c, "technical_issues"))
	}

	return c.Send(
		h.layout.Text(c, "file_buffered", struct {
			Name  string
			Count int
		}{name, progress.FileCount}),
		h.layout.Markup(c, "uploadActions"),
	)
}

// UploadDone commits the buffered batch, editing the progress bar in place
// after every uploaded file.
func (h *Handler) UploadDone(c tele.Context) error {
	if err := c.Edit(h.layout.Text(c, "upload_committing", utils.ProgressBar(session.Progress{}))); err != nil {
		h.logger.Debugf("(user: %d) could not edit progress message: %v", c.Sender().ID, err)
	}

	result, err := h.uploadService.Commit(context.Background(), c.Sender().ID, func(p session.Progress) {
		_ = c.Edit(h.layout.Text(c, "upload_committing", utils.ProgressBar(p)))
	})

	var remote *errorz.RemoteError
	switch {
	case errors.Is(err, errorz.ErrSessionExpired):
		return c.Edit(h.layout.Text(c, "upload_session_lapsed"))
	case errors.Is(err, errorz.ErrNoUploadSession):
		return c.Respond(&tele.CallbackResponse{Text: h.layout.Text(c, "no_upload_session")})
	case errors.Is(err, errorz.ErrCommitInProgress):
		return c.Respond(&tele.CallbackResponse{Text: h.layout.Text(c, "commit_in_progress")})
	case errors.As(err, &remote):
		return c.Edit(h.layout.Text(c, "commit_failed", remote.Name))
	case err != nil:
		h.logger.Errorf("(user: %d) batch commit failed: %v", c.Sender().ID, err)
		return c.Edit(h.layout.Text(c, "technical_issues"))
	}

	return c.Edit(h.layout.Text(c, "upload_committed", struct {
		Count  int
		Folder string
		Bar    string
	}{len(result.Committed), result.FolderName, utils.ProgressBar(result.Progress)}))
}

// UploadCancel discards the open session and its buffered files.
func (h *Handler) UploadCancel(c tele.Context) error {
	err := h.uploadService.Cancel(c.Sender().ID)
	if errors.Is(err, errorz.ErrNoUploadSession) {
		return c.Respond(&tele.CallbackResponse{Text: h.layout.Text(c, "no_upload_session")})
	}
	if errors.Is(err, errorz.ErrCommitInProgress) {
		return c.Respond(&tele.CallbackResponse{Text: h.layout.Text(c, "commit_in_progress")})
	}
	if err != nil {
		h.logger.Errorf("(user: %d) failed to cancel upload session: %v", c.Sender().ID, err)
		return c.Edit(h.layout.Text(c, "technical_issues"))
	}
	return c.Edit(h.layout.Text(c, "upload_cancelled"))
}

// CancelUpload discards the sender's open upload session outside of the
// inline button flow, for the /cancel command.
func (h *Handler) CancelUpload(userID int64) error {
	return h.uploadService.Cancel(userID)
}

// ListEvents shows created folders newest first, page by page.
func (h *Handler) ListEvents(c tele.Context) error {
	return h.sendEventsPage(c, 1, false)
}

func (h *Handler) EventsPage(c tele.Context) error {
	page, err := strconv.Atoi(c.Callback().Data)
	if err != nil {
		return errorz.ErrInvalidCallbackData
	}
	return h.sendEventsPage(c, page, true)
}

func (h *Handler) sendEventsPage(c tele.Context, pageNumber int, edit bool) error {
	total, err := h.eventService.Count(context.Background())
	if err != nil {
		h.logger.Errorf("(user: %d) error while counting event folders: %v", c.Sender().ID, err)
		return c.Send(h.layout.Text(c, "technical_issues"))
	}
	if total == 0 {
		if edit {
			return c.Edit(h.layout.Text(c, "no_events"))
		}
		return c.Send(h.layout.Text(c, "no_events"))
	}

	page := utils.Paginate(int(total), pageNumber, pageSize)
	folders, err := h.eventService.GetWithPagination(context.Background(), page.Offset, page.Limit)
	if err != nil {
		h.logger.Errorf("(user: %d) error while listing event folders: %v", c.Sender().ID, err)
		return c.Send(h.layout.Text(c, "technical_issues"))
	}

	var lines []string
	for _, folder := range folders {
		lines = append(lines, fmt.Sprintf("%s\n%s", folder.Name, folder.ShareURL))
	}

	markup := c.Bot().NewMarkup()
	var buttons []tele.Btn
	if page.HasPrevious {
		buttons = append(buttons, markup.Data("«", "events_page", strconv.Itoa(page.Number-1)))
	}
	buttons = append(buttons, markup.Data(fmt.Sprintf("%d/%d", page.Number, page.TotalPages), "events_noop"))
	if page.HasNext {
		buttons = append(buttons, markup.Data("»", "events_page", strconv.Itoa(page.Number+1)))
	}
	markup.Inline(markup.Row(buttons...))

	text := h.layout.Text(c, "events_header", struct {
		Page       int
		TotalPages int
	}{page.Number, page.TotalPages}) + "\n\n" + strings.Join(lines, "\n\n")
	if edit {
		return c.Edit(text, markup)
	}
	return c.Send(text, markup)
}

func (h *Handler) dialogueError(c tele.Context, err error) error {
	if errors.Is(err, errorz.ErrInvalidState) {
		return c.Send(h.layout.Text(c, "restart_dialogue"))
	}
	h.logger.Errorf("(user: %d) error in event dialogue: %v", c.Sender().ID, err)
	return c.Send(h.layout.Text(c, "technical_issues"))
}

func (h *Handler) creationError(c tele.Context, err error) error {
	var remote *errorz.RemoteError
	switch {
	case errors.Is(err, errorz.ErrFolderExists):
		return c.Send(h.layout.Text(c, "folder_exists"))
	case errors.Is(err, errorz.ErrInvalidState):
		return c.Send(h.layout.Text(c, "restart_dialogue"))
	case errors.As(err, &remote):
		h.logger.Errorf("(user: %d) drive error while creating %q: %v", c.Sender().ID, remote.Name, err)
		return c.Send(h.layout.Text(c, "drive_unavailable"))
	default:
		h.logger.Errorf("(user: %d) error while creating event folder: %v", c.Sender().ID, err)
		return c.Send(h.layout.Text(c, "technical_issues"))
	}
}

// describeMedia extracts the filename, size, kind and downloadable file
// reference from the supported attachment types. Photos have no filename
// on the wire, so one is derived from the receipt time.
func describeMedia(m *tele.Message) (name string, size int64, kind session.MediaKind, file *tele.File) {
	switch {
	case m.Document != nil:
		name = m.Document.FileName
		if name == "" {
			name = fmt.Sprintf("document_%s", time.Now().Format("20060102_150405"))
		}
		return name, m.Document.FileSize, session.MediaDocument, &m.Document.File
	case m.Photo != nil:
		name = fmt.Sprintf("photo_%s.jpg", time.Now().Format("20060102_150405"))
		return name, m.Photo.FileSize, session.MediaPhoto, &m.Photo.File
	case m.Video != nil:
		name = m.Video.FileName
		if name == "" {
			name = fmt.Sprintf("video_%s.mp4", time.Now().Format("20060102_150405"))
		}
		return name, m.Video.FileSize, session.MediaVideo, &m.Video.File
	case m.Audio != nil:
		name = m.Audio.FileName
		if name == "" {
			name = fmt.Sprintf("audio_%s.mp3", time.Now().Format("20060102_150405"))
		}
		return name, m.Audio.FileSize, session.MediaAudio, &m.Audio.File
	default:
		return "", 0, "", nil
	}
}
