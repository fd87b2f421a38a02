package setup

import (
	"github.com/spf13/viper"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"

	"github.com/vlasover/drive-events-bot/cmd/bot"
	"github.com/vlasover/drive-events-bot/internal/adapters/controller/telegram/handlers"
	"github.com/vlasover/drive-events-bot/internal/adapters/controller/telegram/handlers/admin"
	"github.com/vlasover/drive-events-bot/internal/adapters/controller/telegram/handlers/events"
	"github.com/vlasover/drive-events-bot/internal/adapters/controller/telegram/handlers/middlewares"
	"github.com/vlasover/drive-events-bot/internal/adapters/controller/telegram/handlers/registration"
	"github.com/vlasover/drive-events-bot/internal/adapters/controller/telegram/handlers/start"
	"github.com/vlasover/drive-events-bot/internal/domain/entity"
)

func Setup(b *bot.Bot) {
	// Pre-setup and global middlewares
	middle := middlewares.New(b)
	startHandler := start.New(b)
	registrationHandler := registration.New(b)
	adminHandler := admin.New(b)
	eventsHandler := events.New(b)
	onEventHandler := handlers.NewOnEventHandler(b, registrationHandler, eventsHandler)

	if viper.GetBool("settings.debug") {
		b.Use(middleware.Logger())
	}
	b.Use(b.Layout.Middleware("en"))
	b.Use(middleware.AutoRespond())
	b.Use(middle.Sequenced)
	b.Use(middle.SyncProfile)

	// Setup handlers
	// Open to everyone:
	b.Handle("/start", startHandler.Start)
	b.Handle("/help", startHandler.Help)
	b.Handle("/myid", startHandler.MyID)
	b.Handle("/register", registrationHandler.Register)
	b.Handle("/cancel", onEventHandler.Cancel)

	// Registration review:
	b.Handle("/pending", registrationHandler.Pending, middle.RequireCapability(entity.CapApproveRegistrations))
	b.Handle(&tele.Btn{Unique: "pending_page"}, registrationHandler.PendingPage, middle.RequireCapability(entity.CapApproveRegistrations))
	b.Handle(&tele.Btn{Unique: "approve"}, registrationHandler.Approve, middle.RequireCapability(entity.CapApproveRegistrations))
	b.Handle(&tele.Btn{Unique: "reject"}, registrationHandler.Reject, middle.RequireCapability(entity.CapApproveRegistrations))

	// Role management:
	b.Handle("/addadmin", adminHandler.AddAdmin, middle.RequireCapability(entity.CapManageAdmins))
	b.Handle("/removeadmin", adminHandler.RemoveAdmin, middle.RequireCapability(entity.CapManageAdmins))
	b.Handle("/addmanager", adminHandler.AddManager, middle.RequireCapability(entity.CapManageManagers))
	b.Handle("/listadmins", adminHandler.ListAdmins, middle.RequireCapability(entity.CapManageAdmins))
	b.Handle(&tele.Btn{Unique: "admins_page"}, adminHandler.AdminsPage, middle.RequireCapability(entity.CapManageAdmins))
	b.Handle("/listmembers", adminHandler.ListMembers, middle.RequireCapability(entity.CapManageMembers))
	b.Handle(&tele.Btn{Unique: "members_page"}, adminHandler.MembersPage, middle.RequireCapability(entity.CapManageMembers))
	b.Handle("/removemember", adminHandler.RemoveMember, middle.RequireCapability(entity.CapManageMembers))

	// Events and uploads:
	b.Handle("/addevent", eventsHandler.AddEvent, middle.RequireCapability(entity.CapManageEvents))
	b.Handle("/neweventfolder", eventsHandler.AddEvent, middle.RequireCapability(entity.CapManageEvents))
	b.Handle(b.Layout.Callback("dateChoice:today"), eventsHandler.DateToday, middle.RequireCapability(entity.CapManageEvents))
	b.Handle(b.Layout.Callback("dateChoice:custom"), eventsHandler.DateCustom, middle.RequireCapability(entity.CapManageEvents))
	b.Handle(b.Layout.Callback("uploadActions:done"), eventsHandler.UploadDone, middle.RequireCapability(entity.CapManageEvents))
	b.Handle(b.Layout.Callback("uploadActions:cancel"), eventsHandler.UploadCancel, middle.RequireCapability(entity.CapManageEvents))
	b.Handle("/listevents", eventsHandler.ListEvents, middle.RequireCapability(entity.CapViewEvents))
	b.Handle(&tele.Btn{Unique: "events_page"}, eventsHandler.EventsPage, middle.RequireCapability(entity.CapViewEvents))

	// Free-form input goes to whichever dialogue is open:
	b.Handle(tele.OnText, onEventHandler.OnText)
	b.Handle(tele.OnMedia, onEventHandler.OnMedia, middle.RequireCapability(entity.CapManageEvents))
}
