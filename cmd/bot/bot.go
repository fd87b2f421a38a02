package bot

import (
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"
	"gorm.io/gorm"

	"github.com/vlasover/drive-events-bot/internal/adapters/config"
	"github.com/vlasover/drive-events-bot/internal/adapters/database/redis"
	"github.com/vlasover/drive-events-bot/internal/adapters/storage/gdrive"
	"github.com/vlasover/drive-events-bot/internal/domain/session"
	"github.com/vlasover/drive-events-bot/pkg/logger"
	"github.com/vlasover/drive-events-bot/pkg/logger/types"
	"github.com/vlasover/drive-events-bot/pkg/tempfiles"
)

type Bot struct {
	*tele.Bot
	Layout     *layout.Layout
	DB         *gorm.DB
	Redis      *redis.Client
	Drive      *gdrive.Client
	Sessions   *session.Store
	Files      *tempfiles.Manager
	SMTPDialer *gomail.Dialer
	Logger     *types.Logger
	OwnerID    int64
	SessionTTL time.Duration
}

func New(config *config.Config) (*Bot, error) {
	lt, err := layout.New("telegram.yml")
	if err != nil {
		return nil, err
	}

	settings := lt.Settings()
	botLogger, err := logger.Named("bot")
	if err != nil {
		return nil, err
	}
	settings.OnError = func(err error, ctx tele.Context) {
		if ctx.Callback() == nil {
			botLogger.Errorf("(user: %d) | Error: %v", ctx.Sender().ID, err)
		} else {
			botLogger.Errorf("(user: %d) | unique: %s | Error: %v", ctx.Sender().ID, ctx.Callback().Unique, err)
		}
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		return nil, err
	}

	if cmds := lt.Commands(); cmds != nil {
		if err = b.SetCommands(cmds); err != nil {
			return nil, err
		}
	}

	files, err := tempfiles.NewManager(viper.GetString("settings.upload.buffer-dir-name"))
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		Bot:        b,
		Layout:     lt,
		DB:         config.Database,
		Redis:      config.Redis,
		Drive:      config.Drive,
		Sessions:   session.NewStore(),
		Files:      files,
		SMTPDialer: config.SMTPDialer,
		Logger:     botLogger,
		OwnerID:    config.OwnerID,
		SessionTTL: time.Duration(viper.GetInt("settings.upload.session-minutes")) * time.Minute,
	}

	return bot, nil
}

func (b *Bot) Start() {
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		logger.Log.Info("Bot starting")
		b.Bot.Start()
	}()

	wg.Wait()
}
