package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	postgresStorage "github.com/vlasover/drive-events-bot/internal/adapters/database/postgres"
	"github.com/vlasover/drive-events-bot/internal/adapters/database/redis"
	"github.com/vlasover/drive-events-bot/internal/adapters/storage/gdrive"
	"github.com/vlasover/drive-events-bot/internal/domain/service"
	"github.com/vlasover/drive-events-bot/pkg/logger"
)

type Config struct {
	Database   *gorm.DB
	Redis      *redis.Client
	Drive      *gdrive.Client
	SMTPDialer *gomail.Dialer
	OwnerID    int64
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}

	viper.SetDefault("settings.upload.session-minutes", 60)
	viper.SetDefault("settings.upload.page-size", 5)
	viper.SetDefault("settings.upload.buffer-dir-name", "drive-events-bot")

	if err := os.Setenv("BOT_TOKEN", viper.GetString("bot.token")); err != nil {
		panic(err)
	}
}

func Get() *Config {
	initConfig()

	location, err := time.LoadLocation(viper.GetString("settings.timezone"))
	if err != nil {
		panic(fmt.Errorf("invalid timezone: %w", err))
	}

	err = logger.Init(logger.Config{
		Debug:        viper.GetBool("settings.debug"),
		TimeLocation: location,
		LogToFile:    viper.GetBool("settings.log-to-file"),
		LogsDir:      viper.GetString("settings.logs-dir"),
	})
	if err != nil {
		panic(err)
	}

	var gormConfig *gorm.Config
	if viper.GetBool("settings.debug") {
		newLogger := gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold: time.Second,
				LogLevel:      gormLogger.Info,
				Colorful:      true,
			},
		)
		gormConfig = &gorm.Config{
			Logger: newLogger,
		}
	} else {
		gormConfig = &gorm.Config{}
	}

	dsn := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%d sslmode=disable",
		viper.GetString("service.database.user"),
		viper.GetString("service.database.password"),
		viper.GetString("service.database.name"),
		viper.GetString("service.database.host"),
		viper.GetInt("service.database.port"),
	)

	database, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		logger.Log.Panicf("Failed to connect to the database: %v", err)
	} else {
		logger.Log.Info("Successfully connected to the database")
	}

	if errMigrate := database.AutoMigrate(postgresStorage.Migrations...); errMigrate != nil {
		logger.Log.Panicf("Failed to migrate database: %v", errMigrate)
	}

	ownerID := viper.GetInt64("bot.owner-id")
	if ownerID == 0 {
		logger.Log.Panic("bot.owner-id is not configured")
	}
	seedOwner(database, ownerID)

	redisClient, err := redis.New(redis.Options{
		Host:     viper.GetString("service.redis.host"),
		Port:     viper.GetString("service.redis.port"),
		Password: viper.GetString("service.redis.password"),
	})
	if err != nil {
		logger.Log.Panicf("Failed to connect to redis: %v", err)
	} else {
		logger.Log.Info("Successfully connected to redis")
	}

	driveLogger, err := logger.Named("drive")
	if err != nil {
		logger.Log.Panicf("Failed to create drive logger: %v", err)
	}
	driveClient, err := gdrive.New(context.Background(), gdrive.Options{
		CredentialsFile: viper.GetString("service.drive.credentials-file"),
		RootFolderID:    viper.GetString("service.drive.root-folder-id"),
		Logger:          driveLogger,
	})
	if err != nil {
		logger.Log.Panicf("Failed to create drive client: %v", err)
	} else {
		logger.Log.Info("Successfully connected to the drive workspace")
	}

	dialer := gomail.NewDialer(
		viper.GetString("service.smtp.host"),
		viper.GetInt("service.smtp.port"),
		viper.GetString("service.smtp.email"),
		viper.GetString("service.smtp.password"),
	)

	return &Config{
		Database:   database,
		Redis:      redisClient,
		Drive:      driveClient,
		SMTPDialer: dialer,
		OwnerID:    ownerID,
	}
}

// seedOwner makes sure the deployment's single owner account exists and is
// approved, demoting any account the owner role was repointed away from.
// The owner is fixed here and immutable through every runtime flow.
func seedOwner(database *gorm.DB, ownerID int64) {
	userStorage := postgresStorage.NewUserStorage(database)
	logStorage := postgresStorage.NewActionLogStorage(database)
	users := service.NewUserService(userStorage, logStorage)

	if err := users.EnsureOwner(context.Background(), ownerID); err != nil {
		logger.Log.Panicf("Failed to seed the owner account: %v", err)
	}
	logger.Log.Infof("Owner account %d seeded", ownerID)
}
