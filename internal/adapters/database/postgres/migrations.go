package postgres

import "github.com/vlasover/drive-events-bot/internal/domain/entity"

// Migrations is a list of all gorm migrations for the database.
var Migrations = []interface{}{
	&entity.User{},
	&entity.RegistrationRequest{},
	&entity.EventFolder{},
	&entity.ActionLog{},
}
