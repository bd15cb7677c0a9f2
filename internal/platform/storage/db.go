package storage

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"melodix-server-go/internal/platform/errors"
)

// Open connects to the sqlite database and runs migrations.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.open", "failed to open database", err)
	}
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.migrate", "failed to migrate schema", err)
	}
	return db, nil
}
