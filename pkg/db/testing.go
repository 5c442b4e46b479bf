package db

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTest opens an isolated in-memory SQLite database and migrates models into it.
// A single connection keeps the memory database alive for the lifetime of the handle,
// so callers running inside a transaction must use the transaction handle.
func NewTest(models ...any) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", ulid.Make().String())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if len(models) > 0 {
		if err := conn.AutoMigrate(models...); err != nil {
			return nil, err
		}
	}
	return conn, nil
}
