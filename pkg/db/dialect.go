package db

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/fyxed/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var ErrUnsupportedDialect = errors.New("unsupported database type")

// Dialect builds the gorm dialector for cfg.DBType. Every connection runs in
// UTC so month boundaries for payouts and earnings agree across drivers.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.DBType)) {
	case "postgres", "postgresql":
		return postgres.Open(PostgresDSN(cfg)), nil
	case "mysql":
		return mysql.Open(MySQLDSN(cfg)), nil
	case "sqlite":
		return sqlite.Open(SQLiteDSN(cfg.DBPath)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, cfg.DBType)
	}
}

func PostgresDSN(cfg config.Config) string {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
		cfg.DBSSLMode,
	)
	if name := strings.TrimSpace(cfg.AppName); name != "" && !strings.ContainsAny(name, " '") {
		dsn += " application_name=" + name
	}
	return dsn
}

func MySQLDSN(cfg config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
	)
}

// SQLiteDSN turns a file path into a DSN with foreign keys on and a busy
// timeout, so the scheduler and API can share one database file.
func SQLiteDSN(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "fyxed.db"
	}
	if strings.Contains(path, "?") {
		return path
	}
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	return path + "?" + params.Encode()
}
