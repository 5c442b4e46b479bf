package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	auditdomain "github.com/smallbiznis/fyxed/internal/audit/domain"
	callbillingdomain "github.com/smallbiznis/fyxed/internal/callbilling/domain"
	"github.com/smallbiznis/fyxed/internal/config"
	creditdomain "github.com/smallbiznis/fyxed/internal/credit/domain"
	invoicedomain "github.com/smallbiznis/fyxed/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/fyxed/internal/payment/domain"
	payoutdomain "github.com/smallbiznis/fyxed/internal/payout/domain"
	pipelinedomain "github.com/smallbiznis/fyxed/internal/pipeline/domain"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
	sharesettingsdomain "github.com/smallbiznis/fyxed/internal/sharesettings/domain"
	"gorm.io/gorm"
)

// Models lists every persisted type. The embedded postgres migrations create
// the same tables.
func Models() []any {
	return []any{
		&actordomain.Actor{},
		&sharesettingsdomain.ShareSettings{},
		&saledomain.Sale{},
		&pipelinedomain.Company{},
		&pipelinedomain.PhaseHistory{},
		&pipelinedomain.Activity{},
		&payoutdomain.Payout{},
		&invoicedomain.Invoice{},
		&creditdomain.Balance{},
		&creditdomain.Transaction{},
		&callbillingdomain.Call{},
		&paymentdomain.EventRecord{},
		&auditdomain.AuditLog{},
	}
}

// Migrate brings the schema up to date. Postgres uses the versioned SQL
// migrations; sqlite and mysql fall back to gorm's AutoMigrate.
func Migrate(conn *gorm.DB, cfg config.Config) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	if !strings.EqualFold(cfg.DBType, "postgres") || cfg.DBAutoMigrate {
		return AutoMigrate(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}
