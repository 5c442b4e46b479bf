package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/audit"
	"github.com/smallbiznis/fyxed/internal/callbilling"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/credit"
	"github.com/smallbiznis/fyxed/internal/migration"
	"github.com/smallbiznis/fyxed/internal/observability"
	"github.com/smallbiznis/fyxed/internal/ratelimit"
	"github.com/smallbiznis/fyxed/internal/scheduler"
	"github.com/smallbiznis/fyxed/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		ratelimit.Module,

		// Domain services required by scheduler
		audit.Module,
		credit.Module,
		callbilling.Module,
		migration.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
