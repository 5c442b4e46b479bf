package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/actor"
	"github.com/smallbiznis/fyxed/internal/analytics"
	"github.com/smallbiznis/fyxed/internal/audit"
	"github.com/smallbiznis/fyxed/internal/auth"
	"github.com/smallbiznis/fyxed/internal/authorization"
	"github.com/smallbiznis/fyxed/internal/callbilling"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/commission"
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/credit"
	"github.com/smallbiznis/fyxed/internal/earnings"
	"github.com/smallbiznis/fyxed/internal/invoice"
	"github.com/smallbiznis/fyxed/internal/migration"
	"github.com/smallbiznis/fyxed/internal/observability"
	"github.com/smallbiznis/fyxed/internal/payment"
	"github.com/smallbiznis/fyxed/internal/payout"
	"github.com/smallbiznis/fyxed/internal/pipeline"
	"github.com/smallbiznis/fyxed/internal/ratelimit"
	"github.com/smallbiznis/fyxed/internal/sale"
	"github.com/smallbiznis/fyxed/internal/server"
	"github.com/smallbiznis/fyxed/internal/sharesettings"
	"github.com/smallbiznis/fyxed/pkg/db"
	"go.uber.org/fx"
)

// The API process serves HTTP only; run apps/scheduler next to it for
// background call billing.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		ratelimit.Module,

		audit.Module,
		authorization.Module,
		actor.Module,
		auth.Module,
		sharesettings.Module,
		commission.Module,
		sale.Module,
		pipeline.Module,
		analytics.Module,
		earnings.Module,
		payout.Module,
		invoice.Module,
		credit.Module,
		callbilling.Module,
		payment.Module,

		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
