package migration

import (
	"context"

	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Cfg      config.Config
	Log      *zap.Logger
	ActorSvc actordomain.Service `optional:"true"`
}

var Module = fx.Module("migrations",
	fx.Invoke(func(p Params) error {
		if err := Migrate(p.DB, p.Cfg); err != nil {
			return err
		}
		if p.ActorSvc == nil {
			return nil
		}
		return seed.EnsureBootstrapAdmin(context.Background(), p.ActorSvc, p.Cfg, p.Log)
	}),
)
