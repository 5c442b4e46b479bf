package actor

import (
	"github.com/smallbiznis/fyxed/internal/actor/repository"
	"github.com/smallbiznis/fyxed/internal/actor/service"
	"go.uber.org/fx"
)

var Module = fx.Module("actor.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
