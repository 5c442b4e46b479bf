package sharesettings

import (
	"github.com/smallbiznis/fyxed/internal/sharesettings/repository"
	"github.com/smallbiznis/fyxed/internal/sharesettings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sharesettings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
