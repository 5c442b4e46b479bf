package commission

import (
	"github.com/smallbiznis/fyxed/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.engine",
	fx.Provide(service.New),
)
