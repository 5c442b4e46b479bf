package callbilling

import (
	"github.com/smallbiznis/fyxed/internal/callbilling/client"
	"github.com/smallbiznis/fyxed/internal/callbilling/repository"
	"github.com/smallbiznis/fyxed/internal/callbilling/service"
	"go.uber.org/fx"
)

var Module = fx.Module("callbilling.service",
	fx.Provide(repository.Provide),
	fx.Provide(client.New),
	fx.Provide(service.New),
)
