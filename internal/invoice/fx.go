package invoice

import (
	"github.com/smallbiznis/fyxed/internal/invoice/render"
	"github.com/smallbiznis/fyxed/internal/invoice/repository"
	"github.com/smallbiznis/fyxed/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(render.NewPDFRenderer),
	fx.Provide(service.New),
)
