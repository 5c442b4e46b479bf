package payment

import (
	"github.com/smallbiznis/fyxed/internal/payment/repository"
	"github.com/smallbiznis/fyxed/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(webhook.NewService),
)
