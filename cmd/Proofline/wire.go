//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"Proofline/internal/biz"
	"Proofline/internal/conf"
	"Proofline/internal/data"
	"Proofline/internal/observability"
	"Proofline/internal/server"
	"Proofline/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.Health, *conf.Admin, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		observability.NewDBMetrics,
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		server.ProviderSet,
		newApp,
	))
}
