//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/astro-clock/internal/bootstrap"
	"github.com/yanqian/astro-clock/internal/domain/access"
	"github.com/yanqian/astro-clock/internal/domain/reading"
	"github.com/yanqian/astro-clock/internal/infra/config"
	"github.com/yanqian/astro-clock/internal/infra/llm/chatgpt"
	"github.com/yanqian/astro-clock/internal/infra/solar/sunrisesunset"
	httpiface "github.com/yanqian/astro-clock/internal/interface/http"
	"github.com/yanqian/astro-clock/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideReadingConfig,
		provideReadingTemplates,
		provideAccessConfig,
		provideChatGPTClient,
		provideSolarClient,
		provideGeoCache,
		provideTokenCounter,
		reading.NewService,
		access.NewService,
		wire.Bind(new(reading.ChatClient), new(*chatgpt.Client)),
		wire.Bind(new(reading.SolarClient), new(*sunrisesunset.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
