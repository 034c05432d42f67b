//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/moodmirror/moodmirror/internal/bootstrap"
	"github.com/moodmirror/moodmirror/internal/domain/mood"
	"github.com/moodmirror/moodmirror/internal/infra/config"
	httpiface "github.com/moodmirror/moodmirror/internal/interface/http"
	"github.com/moodmirror/moodmirror/pkg/logger"
	"github.com/moodmirror/moodmirror/pkg/metrics"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewFeedCounters,
		bootstrap.ProvideMoodConfig,
		bootstrap.ProvideGenerator,
		bootstrap.ProvideFeedStore,
		mood.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
