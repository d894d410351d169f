package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/imagehub/imagehub_server/internal"
	"github.com/imagehub/imagehub_server/internal/batch"
	"github.com/imagehub/imagehub_server/internal/health"
	"github.com/imagehub/imagehub_server/internal/images"
	"github.com/imagehub/imagehub_server/internal/storage"
	"github.com/imagehub/imagehub_server/internal/transform"
	"github.com/imagehub/imagehub_server/internal/transform/native"
	"github.com/imagehub/imagehub_server/internal/transform/vips"
)

const version = "1.0.0"

func main() {
	config, err := internal.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
		return
	}

	switch config.LogLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	registry, err := storage.BuildRegistry(config.Storages)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building storage registry")
		return
	}
	log.Info().Strs("backends", registry.Names()).Msg("Storage backends registered")

	var engine transform.Engine
	switch config.Engine {
	case "vips":
		vipsEngine := vips.NewEngine()
		defer vipsEngine.Shutdown()
		engine = vipsEngine
	default:
		engine = native.NewEngine()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	progressStore, err := batch.NewRedisStore(ctx, config.Progress)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to progress store")
		return
	}
	defer progressStore.Close()

	orchestrator := images.NewOrchestrator(registry, engine)
	runner := batch.NewRunner(registry, orchestrator, progressStore, config.Batch.Workers)

	imageEndpoints := images.NewEndpoints(orchestrator, config.Server.RequestTimeout)
	batchEndpoints := batch.NewEndpoints(runner, progressStore)
	storageEndpoints := storage.NewEndpoints(registry)
	healthEndpoints := health.NewEndpoints(version, config.Engine, registry.Names())

	requestHandler := internal.NewRequestHandler(config, imageEndpoints, batchEndpoints, storageEndpoints, healthEndpoints)

	log.Info().Str("address", config.Server.Address).Msg("Starting server")
	if err := fasthttp.ListenAndServe(config.Server.Address, requestHandler); err != nil {
		log.Fatal().Err(err).Msg("Error starting server")
	}
}
