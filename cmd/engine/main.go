package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thejerf/suture/v4"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/cloud"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/config"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/database"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/hass"
	httpHandlers "github.com/ANIKETSHETTY47/employee-presence-engine/internal/http"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/logging"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/mirror"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/repository"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/service"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/store"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logging.Init(config.LogLevel(), config.LogFormat())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ep := config.ResolveEndpoint()
	api := hass.New(ep.URL, ep.Token, config.HTTPTimeout())
	client := hass.NewBreakerClient(api, hass.BreakerSettings{OpenTimeout: config.BreakerOpenTimeout()})
	log.Info().Str("url", ep.URL).Msg("home assistant endpoint")

	people := store.NewConfigStore(config.PeoplePath(), config.GroupsPath())
	history := store.NewHistoryFile(config.HistoryPath())

	sup := suture.New("employee-presence", suture.Spec{
		EventHook: func(e suture.Event) {
			log.Warn().Str("event", e.String()).Msg("supervisor")
		},
		Timeout: 10 * time.Second,
	})

	var opts []service.Option
	var ledger *repository.Ledger
	if config.LedgerEnabled() {
		db, err := database.Connect(config.DatabaseDSN())
		if err != nil {
			log.Fatal().Err(err).Msg("db connect failed")
		}
		defer db.Close()
		ledger = repository.New(db)
		if err := ledger.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("ledger schema")
		}
		opts = append(opts, service.WithLedger(ledger))
	}
	if config.MQTTEnabled() {
		m := mirror.NewMQTT(config.MQTTBroker(), config.MQTTClientID(), config.MQTTTopicPrefix())
		sup.Add(m)
		opts = append(opts, service.WithMirror(m))
	}
	if config.UseCloudServices() {
		archive, err := cloud.NewReportArchive(ctx, config.AWSRegion(), config.S3Bucket())
		if err != nil {
			log.Error().Err(err).Msg("s3 archive disabled")
		} else {
			opts = append(opts, service.WithArchive(archive))
		}
	}

	cfg := config.Engine()
	engine, err := service.New(cfg, client, people, store.NewCounterFile(config.StatusPath()), history, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("engine init failed")
	}
	sup.Add(service.NewScheduler(engine, api, cfg.Interval))

	deps := httpHandlers.Deps{Status: engine, History: history, Breaker: client.State}
	if ledger != nil {
		deps.Ledger = ledger
	}
	sup.Add(httpHandlers.NewServer(config.APIAddr(), deps))

	if err := sup.Serve(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("supervisor exit")
	}
	log.Info().Msg("shutdown complete")
}
