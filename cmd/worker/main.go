// worker runs the revocation sweeper against Postgres until SIGINT or SIGTERM.
// Pass -once to run a single sweep and exit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casas-auth/internal/config"
	"casas-auth/internal/db"
	"casas-auth/internal/logger"
	revocationrepo "casas-auth/internal/revocation/repository"
	"casas-auth/internal/revocation/sweeper"
	telemetryotel "casas-auth/internal/telemetry/otel"
)

func main() {
	once := flag.Bool("once", false, "Run one sweep and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.DatabaseURL == "" {
		log.Fatal().Err(errors.New("DATABASE_URL is not set")).Msg("worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, telemetryotel.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		log.Fatal().Err(err).Msg("otel")
	}
	providers.SetGlobal()
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = providers.Shutdown(shCtx)
	}()
	metrics, err := telemetryotel.NewMetrics(providers.MeterProvider.Meter(telemetryotel.ServiceName))
	if err != nil {
		log.Fatal().Err(err).Msg("metrics")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer conn.Close()

	hour, minute := cfg.DailySweepClock()
	s := sweeper.New(revocationrepo.NewPostgresRepository(conn), log, sweeper.Options{
		Interval:    cfg.FrequentSweepInterval(),
		DailyHour:   hour,
		DailyMinute: minute,
		Metrics:     metrics,
	})

	if *once {
		if _, err := s.Sweep(ctx, sweeper.PassFrequent); err != nil {
			log.Error().Err(err).Msg("sweep failed")
			os.Exit(1)
		}
		return
	}
	s.Run(ctx)
}
