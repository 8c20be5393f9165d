// migrate runs DB migrations from embedded SQL; use with go run ./cmd/migrate -direction up|down.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"casas-auth/internal/config"
	"casas-auth/internal/db/migrate"
	"casas-auth/internal/logger"
)

func main() {
	direction := flag.String("direction", migrate.Up, "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	version, err := migrate.Run(cfg.DatabaseURL, *direction)
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Str("direction", *direction).Uint("version", version).Msg("no migrations to apply")
			return
		}
		log.Fatal().Err(err).Str("direction", *direction).Uint("version", version).Msg("migrate failed")
	}
	log.Info().Str("direction", *direction).Uint("version", version).Msg("migrations applied")
}
