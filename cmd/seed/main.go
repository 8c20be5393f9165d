// seed creates a superUser and a regular user for local development.
// Idempotent: users whose email already exists are skipped.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"casas-auth/internal/config"
	"casas-auth/internal/db"
	"casas-auth/internal/logger"
	"casas-auth/internal/security"
	userrepo "casas-auth/internal/user/repository"
	"casas-auth/internal/user/seed"
)

func main() {
	password := flag.String("password", "Casas123!", "Password for the seeded users")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer conn.Close()

	accounts := seed.DefaultUsers(*password)
	n, err := seed.Run(context.Background(), userrepo.NewPostgresRepository(conn), security.NewHasher(cfg.BcryptCost), accounts, log)
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Int("created", n).Msg("seed completed")
	for _, s := range accounts {
		fmt.Printf("login: %s / %s\n", s.Email, *password)
	}
}
