// server runs the auth HTTP API (gin) and the gRPC server until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/health"

	"casas-auth/internal/config"
	"casas-auth/internal/db"
	healthhandler "casas-auth/internal/health/handler"
	identityhandler "casas-auth/internal/identity/handler"
	identityrepo "casas-auth/internal/identity/repository"
	"casas-auth/internal/identity/service"
	"casas-auth/internal/logger"
	"casas-auth/internal/revocation/cache"
	revocationrepo "casas-auth/internal/revocation/repository"
	"casas-auth/internal/security"
	"casas-auth/internal/server"
	"casas-auth/internal/telemetry"
	telemetryotel "casas-auth/internal/telemetry/otel"
	"casas-auth/internal/telemetry/producer"
	"casas-auth/internal/user/policy"
	userrepo "casas-auth/internal/user/repository"
	userservice "casas-auth/internal/user/service"
)

const (
	shutdownTimeout     = 15 * time.Second
	healthWatchInterval = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	secret, err := security.LoadSecret(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("JWT_SECRET: %w", err)
	}
	tokens, err := security.NewTokenProvider(secret, cfg.TokenTTL(), cfg.Leeway())
	if err != nil {
		return fmt.Errorf("token provider: %w", err)
	}

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, telemetryotel.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shCtx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()
	metrics, err := telemetryotel.NewMetrics(providers.MeterProvider.Meter(telemetryotel.ServiceName))
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	var revocations service.RevocationChecker = revocationrepo.NewPostgresRepository(conn)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		revocations = cache.NewCachedChecker(rdb, revocations, logger.Component(log, "revocation_cache"))
		log.Info().Str("addr", cfg.RedisAddr).Msg("revocation cache enabled")
	}

	emitters := []telemetry.EventEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	if kp := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuthEventsTopic); kp != nil {
		defer kp.Close()
		emitters = append(emitters, kp)
		log.Info().Str("topic", cfg.AuthEventsTopic).Msg("auth events published to kafka")
	}
	events := telemetry.Multi(emitters...)

	authSvc := service.NewAuthService(
		users,
		revocations,
		identityrepo.NewPostgresRecorder(conn),
		security.NewHasher(cfg.BcryptCost),
		tokens,
		service.Options{
			StoreTimeout: cfg.StoreCallTimeout(),
			Log:          log,
			Metrics:      metrics,
			Events:       events,
		},
	)
	evaluator, err := policy.NewEvaluator(ctx)
	if err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	userSvc := userservice.NewUserService(users, evaluator, log, events)

	checker := healthhandler.NewChecker(conn, evaluator)
	if rdb != nil {
		checker.WithOptional("revocation_cache", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := server.NewHTTPRouter(cfg.TrustedProxiesList(), log)
	if err != nil {
		return err
	}
	router.GET("/health", checker.HTTP())
	identityhandler.NewHandler(authSvc, userSvc, log).Register(router)
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	grpcHealth := health.NewServer()
	go checker.Watch(ctx, grpcHealth, healthWatchInterval, logger.Component(log, "health"))
	grpcSrv := server.NewGRPCServer(server.Deps{Validator: authSvc, Health: grpcHealth, Log: log})
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down...")
	case serveErr = <-errCh:
		log.Error().Err(serveErr).Msg("server failed, shutting down")
	}

	grpcHealth.Shutdown()
	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	grpcSrv.GracefulStop()

	// Let fire-and-forget auth events finish before the emitters close.
	time.Sleep(telemetry.ShutdownDrainDuration)
	log.Info().Msg("stopped")
	return serveErr
}
