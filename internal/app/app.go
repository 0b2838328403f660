// Package app assembles the service from its configuration and owns its lifecycle.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq" // Postgres driver
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/FilipeAphrody/sentinel-authcore/internal/config"
	delivery "github.com/FilipeAphrody/sentinel-authcore/internal/delivery/http"
	"github.com/FilipeAphrody/sentinel-authcore/internal/domain"
	"github.com/FilipeAphrody/sentinel-authcore/internal/mailer"
	"github.com/FilipeAphrody/sentinel-authcore/internal/repository"
	"github.com/FilipeAphrody/sentinel-authcore/internal/usecase"
	"github.com/FilipeAphrody/sentinel-authcore/pkg/security"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 15 * time.Second
)

// App is a configured server with its backends connected.
type App struct {
	cfg     config.Config
	logger  zerolog.Logger
	echo    *echo.Echo
	closers []func(context.Context) error
}

// New connects the configured backends and builds the HTTP server.
// Anything opened before a failure is closed again.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	if err := a.build(ctx); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	return a, nil
}

func (a *App) build(ctx context.Context) error {
	// 1. Persistence
	hasher := security.NewHasher(security.HashParams{
		Memory:      a.cfg.Hash.MemoryKiB,
		Iterations:  a.cfg.Hash.Iterations,
		Parallelism: a.cfg.Hash.Parallelism,
		SaltLength:  security.DefaultParams.SaltLength,
		KeyLength:   security.DefaultParams.KeyLength,
	}, a.cfg.Hash.Workers)

	users, err := a.userStore(ctx, hasher)
	if err != nil {
		return err
	}

	bannedTokens, codes, err := a.cacheStores(ctx)
	if err != nil {
		return err
	}

	emailClient, err := a.emailClient()
	if err != nil {
		return err
	}

	// 2. Business logic
	authUsecase := usecase.NewAuthUsecase(
		users,
		bannedTokens,
		codes,
		emailClient,
		security.NewTokenService(a.cfg.JWTSecret, a.cfg.TokenTTL),
		a.logger,
	)

	// 3. HTTP
	a.echo = a.newEcho(authUsecase)

	return nil
}

func (a *App) userStore(ctx context.Context, hasher *security.Hasher) (domain.UserStore, error) {
	switch a.cfg.UserStore {
	case config.StorePostgres:
		db, err := sql.Open("postgres", a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })

		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if err := repository.RunMigrations(ctx, db); err != nil {
			return nil, err
		}

		a.logger.Info().Msg("using postgres user store")
		return repository.NewPostgresUserStore(db, hasher), nil

	case config.StoreMongo:
		client, err := mongo.Connect(options.Client().ApplyURI(a.cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("failed to open MongoDB: %w", err)
		}
		a.closers = append(a.closers, client.Disconnect)

		if err := client.Ping(ctx, nil); err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}

		a.logger.Info().Msg("using mongo user store")
		return repository.NewMongoUserStore(ctx, client.Database(a.cfg.MongoDatabase), hasher)

	default:
		a.logger.Warn().Msg("using in-memory user store, accounts are lost on restart")
		return repository.NewMemoryUserStore(), nil
	}
}

func (a *App) cacheStores(ctx context.Context) (domain.BannedTokenStore, domain.TwoFACodeStore, error) {
	if a.cfg.CacheStore != config.StoreRedis {
		return repository.NewMemoryBannedTokenStore(), repository.NewMemoryTwoFACodeStore(a.cfg.CodeTTL), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	a.logger.Info().Msg("using redis token and 2FA stores")
	// A revoked token only needs to stay banned until it would have expired anyway.
	return repository.NewRedisBannedTokenStore(rdb, a.cfg.TokenTTL), repository.NewRedisTwoFACodeStore(rdb, a.cfg.CodeTTL), nil
}

func (a *App) emailClient() (domain.EmailClient, error) {
	if a.cfg.Mailer == config.MailerSMTP {
		return mailer.NewSMTPClient(a.cfg.SMTP)
	}
	return mailer.NewLogClient(a.logger), nil
}

func (a *App) newEcho(u *usecase.AuthUsecase) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = delivery.NewRequestValidator()

	// Global middlewares
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: a.cfg.CORSAllowedOrigins,
		// Browsers refuse credentials with a wildcard origin.
		AllowCredentials: !slices.Contains(a.cfg.CORSAllowedOrigins, "*"),
	}))
	e.Use(middleware.Secure())
	e.Use(delivery.RequestLogger(a.logger))

	v1 := e.Group("/v1")
	delivery.NewAuthHandler(v1, u, a.logger, a.cfg.CookieSecure)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"status":  "healthy",
			"version": version,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	return e
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.echo
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("port", a.cfg.Port).Msg("starting sentinel auth server")
		if err := a.echo.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

// Close releases backend connections in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
