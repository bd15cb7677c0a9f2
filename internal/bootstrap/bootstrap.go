// Package bootstrap owns the service lifecycle: configuration, logging, the
// shared cache, the user store, the credential core and the HTTP server,
// initialised as ordered steps with graceful shutdown.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	domainauth "melodix-server-go/internal/domain/auth"
	authstore "melodix-server-go/internal/domain/auth/store"
	"melodix-server-go/internal/domain/eventbus"
	platformcache "melodix-server-go/internal/platform/cache"
	platformconfig "melodix-server-go/internal/platform/config"
	platformerrors "melodix-server-go/internal/platform/errors"
	platformlogging "melodix-server-go/internal/platform/logging"
	platformnotify "melodix-server-go/internal/platform/notify"
	platformstorage "melodix-server-go/internal/platform/storage"
	httptransport "melodix-server-go/internal/transport/http"
	httpwebapi "melodix-server-go/internal/transport/http/webapi"
)

const shutdownTimeout = 10 * time.Second

type appState struct {
	config      *platformconfig.Config
	logger      *platformlogging.Logger
	redisClient *redis.Client
	db          *gorm.DB
	userStore   authstore.Store
	bus         eventbus.Bus
	authService *domainauth.Service
	sessions    *domainauth.SessionRegistry
	router      *httptransport.Router
}

type initStep struct {
	ID      string
	Title   string
	Kind    platformerrors.Kind
	Execute func(context.Context, *appState) error
}

func initSteps() []initStep {
	return []initStep{
		{
			ID:    "config",
			Title: "load configuration",
			Kind:  platformerrors.KindConfig,
			Execute: func(_ context.Context, state *appState) error {
				cfg, err := platformconfig.NewLoader(configPath()).Load()
				if err != nil {
					return err
				}
				state.config = cfg
				return nil
			},
		},
		{
			ID:    "logging",
			Title: "initialise logging",
			Kind:  platformerrors.KindBootstrap,
			Execute: func(_ context.Context, state *appState) error {
				logger, err := platformlogging.New(platformlogging.Config{
					Level:    state.config.Log.Level,
					Dir:      state.config.Log.Dir,
					Filename: state.config.Log.File,
				})
				if err != nil {
					return err
				}
				state.logger = logger
				return nil
			},
		},
		{
			ID:    "cache",
			Title: "connect shared cache",
			Kind:  platformerrors.KindCache,
			Execute: func(ctx context.Context, state *appState) error {
				client, err := platformcache.Connect(ctx, platformcache.Config{
					Addr:     state.config.Redis.Addr,
					Username: state.config.Redis.Username,
					Password: state.config.Redis.Password,
					DB:       state.config.Redis.DB,
				})
				if err != nil {
					return err
				}
				state.redisClient = client
				return nil
			},
		},
		{
			ID:    "storage",
			Title: "open user store",
			Kind:  platformerrors.KindStorage,
			Execute: func(_ context.Context, state *appState) error {
				db, err := platformstorage.Open(state.config.Database.DSN)
				if err != nil {
					return err
				}
				state.db = db

				userStore, err := authstore.New(
					authstore.Config{Driver: state.config.Database.Driver},
					authstore.Dependencies{DB: db},
				)
				if err != nil {
					return err
				}
				state.userStore = userStore
				return nil
			},
		},
		{
			ID:    "domain",
			Title: "assemble credential core",
			Kind:  platformerrors.KindBootstrap,
			Execute: func(_ context.Context, state *appState) error {
				return buildAuthService(state)
			},
		},
		{
			ID:    "transport",
			Title: "build HTTP transport",
			Kind:  platformerrors.KindTransport,
			Execute: func(_ context.Context, state *appState) error {
				router, err := httptransport.Build(httptransport.Options{
					LogLevel: state.config.Log.Level,
					Logger:   state.logger,
					AuthMiddleware: httptransport.AuthMiddleware(
						state.authService,
						state.sessions,
						state.logger,
					),
				})
				if err != nil {
					return err
				}
				httpwebapi.NewService(state.authService, state.logger).
					RegisterRoutes(router.API, router.Secured)
				state.router = router
				return nil
			},
		},
	}
}

func buildAuthService(state *appState) error {
	cfg := state.config.Auth
	logger := state.logger

	tokens, err := domainauth.NewTokenService(cfg.Secret, cfg.AccessTokenTTL, cfg.ResetTokenTTL)
	if err != nil {
		return err
	}

	sessions := domainauth.NewSessionRegistry(state.redisClient, cfg.SessionTTL, logger)
	revocations := domainauth.NewRevocationRegistry(state.redisClient, cfg.BlacklistRetention, logger)
	attempts := domainauth.NewAttemptGuard(
		state.redisClient,
		cfg.LockoutThreshold,
		cfg.LockoutDuration,
		cfg.AttemptWindow,
		logger,
	)
	userCache := domainauth.NewUserCache(state.redisClient, cfg.UserCacheTTL, logger)

	bus := eventbus.New()
	notifier := platformnotify.NewEmailNotifier(platformnotify.Config{
		Enabled:  state.config.Mail.Enabled,
		Host:     state.config.Mail.Host,
		Port:     state.config.Mail.Port,
		Username: state.config.Mail.Username,
		Password: state.config.Mail.Password,
		From:     state.config.Mail.From,
		ResetURL: state.config.Mail.ResetURL,
	}, logger)
	if err := notifier.Register(bus); err != nil {
		return err
	}

	service, err := domainauth.NewService(domainauth.Options{
		Store:       state.userStore,
		Tokens:      tokens,
		Sessions:    sessions,
		Revocations: revocations,
		Attempts:    attempts,
		UserCache:   userCache,
		Hasher:      domainauth.NewPasswordHasher(cfg.BcryptCost),
		Bus:         bus,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	state.bus = bus
	state.sessions = sessions
	state.authService = service
	return nil
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}

// Run starts the whole service lifecycle and blocks until shutdown.
func Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state := &appState{}
	for _, step := range initSteps() {
		if err := step.Execute(ctx, state); err != nil {
			return platformerrors.Wrap(step.Kind, "bootstrap."+step.ID, step.Title+" failed", err)
		}
		if state.logger != nil {
			state.logger.Debug("bootstrap step completed: %s", step.ID)
		}
	}
	defer closeResources(state)

	addr := fmt.Sprintf("%s:%d", state.config.Server.IP, state.config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: state.router.Engine,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		state.logger.Info("http server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		state.logger.Info("shutting down http server")
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "bootstrap.serve", "http server failed", err)
	}
	return nil
}

func closeResources(state *appState) {
	if state.userStore != nil {
		_ = state.userStore.Close(context.Background())
	}
	if state.redisClient != nil {
		_ = state.redisClient.Close()
	}
	if state.logger != nil {
		_ = state.logger.Close()
	}
}
