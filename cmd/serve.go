package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JavierABADdelMolino/TASKLY-sub000/config"
	"github.com/JavierABADdelMolino/TASKLY-sub000/database"
	"github.com/JavierABADdelMolino/TASKLY-sub000/handlers"
	"github.com/JavierABADdelMolino/TASKLY-sub000/services"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}

// app owns every long-lived resource of a running server.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	db     *database.DB
	rdb    *redis.Client
	hub    *services.Hub
	server *http.Server
}

func newApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
		log.Warn("using the default JWT secret, set JWT_SECRET before deploying")
	}

	db, err := database.InitDB(cfg.DB.Driver, cfg.DB.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a := &app{cfg: cfg, log: log, db: db}

	avatars, err := services.NewAvatarStore(cfg.Uploads.Dir, cfg.Uploads.AvatarMaxBytes)
	if err != nil {
		a.Close()
		return nil, err
	}

	var limiter services.Limiter
	if cfg.Redis.URL != "" {
		a.rdb, err = services.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		limiter = services.NewRedisLimiter(a.rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window)
		log.Info("rate limiting backed by redis")
	} else {
		limiter = services.NewMemoryLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}

	data := database.NewDataService(db)
	guard := services.NewGuard(data)
	a.hub = services.NewHub(log.Named("hub"))

	authService := services.NewAuthService(
		data,
		cfg.Auth,
		cfg.HTTP.FrontendURL,
		services.NewSMTPMailer(cfg.SMTP, log.Named("mailer")),
		services.NewTokenInfoVerifier(cfg.Auth.GoogleClientID),
		log.Named("auth"),
	)

	router := handlers.NewRouter(handlers.Deps{
		Auth:        authService,
		Users:       services.NewUserService(data, avatars, log.Named("users")),
		Boards:      services.NewBoardService(data, guard, a.hub),
		Columns:     services.NewColumnService(data, guard, a.hub),
		Tasks:       services.NewTaskService(data, guard, a.hub),
		Avatars:     avatars,
		Hub:         a.hub,
		Limiter:     limiter,
		Ping:        db.PingContext,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Log:         log.Named("http"),
	})

	a.server = &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	return a, nil
}

// Run serves until ctx is cancelled, then drains connections.
func (a *app) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.hub.Run(gctx)
	})
	g.Go(func() error {
		a.log.Info("server listening", zap.String("addr", a.server.Addr), zap.String("env", a.cfg.Env))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *app) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn("failed to close database", zap.Error(err))
	}
}
