package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iliyamo/devvibe-backend/internal/ai"
	"github.com/iliyamo/devvibe-backend/internal/apperr"
	"github.com/iliyamo/devvibe-backend/internal/config"
	"github.com/iliyamo/devvibe-backend/internal/database"
	"github.com/iliyamo/devvibe-backend/internal/handler"
	"github.com/iliyamo/devvibe-backend/internal/logging"
	"github.com/iliyamo/devvibe-backend/internal/mail"
	"github.com/iliyamo/devvibe-backend/internal/middleware"
	"github.com/iliyamo/devvibe-backend/internal/observability"
	"github.com/iliyamo/devvibe-backend/internal/queue"
	"github.com/iliyamo/devvibe-backend/internal/repository"
	"github.com/iliyamo/devvibe-backend/internal/router"
	"github.com/iliyamo/devvibe-backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP API.  Configuration comes from the environment
(and the --env-file dotenv file).  With MAIL_TRANSPORT=queue the process
also runs the mail queue consumer.`,
		RunE: runServe,
	}
}

// deps are the collaborators the HTTP stack is built from.
type deps struct {
	users     service.UserStore
	mailer    mail.Mailer
	completer ai.Completer
	rdb       *redis.Client
	metrics   *observability.Metrics
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := deps{metrics: observability.NewMetrics()}

	switch cfg.UserStore {
	case config.StoreMemory:
		log.Warn("using in-memory user store; accounts are lost on restart")
		d.users = repository.NewMemoryUserRepo()
	default:
		db, err := database.Open(ctx, cfg.DB)
		if err != nil {
			return oops.Code("DB_CONNECT_FAILED").With("host", cfg.DB.Host).Wrap(err)
		}
		defer func() { _ = db.Close() }()
		d.users = repository.NewUserRepo(db)
	}

	d.rdb = config.NewRedisClient(ctx)
	if d.rdb == nil {
		log.Warn("redis unavailable; rate limiting and answer cache disabled")
	} else {
		defer func() { _ = d.rdb.Close() }()
	}

	smtp := mail.NewSMTPMailer(cfg.Mail)
	d.mailer = smtp
	if cfg.Mail.Transport == config.MailQueue {
		d.mailer = queue.NewPublisher(cfg.Mail.AMQPURL, "password_reset", log)
		go func() {
			if err := queue.StartMailConsumer(ctx, cfg.Mail.AMQPURL, smtp, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("mail consumer stopped", "error", err)
			}
		}()
	}

	if cfg.AI.APIKey != "" {
		d.completer = ai.NewOpenAI(cfg.AI)
	} else {
		log.Warn("OPENAI_API_KEY not set; /api/ai/ask will answer 500")
	}

	e := newServer(cfg, d, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", ":"+cfg.Port, "env", cfg.Env, "store", cfg.UserStore, "mail", cfg.Mail.Transport)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newServer wires services, middleware and routes.
func newServer(cfg config.Config, d deps, log *slog.Logger) *echo.Echo {
	tokens := service.TokenConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL,
		ResetTTL:   cfg.ResetTTL,
		BcryptCost: cfg.BcryptCost,
	}
	auth := service.NewAuthService(d.users, tokens, d.metrics, log)
	reset := service.NewPasswordResetService(d.users, d.mailer, tokens, cfg.FrontendURL, cfg.DefaultFromEmail, d.metrics, log)
	aiSvc := service.NewAIService(d.completer, d.rdb, config.LoadAnswerCacheConfig(), d.metrics, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(d.metrics.Middleware())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	rd := router.Deps{
		Auth:    handler.NewAuthHandler(auth, reset),
		AI:      handler.NewAIHandler(aiSvc),
		Metrics: d.metrics.Handler(),
		APIMiddleware: []echo.MiddlewareFunc{
			middleware.OptionalJWT(auth),
			middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.rdb, log),
		},
	}
	router.RegisterRoutes(e, rd)
	router.RegisterAPI(e, rd)
	return e
}
