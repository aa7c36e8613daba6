// Package server initializes and runs the application server. It opens the
// database, runs migrations, wires the services and HTTP API, and handles
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/photovault/photovault/internal/logging"
	"github.com/photovault/photovault/internal/server/auth"
	"github.com/photovault/photovault/internal/server/config"
	"github.com/photovault/photovault/internal/server/httpapi"
	"github.com/photovault/photovault/internal/server/mail"
	"github.com/photovault/photovault/internal/server/repositories/repomanager"
	"github.com/photovault/photovault/internal/server/services"
)

// resetTokenPurgeInterval is how often used and expired reset tokens are
// swept from the database.
const resetTokenPurgeInterval = time.Hour

const shutdownTimeout = 5 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	sessions *services.SessionService
	albums   *services.AlbumService
	photos   *services.PhotoService
	gate     *httpapi.AuthGate
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	codec, err := auth.NewCodec(
		[]byte(cfg.AccessSecret), []byte(cfg.RefreshSecret),
		cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration,
	)
	if err != nil {
		return nil, err
	}

	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			BaseURL:  cfg.PublicBaseURL,
		})
	} else {
		mailer = mail.NewLogMailer(logger)
	}

	sessions := services.NewSessionService(db, repos, codec, mailer, logger)

	return &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		sessions: sessions,
		albums:   services.NewAlbumService(db, repos, logger),
		photos:   services.NewPhotoService(db, repos, cfg, logger),
		gate:     httpapi.NewAuthGate(codec, sessions),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	handler := httpapi.NewHandler(app.sessions, app.albums, app.photos, app.logger)
	router := httpapi.NewRouter(handler, app.gate, app.config.AllowedOrigins)

	srv := &http.Server{Addr: app.config.EndpointAddr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// startResetTokenPurger periodically deletes reset tokens that can never be
// redeemed again.
func (app *App) startResetTokenPurger(ctx context.Context) {
	ticker := time.NewTicker(resetTokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.sessions.PurgeExpiredResetTokens(ctx)
			if err != nil {
				app.logger.Error(ctx, "purging reset tokens failed", "error", err.Error())
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "purged reset tokens", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startResetTokenPurger(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err.Error())
	}
}
