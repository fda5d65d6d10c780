// Package server initializes and runs the application server: database and
// migrations, account and diary services, the realtime broker, and the HTTP
// endpoint that carries both the REST API and the WebSocket channel.
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
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"golang.org/x/sync/errgroup"

	"github.com/Junhyukkkk/anondocs-server/internal/logging"
	"github.com/Junhyukkkk/anondocs-server/internal/server/config"
	"github.com/Junhyukkkk/anondocs-server/internal/server/migrations"
	"github.com/Junhyukkkk/anondocs-server/internal/server/realtime"
	"github.com/Junhyukkkk/anondocs-server/internal/server/repositories/diaries"
	"github.com/Junhyukkkk/anondocs-server/internal/server/repositories/users"
	"github.com/Junhyukkkk/anondocs-server/internal/server/rest"
	"github.com/Junhyukkkk/anondocs-server/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.UpContext(context.Background(), db, "."); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	secret := []byte(cfg.SecretKey)

	userSvc := services.NewUserService(users.NewPostgresRepository(db), secret, cfg.AccessTokenValidityDuration)
	diarySvc := services.NewDiaryService(diaries.NewPostgresRepository(db))

	broker := realtime.NewBroker(logger)
	router := realtime.NewRouter(diarySvc, broker, logger)
	ws := realtime.NewHandler(secret, broker, router, logger)

	mux := rest.NewRouter(rest.NewHandlers(userSvc, diarySvc, logger), secret)
	mux.Handle("/ws", ws)

	return &App{config: cfg, logger: logger, db: db, handler: mux}, nil
}

// Run serves HTTP until the context is cancelled or a termination signal
// arrives, then drains connections within shutdownTimeout.
func (app *App) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    app.config.HTTPAddr,
		Handler: app.handler,
	}

	app.logger.Info(ctx, "starting server", "addr", app.config.HTTPAddr)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		defer signal.Stop(sigs)

		select {
		case sig := <-sigs:
			app.logger.Info(gCtx, "received shutdown signal", "signal", sig.String())
		case <-gCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		return nil
	})

	err := g.Wait()

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "closing database failed", "error", cerr)
	}

	app.logger.Info(ctx, "server stopped")
	return err
}
