// Package server initializes and runs the authentication service: database
// and object storage connections, migrations, the protocol services, the
// HTTP endpoint and the session sweeper, with graceful shutdown on signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/polarmc/yggdrasil/internal/logging"
	"github.com/polarmc/yggdrasil/internal/server/blobstore"
	"github.com/polarmc/yggdrasil/internal/server/config"
	"github.com/polarmc/yggdrasil/internal/server/httpapi"
	"github.com/polarmc/yggdrasil/internal/server/repositories/repomanager"
	"github.com/polarmc/yggdrasil/internal/server/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	tokens   *services.TokenService
	profiles *services.ProfileService
	sessions *services.SessionService
	textures *services.TextureService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	blobs, err := blobstore.NewS3Store(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	profiles := services.NewProfileService(db, repos, cfg, logger)
	app := &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		tokens:   services.NewTokenService(db, repos, cfg, logger),
		profiles: profiles,
		sessions: services.NewSessionService(db, repos, profiles, cfg, logger),
		textures: services.NewTextureService(db, repos, blobs, cfg, logger),
	}
	return app, nil
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
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.tokens, app.sessions, app.profiles, app.textures, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// startSessionSweeper periodically removes expired game sessions. Lookups
// filter on expiry anyway, so the sweeper is hygiene, not correctness.
func (app *App) startSessionSweeper(ctx context.Context) {
	ticker := time.NewTicker(app.config.SessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.sessions.SweepExpired(ctx); err != nil {
				app.logger.Warn(ctx, "session sweep failed", "error", err)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

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
		app.startSessionSweeper(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close failed", "error", err)
	}
}
