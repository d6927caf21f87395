package app

import (
	"context"
	"log/slog"

	"github.com/cinescan/cinescan/pkg/config"
	"github.com/cinescan/cinescan/pkg/jobs"
	"github.com/cinescan/cinescan/pkg/logger"
	"github.com/cinescan/cinescan/pkg/notify"
	"github.com/cinescan/cinescan/pkg/places"
	"github.com/cinescan/cinescan/pkg/preferences"
	"github.com/cinescan/cinescan/pkg/registry"
	"github.com/cinescan/cinescan/pkg/server"
	"github.com/cinescan/cinescan/pkg/showings"
	"github.com/cinescan/cinescan/pkg/storage"
	"github.com/cinescan/cinescan/pkg/tmdb"
	"github.com/cinescan/cinescan/pkg/users"
	"github.com/cinescan/cinescan/pkg/watchlist"
)

// App wires every component together and runs the HTTP server alongside
// the scan scheduler.
type App struct {
	Logger *slog.Logger

	cfg           *config.Config
	runner        *jobs.Runner
	server        *server.Server
	cancelBrowser context.CancelFunc
}

func New() (*App, error) {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	rdb := storage.OpenRedis(cfg.RedisAddr, log)

	genres := registry.NewGenres(db, log)
	movies := registry.NewMovies(db, genres, log)
	ledger := watchlist.New(db, movies, log)
	prefs := preferences.New(db, ledger, log)
	userSvc := users.New(db, cfg.JWTSecret, cfg.JWTTTL, log)

	tmdbClient := tmdb.NewClient(cfg.Tmdb, rdb, log)
	placesClient := places.NewClient(cfg.Places, log)
	fetcher, cancelBrowser := showings.NewVueFetcher(cfg.Scan, log)
	mailer := notify.NewSMTPMailer(cfg.Mail, log)

	runner := jobs.NewRunner(userSvc, ledger, prefs, placesClient, fetcher, mailer, cfg.Scan, log)
	srv := server.New(userSvc, ledger, prefs, tmdbClient, runner, log)

	return &App{
		Logger:        log,
		cfg:           cfg,
		runner:        runner,
		server:        srv,
		cancelBrowser: cancelBrowser,
	}, nil
}

// Run starts the scan scheduler in the background and blocks serving HTTP.
func (a *App) Run(ctx context.Context) error {
	go a.runner.Run(ctx)

	a.Logger.Info("listening", "port", a.cfg.Port)

	return a.server.Router().Run(":" + a.cfg.Port)
}

func (a *App) Close() {
	if a.cancelBrowser != nil {
		a.cancelBrowser()
	}
}
