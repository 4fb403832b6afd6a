package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"interview-scheduler/internal/app"
	"interview-scheduler/internal/cache"
	"interview-scheduler/internal/calendarsync"
	"interview-scheduler/internal/config"
	"interview-scheduler/internal/logging"
	"interview-scheduler/internal/reminder"
	"interview-scheduler/internal/scheduling"
	"interview-scheduler/internal/server"
	"interview-scheduler/internal/store"
	"interview-scheduler/internal/store/memory"
	"interview-scheduler/internal/store/postgres"
)

func main() {
	cliApp := &cli.App{
		Name:  "interview-scheduler",
		Usage: "Calendar availability and interview slot booking service.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
	}
	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "memory", Usage: "Keep all state in process memory instead of PostgreSQL."},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var (
				st    store.Store
				queue reminder.Queue
			)
			if c.Bool("memory") {
				log.Warn("using in-memory store; state is lost on exit")
				st = memory.New()
				queue = reminder.NewMemoryQueue()
			} else {
				if cfg.DatabaseURL == "" {
					return fmt.Errorf("DATABASE_URL required")
				}
				pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
				if err != nil {
					return fmt.Errorf("failed to connect to db: %w", err)
				}
				defer pool.Close()
				st = postgres.New(pool)
				queue = reminder.NewPostgresQueue(pool)
			}

			sched := scheduling.New(scheduling.Config{
				FreeTTL:         cfg.FreeCacheTTL,
				BusyTTL:         cfg.BusyCacheTTL,
				TxTimeout:       cfg.BookingTxTimeout,
				MaxPanelSize:    cfg.MaxPanelSize,
				DefaultTimezone: cfg.DefaultTimezone,
				AlignToHalfHour: cfg.AlignToHalfHour,
			}, scheduling.Deps{
				Store:      st,
				Cache:      cache.NewMemory(),
				Reminders:  reminder.NewPlanner(queue, log, nil),
				Automation: scheduling.NewLogAutomation(log),
				Logger:     log,
			})

			oauth := calendarsync.OAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
			if oauth == nil {
				log.Info("google calendar sync disabled: GOOGLE_CLIENT_ID/SECRET/REDIRECT_URL not set")
			}

			gin.SetMode(gin.ReleaseMode)
			api := app.New(sched, oauth, log)
			router := api.Router(app.AuthMiddleware(cfg.JWTSecret, cfg.StaticTokens))
			return server.Run(ctx, router, cfg.Port, cfg.CORSOrigins, log)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the PostgreSQL schema.",
		Action: func(c *cli.Context) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL required")
			}
			ctx := c.Context
			pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to db: %w", err)
			}
			defer pool.Close()

			if err := postgres.New(pool).Migrate(ctx); err != nil {
				return err
			}
			log.Info("schema applied")
			return nil
		},
	}
}
