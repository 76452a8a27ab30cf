// Package main provides the entry point for the bingo community bot.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/skybingo/bingobot/internal/bingo"
	"github.com/skybingo/bingobot/internal/config"
	"github.com/skybingo/bingobot/internal/discord"
	"github.com/skybingo/bingobot/internal/hob"
	"github.com/skybingo/bingobot/internal/hypixel"
	"github.com/skybingo/bingobot/internal/playercache"
	"github.com/skybingo/bingobot/internal/roles"
	"github.com/skybingo/bingobot/internal/session"
	"github.com/skybingo/bingobot/internal/store"
)

func main() {
	os.Exit(runMain())
}

func runMain() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "bingobot",
		Usage: "community bot for the Hypixel SkyBlock bingo scene",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "path to the SQLite database file (overrides DB_PATH)",
			},
			&cli.DurationFlag{
				Name:  "menu-timeout",
				Usage: "inactivity window before interactive menus expire",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if path := cmd.String("db"); path != "" {
				cfg.DBPath = path
			}
			if timeout := cmd.Duration("menu-timeout"); timeout > 0 {
				cfg.MenuTimeout = timeout
			}
			return run(ctx, cfg)
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("bingobot exited", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

// components holds everything the interaction gateway dispatches into.
type components struct {
	db    *store.Actor
	api   hypixel.Provider
	menus *hob.Env
	roles *roles.Service
}

func run(ctx context.Context, cfg config.Config) error {
	slog.Info("bingobot starting", slog.String("db", cfg.DBPath))

	comps, err := initComponents(cfg)
	if err != nil {
		return err
	}
	defer shutdown(comps)

	slog.Info("bingobot started",
		slog.Duration("menu_timeout", cfg.MenuTimeout),
		slog.Int("hob_max_messages", cfg.HOBMaxMessages))

	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

// initComponents wires the storage actor, API provider and menu engines. A
// schema failure aborts startup: the process must never serve requests
// against half-initialized tables.
func initComponents(cfg config.Config) (*components, error) {
	db, err := store.New(cfg.DBPath,
		bingo.Schema,
		playercache.Schema,
		hob.Schema,
		roles.Schema,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	api := hypixel.NewClient(cfg.HypixelAPIKey, db)
	messenger := discord.NewRESTMessenger(cfg.DiscordToken)

	return &components{
		db:  db,
		api: api,
		menus: &hob.Env{
			DB:        db,
			Messenger: messenger,
			Sessions:  session.NewRegistry[hob.Session](),
			Timeout:   cfg.MenuTimeout,
		},
		roles: &roles.Service{DB: db, API: api},
	}, nil
}

func shutdown(comps *components) {
	if err := comps.db.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}
	slog.Info("shutdown complete", slog.Int("open_menus", comps.menus.Sessions.Len()))
}
