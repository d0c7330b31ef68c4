package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/OCharnyshevich/minecraft-light/internal/gamedata"
	"github.com/OCharnyshevich/minecraft-light/internal/server"
	"github.com/OCharnyshevich/minecraft-light/internal/server/config"
	"github.com/OCharnyshevich/minecraft-light/internal/server/storage"
)

func main() {
	cfg := config.DefaultConfig()

	dataDir := flag.String("data", "data", "directory for config, block edits and light")
	debug := flag.Bool("debug", false, "log at debug level")
	exportAnvil := flag.Bool("export-anvil", false, "write loaded chunks as Anvil regions on shutdown")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world generator seed")
	flag.StringVar(&cfg.GeneratorType, "generator", cfg.GeneratorType, "world generator: hills or flat")
	flag.IntVar(&cfg.WorldRadius, "world-radius", cfg.WorldRadius, "chunks loaded around the origin")
	flag.IntVar(&cfg.TickRate, "tick-rate", cfg.TickRate, "ticks per second")
	flag.IntVar(&cfg.LightBudget, "light-budget", cfg.LightBudget, "light updates per dimension per tick")
	flag.IntVar(&cfg.AmbientDarkness, "ambient-darkness", cfg.AmbientDarkness, "sky light dimming, 0-15")
	flag.IntVar(&cfg.SaveInterval, "save-interval", cfg.SaveInterval, "seconds between saves, 0 to save on shutdown only")
	flag.BoolVar(&cfg.RetainOnUnload, "retain-on-unload", cfg.RetainOnUnload, "keep light of unloaded chunks in memory")
	flag.StringVar(&cfg.BlockData, "block-data", cfg.BlockData, "built-in block table or minecraft-data directory")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	store, err := storage.New(*dataDir, log)
	if err != nil {
		log.Error("open data directory", "error", err)
		os.Exit(1)
	}

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	fromFile := config.DefaultConfig()
	if err := store.LoadConfig(fromFile); err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	config.Merge(cfg, fromFile, explicit)
	if err := store.SaveConfig(cfg); err != nil {
		log.Error("save config", "error", err)
		os.Exit(1)
	}

	var blocks *gamedata.Blocks
	if slices.Contains(gamedata.RegisteredVersions(), cfg.BlockData) {
		blocks, err = gamedata.Load(cfg.BlockData)
	} else {
		blocks, err = gamedata.LoadDir(cfg.BlockData)
	}
	if err != nil {
		log.Error("load block data", "source", cfg.BlockData, "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv, err := server.New(cfg, blocks, store, log)
	if err != nil {
		log.Error("create server", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	if err := srv.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	if *exportAnvil {
		if err := srv.ExportAnvil(); err != nil {
			log.Error("export anvil", "error", err)
			os.Exit(1)
		}
	}
}
