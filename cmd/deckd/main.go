package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cianmurphy/decksched/internal/config"
	"github.com/cianmurphy/decksched/internal/dates"
	"github.com/cianmurphy/decksched/internal/engine"
	"github.com/cianmurphy/decksched/internal/fsrs"
	"github.com/cianmurphy/decksched/internal/source"
	"github.com/cianmurphy/decksched/internal/storage"
	"github.com/cianmurphy/decksched/internal/web"
)

func main() {
	cfg, err := config.LoadFromArgs(os.Args[1:])
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DB)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DB, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DB)

	params := fsrs.DefaultParams()
	params.DesiredRetention = cfg.Retention
	params.MaxIntervalDays = cfg.MaxInterval
	eng := engine.New(params)

	syncer := source.NewSyncer(db, eng, cfg.ReposDir)
	if cfg.SyncOnStart {
		if err := syncer.RunSync(dates.Today()); err != nil {
			slog.Error("source sync failed", "error", err)
		}
	}

	server := web.NewServer(db, eng, syncer)
	slog.Info("listening", "addr", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, server); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
