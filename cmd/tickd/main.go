// Command tickd runs the per-turn ship and station tick.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/starbase/internal/api"
	"github.com/talgya/starbase/internal/archive"
	"github.com/talgya/starbase/internal/catalog"
	"github.com/talgya/starbase/internal/config"
	"github.com/talgya/starbase/internal/engine"
	"github.com/talgya/starbase/internal/persistence"
	"github.com/talgya/starbase/internal/systems"
	"github.com/talgya/starbase/internal/telemetry"
	"github.com/talgya/starbase/internal/universe"
)

func main() {
	configPath := flag.String("config", "", "Path to tickd.yaml (empty = use defaults)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	port := flag.Int("port", 0, "HTTP API port (overrides config, -1 = no API)")
	seed := flag.Int64("seed", 0, "Universe seed for a fresh database (overrides config)")
	speed := flag.Float64("speed", -1, "Speed multiplier (overrides config)")
	turns := flag.Uint64("turns", 0, "Stop after N turns (0 = unlimited)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.Data.DBPath = *dbPath
	}
	if *port != 0 {
		cfg.API.Port = *port
	}
	if *seed != 0 {
		cfg.Universe.Seed = *seed
	}
	if *speed >= 0 {
		cfg.Engine.Speed = *speed
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, *turns, cfg.API.Port >= 0); err != nil {
		slog.Error("tickd failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, maxTurns uint64, serveAPI bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Catalog ──────────────────────────────────────────────────────
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	slog.Info("catalog loaded",
		"path", cfg.CatalogPath,
		"systems", len(cat.Systems),
		"commodities", len(cat.Commodities),
		"rumps", len(cat.Rumps),
	)

	// ── Database ─────────────────────────────────────────────────────
	db, err := persistence.Open(cfg.Data.DBPath, cat)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Data.DBPath)

	// ── Load or generate state ───────────────────────────────────────
	startTurn, err := db.LastTick()
	if err != nil {
		return fmt.Errorf("read last tick: %w", err)
	}
	if db.HasState(ctx) {
		slog.Info("state restored", "turn", startTurn)
	} else {
		slog.Info("no saved state found, generating universe...", "seed", cfg.Universe.Seed)
		u := universe.Generate(universe.GenConfig{
			Width:  cfg.Universe.Width,
			Height: cfg.Universe.Height,
			Seed:   cfg.Universe.Seed,
		})
		for commodity, n := range universe.FieldCounts(u) {
			slog.Info("resource fields", "commodity", cat.CommodityName(commodity), "count", n)
		}
		if err := universe.Seed(ctx, db, cat, u, cfg.Universe.DemoFleet); err != nil {
			return fmt.Errorf("seed universe: %w", err)
		}
	}

	// ── Message fan-out ──────────────────────────────────────────────
	reports := archive.NewWriter(cfg.Data.ArchiveDir)
	defer reports.Close()

	hub := api.NewHub()
	go hub.Run(ctx)

	sender := &engine.FanoutSender{
		Primary: db,
		Taps:    []engine.MessageSender{reports, hub},
	}

	// ── Telemetry ────────────────────────────────────────────────────
	out, err := telemetry.NewOutputManager(cfg.Data.TelemetryDir)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Warn("write config snapshot failed", "error", err)
	}
	var window telemetry.Window

	// ── Engine ───────────────────────────────────────────────────────
	orch := engine.NewOrchestrator(cat, engine.Rules{
		AstroTurnsToFinish:     cfg.Rules.AstroTurnsToFinish,
		TakeoverTurns:          cfg.Rules.TakeoverTurns,
		TrackerDistanceDivisor: cfg.Rules.TrackerDistanceDivisor,
	}, engine.Deps{
		Source:    db,
		Store:     db,
		Sender:    sender,
		Mining:    db,
		Locator:   db,
		Entries:   db,
		Takeovers: db,
	})

	eng := engine.NewEngine()
	eng.Interval = cfg.Engine.Interval
	eng.RollupEvery = cfg.Engine.RollupEvery
	eng.SetTurn(startTurn)
	eng.SetSpeed(cfg.Engine.Speed)

	mgr := systems.NewManager(cat)
	apiServer := &api.Server{
		Eng:       eng,
		DB:        db,
		Hub:       hub,
		Readiness: &engine.FightReadiness{Systems: mgr, Alert: &engine.AlertReaction{Systems: mgr}},
		Port:      cfg.API.Port,
		AdminKey:  cfg.AdminKey,
		RateLimit: cfg.API.RateLimit,
		RateBurst: cfg.API.RateBurst,
	}

	eng.OnTurn = func(ctx context.Context, turn uint64) {
		sum, err := orch.Work(ctx, turn)
		if err != nil {
			slog.Error("tick pass failed", "turn", turn, "error", err)
		}
		if sum == nil {
			return
		}
		apiServer.SetSummary(sum)
		window.Add(sum)
		if err := out.WriteTick(sum); err != nil {
			slog.Warn("telemetry write failed", "error", err)
		}
		if err := db.SaveLastTick(turn); err != nil {
			slog.Error("save last tick failed", "turn", turn, "error", err)
		}
		if maxTurns > 0 && turn >= startTurn+maxTurns {
			eng.Stop()
		}
	}
	eng.OnRollup = func(_ context.Context, turn uint64) {
		row := window.Flush(turn)
		if err := out.WriteRollup(row); err != nil {
			slog.Warn("telemetry rollup failed", "error", err)
		}
		slog.Info("rollup",
			"turn", turn,
			"passes", row.Passes,
			"ships", humanize.Comma(int64(row.Ships)),
			"messages", humanize.Comma(int64(row.Messages)),
			"failures", row.Failures,
			"mean_ms", fmt.Sprintf("%.2f", row.MeanMS),
		)
	}

	// ── HTTP API ─────────────────────────────────────────────────────
	if serveAPI {
		if cfg.AdminKey == "" {
			slog.Warn(config.AdminKeyEnv + " not set, admin POST endpoints are disabled")
		}
		apiServer.Start()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := apiServer.Shutdown(shutdownCtx); err != nil {
				slog.Warn("HTTP shutdown", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			eng.Stop()
		case <-ctx.Done():
		}
	}()

	if serveAPI {
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	}
	if startTurn > 0 {
		fmt.Printf("Resuming from turn %d\n", startTurn)
	}
	fmt.Println("Starting tick engine... (Ctrl+C to stop)")

	eng.Run(ctx)

	slog.Info("tickd stopped", "turn", eng.Turn())
	return nil
}
