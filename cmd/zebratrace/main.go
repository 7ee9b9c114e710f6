package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/frc-analytics/zebratrace/internal/chart"
	"github.com/frc-analytics/zebratrace/internal/config"
	"github.com/frc-analytics/zebratrace/internal/kinematics"
	"github.com/frc-analytics/zebratrace/internal/logger"
	"github.com/frc-analytics/zebratrace/internal/models"
	"github.com/frc-analytics/zebratrace/internal/report"
	"github.com/frc-analytics/zebratrace/internal/storage"
	"github.com/frc-analytics/zebratrace/internal/tba"
	"github.com/frc-analytics/zebratrace/internal/telegram"
)

var (
	teamFlag   = flag.Int("team", 0, "FRC team number (required)")
	eventFlag  = flag.String("event", "", "TBA event key, e.g. 2024casj (required)")
	keyFlag    = flag.String("key", "", "TBA auth key (required unless set via ZEBRATRACE_TBA_AUTH_KEY or config)")
	configPath = flag.String("config", "", "Path to optional configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *keyFlag != "" {
		cfg.TBA.AuthKey = *keyFlag
	}
	if *teamFlag <= 0 {
		log.Fatal("Missing required flag: -team")
	}
	if *eventFlag == "" {
		log.Fatal("Missing required flag: -event")
	}
	if cfg.TBA.AuthKey == "" {
		log.Fatal("Missing TBA auth key: pass -key or set ZEBRATRACE_TBA_AUTH_KEY")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Analyzing telemetry for frc%d at %s", *teamFlag, *eventFlag)

	var store *storage.Storage
	var cache tba.TelemetryCache
	if cfg.Cache.Enabled {
		store, err = storage.New(cfg.Cache.DBPath)
		if err != nil {
			logger.Fatal("Failed to initialize storage: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close storage: %v", err)
			}
		}()
		cache = store

		if pruned, err := store.PruneCache(cfg.Cache.MaxAge); err != nil {
			logger.Warn("Failed to prune telemetry cache: %v", err)
		} else if pruned > 0 {
			logger.Debug("Pruned %d stale cache entries", pruned)
		}
	}

	client := tba.NewClient(cfg.TBA.BaseURL, cfg.TBA.AuthKey, tba.ClientConfig{
		Timeout:        cfg.TBA.Timeout,
		MaxRetries:     cfg.TBA.MaxRetries,
		RetryDelayBase: cfg.TBA.RetryDelayBase,
		Concurrency:    cfg.TBA.Concurrency,
	}, cache)

	var notifier *telegram.Client
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, client, store, notifier, *teamFlag, *eventFlag); err != nil {
		if notifier != nil {
			if sendErr := notifier.SendError(*teamFlag, *eventFlag, err); sendErr != nil {
				logger.Warn("Failed to send failure notification: %v", sendErr)
			}
		}
		logger.Error("Run failed: %v", err)
		os.Exit(1)
	}
}

// run executes one full batch: fetch, derive, summarize, render, persist.
func run(ctx context.Context, cfg *config.Config, client *tba.Client, store *storage.Storage, notifier *telegram.Client, team int, eventKey string) error {
	batch, err := client.FetchEvent(ctx, team, eventKey)
	if err != nil {
		return fmt.Errorf("acquisition failed: %w", err)
	}
	if len(batch) == 0 {
		return fmt.Errorf("no matches found for frc%d at %s", team, eventKey)
	}

	chartsDir := filepath.Join(cfg.Output.Dir, "charts")
	var summaries []models.MatchSummary
	var skippedAbsent, skippedShort int

	for _, tel := range batch {
		if !tel.HasData() {
			skippedAbsent++
			logger.Debug("No telemetry for %s, excluded", tel.MatchKey)
			continue
		}

		_, speeds, accels := kinematics.Derive(tel.Samples)
		summary, err := kinematics.SummarizeMatch(speeds, accels, tel.MatchKey, tel.Team)
		if err != nil {
			skippedShort++
			logger.Warn("Skipping %s: %v", tel.MatchKey, err)
			continue
		}

		points := chart.Project(speeds, accels)
		path, err := chart.RenderFile(chartsDir, tel.MatchKey, tel.Team, points)
		if err != nil {
			return err
		}
		logger.Debug("Rendered %s (%d samples, %d speed points)", path, len(tel.Samples), len(speeds))

		summaries = append(summaries, summary)
	}

	logger.Info("Derived kinematics for %d of %d matches (%d without telemetry, %d too short)",
		len(summaries), len(batch), skippedAbsent, skippedShort)

	global, err := kinematics.SummarizeGlobal(summaries)
	if err != nil {
		return fmt.Errorf("no matches with usable telemetry: %w", err)
	}

	stats := report.New(team, eventKey, summaries, global)
	statsPath := filepath.Join(cfg.Output.Dir, fmt.Sprintf("%s_frc%d_stats.json", eventKey, team))
	if err := report.Write(statsPath, stats); err != nil {
		return err
	}
	logger.Info("Wrote stats artifact %s (run %s)", statsPath, stats.RunID)
	logger.Info("Top speed %.2f ft/s, top acceleration %.2f ft/s², hardest braking %.2f ft/s²",
		global.MaxSpeed, global.MaxAcceleration, global.MaxBraking)

	if store != nil {
		if err := store.SaveRun(stats.RunID, team, eventKey, stats.GeneratedAt, summaries, global); err != nil {
			logger.Warn("Failed to record run history: %v", err)
		}
	}

	if notifier != nil {
		if err := notifier.SendRunSummary(team, eventKey, len(summaries), global); err != nil {
			logger.Warn("Failed to send run notification: %v", err)
		}
	}
	return nil
}
