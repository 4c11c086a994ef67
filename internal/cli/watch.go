package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkalnins/earshot/internal/config"
	"github.com/pkalnins/earshot/internal/privacy"
	"github.com/pkalnins/earshot/internal/skill"
	"github.com/pkalnins/earshot/internal/store"
	"github.com/spf13/cobra"
)

var (
	watchPrivate  bool
	watchInterval string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll available skills on an interval until interrupted",
	RunE:  watchAction,
}

func init() {
	watchCmd.Flags().BoolVar(&watchPrivate, "private", false, "include private skills")
	watchCmd.Flags().StringVar(&watchInterval, "interval", "", "poll interval (e.g. 15m), overrides config")
	rootCmd.AddCommand(watchCmd)
}

func watchAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	interval := cfg.Watch.Interval.Duration
	if watchInterval != "" {
		interval, err = time.ParseDuration(watchInterval)
		if err != nil {
			return fmt.Errorf("parse --interval: %w", err)
		}
		if interval <= 0 {
			return fmt.Errorf("parse --interval: must be positive, got %s", interval)
		}
	}

	reg := newRegistry(cfg)
	red, err := newRedactor(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := slog.With("owner", cfg.Owner, "interval", interval)
	log.Info("watch started")

	if err := watchPass(ctx, cfg, reg, db, red); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil
		case <-ticker.C:
			if err := watchPass(ctx, cfg, reg, db, red); err != nil {
				return err
			}
		}
	}
}

// watchPass runs one poll over every available skill. Poll failures stay
// inside their envelopes; only registry configuration errors are returned.
func watchPass(ctx context.Context, cfg *config.Config, reg *skill.Registry, db *store.Store, red *privacy.Redactor) error {
	skills, err := reg.ListAvailable(cfg.Skills, watchPrivate, db)
	if err != nil {
		return fmt.Errorf("list skills: %w", err)
	}

	items := 0
	errs := 0
	for _, s := range skills {
		res := s.Poll(ctx)
		if res.Err != "" {
			errs++
			continue
		}
		items += len(res.Items)
		if len(res.Items) > 0 {
			redactItems(red, res.Items)
			printResult(s.Name(), res)
		}
	}

	slog.Info("poll pass complete", "skills", len(skills), "items", items, "errors", errs)
	return nil
}
