package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkalnins/earshot/internal/config"
	"github.com/pkalnins/earshot/internal/skill"
	"github.com/pkalnins/earshot/internal/store"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and system health",
	RunE:  doctorAction,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

const staleDays = 7

func doctorAction(_ *cobra.Command, _ []string) error {
	ok := true

	// Config dir
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printCheck(false, "config directory %s", configDir)
		ok = false
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	// Config file
	cfg, err := config.Load(configDir)
	if err != nil {
		printCheck(false, "config.yaml: %v", err)
		ok = false
	} else {
		enabled := 0
		for _, state := range cfg.Skills {
			if state != skill.StateDisabled {
				enabled++
			}
		}
		printCheck(true, "config.yaml (%d of %d skills enabled)", enabled, len(cfg.Skills))
	}

	if cfg != nil {
		// Credentials
		switch {
		case cfg.Twitter.AccessToken != "":
			printCheck(true, "twitter credentials (elevated access)")
		case cfg.Twitter.BearerToken != "":
			printCheck(true, "twitter credentials (shared access, %d requests per %s)",
				cfg.RateLimit.Requests, cfg.RateLimit.Window.Duration)
		case twitterEnabled(cfg):
			printCheck(false, "twitter credentials missing (%s)", credentialHint(cfg))
			ok = false
		default:
			printInfo("twitter credentials not configured (no twitter skills enabled)")
		}

		// Identity needed by the enabled skills
		if skillEnabled(cfg, "get_mentions") || skillEnabled(cfg, "get_timeline") {
			if cfg.Twitter.UserID == "" {
				printCheck(false, "twitter.user_id required by get_mentions and get_timeline")
				ok = false
			} else {
				printCheck(true, "twitter.user_id %s", cfg.Twitter.UserID)
			}
		}
		if skillEnabled(cfg, "search_mentions") {
			if cfg.Twitter.Username == "" {
				printCheck(false, "twitter.username required by search_mentions")
				ok = false
			} else {
				printCheck(true, "twitter.username @%s", cfg.Twitter.Username)
			}
		}
		if skillEnabled(cfg, "get_feed") {
			if cfg.Feed.URL == "" {
				printCheck(false, "feed.url required by get_feed")
				ok = false
			} else {
				printCheck(true, "feed url %s", cfg.Feed.URL)
			}
		}

		// Database
		db, err := store.Open(cfg.Storage.Path)
		if err != nil {
			printCheck(false, "database: %v", err)
			ok = false
		} else {
			defer func() { _ = db.Close() }()
			printCheck(true, "database %s", cfg.Storage.Path)
			checkCursorFreshness(db, cfg)
		}
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

func skillEnabled(cfg *config.Config, name string) bool {
	state, ok := cfg.Skills[name]
	return ok && state != skill.StateDisabled
}

func twitterEnabled(cfg *config.Config) bool {
	return skillEnabled(cfg, "get_mentions") ||
		skillEnabled(cfg, "get_timeline") ||
		skillEnabled(cfg, "search_mentions")
}

func credentialHint(cfg *config.Config) string {
	if cfg.Twitter.BearerTokenEnv == "" && cfg.Twitter.AccessTokenEnv == "" {
		return "set twitter.bearer_token_env or twitter.access_token_env"
	}
	hint := ""
	if cfg.Twitter.BearerTokenEnv != "" {
		hint = "export " + cfg.Twitter.BearerTokenEnv
	}
	if cfg.Twitter.AccessTokenEnv != "" {
		if hint != "" {
			hint += " or "
		}
		hint += "export " + cfg.Twitter.AccessTokenEnv
	}
	return hint
}

// checkCursorFreshness reports stale sync state (info-level, non-fatal).
func checkCursorFreshness(db *store.Store, cfg *config.Config) {
	ctx := context.Background()

	rows, err := db.ListSkillData(ctx, cfg.Owner)
	if err != nil || len(rows) == 0 {
		return // no sync state yet, skip
	}

	staleThreshold := time.Now().AddDate(0, 0, -staleDays)
	for _, r := range rows {
		if r.UpdatedAt.Before(staleThreshold) {
			daysAgo := int(time.Since(r.UpdatedAt).Hours() / 24)
			printInfo("stale: %s/%s last updated %d days ago", r.Skill, r.Key, daysAgo)
		}
	}
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("[INFO] %s\n", fmt.Sprintf(format, args...))
}
