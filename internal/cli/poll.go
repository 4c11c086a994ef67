package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkalnins/earshot/internal/config"
	"github.com/pkalnins/earshot/internal/privacy"
	"github.com/pkalnins/earshot/internal/skill"
	"github.com/pkalnins/earshot/internal/store"
	"github.com/pkalnins/earshot/internal/twitter"
	"github.com/spf13/cobra"
)

var (
	pollPrivate bool
	pollJSON    bool
)

var pollCmd = &cobra.Command{
	Use:   "poll [skill...]",
	Short: "Poll skills and print fetched items",
	Long:  "Poll the named skills, or every skill available in the current privacy context when none are named. Failures are reported per skill; the command only fails on configuration errors.",
	RunE:  pollAction,
}

func init() {
	pollCmd.Flags().BoolVar(&pollPrivate, "private", false, "include private skills")
	pollCmd.Flags().BoolVar(&pollJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(pollCmd)
}

type pollResult struct {
	Skill string `json:"skill"`
	skill.Result
}

func pollAction(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	reg := newRegistry(cfg)

	var skills []skill.Skill
	if len(args) > 0 {
		for _, name := range args {
			s, err := reg.Get(name, db)
			if err != nil {
				return err
			}
			skills = append(skills, s)
		}
	} else {
		skills, err = reg.ListAvailable(cfg.Skills, pollPrivate, db)
		if err != nil {
			return fmt.Errorf("list skills: %w", err)
		}
	}

	red, err := newRedactor(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	results := make([]pollResult, 0, len(skills))
	for _, s := range skills {
		res := s.Poll(ctx)
		redactItems(red, res.Items)
		results = append(results, pollResult{Skill: s.Name(), Result: res})
	}

	if pollJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No skills available.")
		return nil
	}

	totalItems := 0
	totalErrs := 0
	for _, r := range results {
		printResult(r.Skill, r.Result)
		if r.Err != "" {
			totalErrs++
			continue
		}
		totalItems += len(r.Items)
	}

	fmt.Printf("\nPolled %d skills: %d items", len(results), totalItems)
	if totalErrs > 0 {
		fmt.Printf(" (%d errors)", totalErrs)
	}
	fmt.Println()

	return nil
}

func printResult(name string, res skill.Result) {
	if res.Err != "" {
		fmt.Printf("--- %s ---\n", name)
		fmt.Printf("  error: %s\n", res.Err)
		return
	}
	fmt.Printf("--- %s (%d items) ---\n", name, len(res.Items))
	for _, it := range res.Items {
		text := strings.ReplaceAll(it.Text, "\n", " ")
		fmt.Printf("  %s  @%s  %s\n", it.Timestamp.UTC().Format("2006-01-02 15:04"), it.Author, firstNRunes(text, 120))
	}
}

// newRedactor returns nil when redaction is disabled or has no patterns.
func newRedactor(cfg *config.Config) (*privacy.Redactor, error) {
	if !cfg.Privacy.Redact.Enabled || len(cfg.Privacy.Redact.Patterns) == 0 {
		return nil, nil
	}
	red, err := privacy.NewRedactor(cfg.Privacy.Redact.Patterns)
	if err != nil {
		return nil, fmt.Errorf("compile redact patterns: %w", err)
	}
	return red, nil
}

func redactItems(red *privacy.Redactor, items []skill.Item) {
	if red == nil {
		return
	}
	for i := range items {
		items[i].Text = red.Redact(items[i].Text)
	}
}

// newRegistry assembles the skill registry from configuration. Tokens were
// already resolved from the environment at config load.
func newRegistry(cfg *config.Config) *skill.Registry {
	tw := twitter.New(twitter.Config{
		BearerToken: cfg.Twitter.BearerToken,
		AccessToken: cfg.Twitter.AccessToken,
		UserID:      cfg.Twitter.UserID,
		Username:    cfg.Twitter.Username,
	})
	return skill.NewRegistry(skill.Deps{
		Owner:   cfg.Owner,
		Twitter: tw,
		FeedURL: cfg.Feed.URL,
		Budget: skill.Budget{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window.Duration,
		},
	})
}

func firstNRunes(s string, n int) string {
	if n <= 0 || s == "" {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
