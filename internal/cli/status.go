package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkalnins/earshot/internal/config"
	"github.com/pkalnins/earshot/internal/store"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored sync state per skill",
	RunE:  statusAction,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

type statusRow struct {
	Skill     string         `json:"skill"`
	Key       string         `json:"key"`
	Data      map[string]any `json:"data"`
	UpdatedAt time.Time      `json:"updated_at"`
	Age       string         `json:"age"`
}

func statusAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.ListSkillData(cmd.Context(), cfg.Owner)
	if err != nil {
		return fmt.Errorf("list sync state: %w", err)
	}

	now := time.Now()
	out := make([]statusRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, statusRow{
			Skill:     r.Skill,
			Key:       r.Key,
			Data:      r.Data,
			UpdatedAt: r.UpdatedAt,
			Age:       formatAge(now.Sub(r.UpdatedAt)),
		})
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(out) == 0 {
		fmt.Println("No sync state found. Run 'earshot poll' first.")
		return nil
	}

	fmt.Printf("earshot status: owner %s, %d cursors\n\n", cfg.Owner, len(out))
	fmt.Printf("  %-16s %-6s %-20s %s\n", "Skill", "Key", "Updated", "Age")
	for _, r := range out {
		fmt.Printf("  %-16s %-6s %-20s %s\n", r.Skill, r.Key, r.UpdatedAt.UTC().Format("2006-01-02 15:04:05"), r.Age)
	}
	return nil
}

func formatAge(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
