package cli

import (
	"fmt"

	"github.com/pkalnins/earshot/internal/config"
	"github.com/pkalnins/earshot/internal/store"
	"github.com/spf13/cobra"
)

var skillsPrivate bool

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List skills available in the current privacy context",
	RunE:  skillsAction,
}

func init() {
	skillsCmd.Flags().BoolVar(&skillsPrivate, "private", false, "include private skills")
	rootCmd.AddCommand(skillsCmd)
}

func skillsAction(_ *cobra.Command, _ []string) error {
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
	available, err := reg.ListAvailable(cfg.Skills, skillsPrivate, db)
	if err != nil {
		return fmt.Errorf("list skills: %w", err)
	}

	if len(available) == 0 {
		fmt.Println("No skills available.")
		return nil
	}

	fmt.Printf("Available skills (%d):\n", len(available))
	for _, s := range available {
		fmt.Printf("  %-16s %s\n", s.Name(), cfg.Skills[s.Name()])
	}
	return nil
}
