package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkalnins/earshot/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with an example config",
	RunE:  initAction,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	created := 0

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	wrote, err := writeIfNotExists(configPath, []byte(exampleConfig))
	if err != nil {
		return err
	}
	if wrote {
		created++
	}

	if created == 0 {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
	} else {
		fmt.Printf("Initialized %s.\n", configDir)
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# earshot configuration

# Cursor rows in the store are scoped by owner.
owner: default

twitter:
  bearer_token_env: TWITTER_BEARER_TOKEN
  access_token_env: TWITTER_ACCESS_TOKEN
  # Numeric account id, required by get_mentions and get_timeline.
  user_id: ""
  # Handle without the @, required by search_mentions.
  username: ""

storage:
  path: .earshot/earshot.db

# Shared-access budget. Elevated credentials (access token) bypass it.
rate_limit:
  requests: 1
  window: 15m

# disabled, public, or private. Private skills only run with --private.
skills:
  get_mentions: private
  get_timeline: public
  search_mentions: disabled
  get_feed: disabled

feed:
  url: ""
  # url: "https://example.com/feed.xml"

watch:
  interval: 15m

# Scrub matching text from output before it is printed or serialized.
privacy:
  redact:
    enabled: false
    patterns: []
    # - "(?i)bearer [a-z0-9]+"
`
