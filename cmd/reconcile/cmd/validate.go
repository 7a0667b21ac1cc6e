package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cobmax/reconcile/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate checks the configuration file: paths, pipeline definitions,
key specifications, field types and logging settings. Database settings are
checked only when a database section is present, since only extraction needs
one.

Example:
  reconcile validate --config reconcile.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cmd.Printf("Config file: %s\n", cfgFile)
	cmd.Printf("Pipelines found: %d\n\n", len(cfg.Pipelines))

	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Database.Host != "" {
		if err := cfg.ValidateDatabase(); err != nil {
			return err
		}
		cmd.Println("Database settings: ok")
	} else {
		cmd.Println("Database settings: not configured (extraction disabled)")
	}

	names := cfg.ListPipelines()
	sort.Strings(names)
	for _, name := range names {
		cmd.Printf("Pipeline %s: ok\n", name)
	}

	cmd.Println("\nConfiguration is valid")
	return nil
}
