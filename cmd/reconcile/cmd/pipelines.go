package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cobmax/reconcile/internal/config"
)

var listPipelinesCmd = &cobra.Command{
	Use:   "list-pipelines",
	Short: "List all pipelines defined in configuration",
	Long: `List-pipelines displays the pipelines defined in the configuration
file along with their snapshot locations and key derivation.

Example:
  reconcile list-pipelines --config reconcile.yaml`,
	RunE: runListPipelines,
}

func init() {
	rootCmd.AddCommand(listPipelinesCmd)
}

func runListPipelines(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	names := cfg.ListPipelines()
	if len(names) == 0 {
		cmd.Printf("No pipelines defined in %s\n", cfgFile)
		return nil
	}
	sort.Strings(names)

	cmd.Printf("Pipelines defined in %s:\n\n", cfgFile)

	for i, name := range names {
		pipe, err := cfg.GetPipeline(name)
		if err != nil {
			return fmt.Errorf("failed to get pipeline %q: %w", name, err)
		}

		cmd.Printf("%d. %s\n", i+1, name)
		cmd.Printf("   Origem:        %s (%s)\n", pipe.Source.Subdir, pipe.Source.Pattern)
		cmd.Printf("   Carteira:      %s (%s)\n", pipe.Ledger.Subdir, pipe.Ledger.Pattern)
		cmd.Printf("   Identificador: %s\n", pipe.IdentifierColumn)
		cmd.Printf("   Chave origem:  %s\n", describeKey(pipe.Source.Key))
		cmd.Printf("   Chave cart.:   %s\n", describeKey(pipe.Ledger.Key))

		if pipe.Judicial.Subdir != "" {
			cmd.Printf("   Judicial:      %s (%s)\n", pipe.Judicial.Subdir, pipe.Judicial.Pattern)
		}
		if pipe.Agreements.Subdir != "" {
			cmd.Printf("   Acordos:       %s (%s)\n", pipe.Agreements.Subdir, pipe.Agreements.Pattern)
		}
		if pipe.Settlements.Subdir != "" {
			cmd.Printf("   Acertos:       %s (%s)\n", pipe.Settlements.Subdir, pipe.Settlements.Pattern)
		}

		if i < len(names)-1 {
			cmd.Println()
		}
	}

	cmd.Printf("\nTotal: %d pipeline(s)\n", len(names))
	return nil
}

// describeKey renders a key spec for display.
func describeKey(k config.KeySpec) string {
	if k.Passthrough != "" {
		return k.Passthrough
	}
	return strings.Join(k.Components, k.Separator)
}
