package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/northbound-labs/compass/core/personas"
	"github.com/northbound-labs/compass/core/session"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the available coaching personas",
	RunE:  runPersonas,
}

func init() {
	rootCmd.AddCommand(personasCmd)
}

func runPersonas(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	registry := personas.NewRegistry(nil)
	overridePath := filepath.Join(cfg.Personas.Dir, "personas.yaml")
	if _, statErr := os.Stat(overridePath); statErr == nil {
		if err := registry.LoadOverrides(overridePath); err != nil {
			return err
		}
	}

	for _, id := range personas.IDs() {
		def, ok := registry.Resolve(id)
		if !ok {
			continue
		}
		fmt.Printf("%s (%s)\n", def.DisplayName, def.ID)
		fmt.Printf("  %s\n", def.Identity)
		for _, phase := range session.Phases() {
			if g := def.PhaseGuidance[phase]; g != "" {
				fmt.Printf("  %s: %s\n", phase, g)
			}
		}
		fmt.Println()
	}
	return nil
}
