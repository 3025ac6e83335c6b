package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/trade-sim/sim"
)

// configCmd prints the effective configuration as YAML. With --config it shows the
// file merged over the defaults, which is also a quick way to validate a file.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the default (or merged) configuration as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeConfig(cmd.OutOrStdout(), configFile); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

var configFile string // --config for the config subcommand

func writeConfig(w io.Writer, path string) error {
	cfg := sim.DefaultConfig()
	if path != "" {
		loaded, err := sim.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	data, err := cfg.YAML()
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	configCmd.Flags().StringVar(&configFile, "config", "", "YAML file to merge over the defaults")
	rootCmd.AddCommand(configCmd)
}
