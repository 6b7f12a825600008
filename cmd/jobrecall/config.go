package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/jobrecall/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write the effective configuration to a file",
	Long: `Resolves the configuration (file, environment and defaults) and writes it as YAML.
Useful as a starting point: jobrecall config --out ./config.yaml`,
	RunE: runConfig,
}

var configOut string

func init() {
	configCmd.Flags().StringVarP(&configOut, "out", "o", "", "destination file (required)")
	if err := configCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Save(configOut, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", configOut)
	return nil
}
