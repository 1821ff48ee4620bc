package main

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the flexdb config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current settings to the config file",
	Long: `init saves the effective api key, endpoint and output format (config file,
environment and flags merged) so later commands can omit them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile == "" {
			return errors.New("no config file path; pass --config")
		}
		exists, err := afero.Exists(appFs, cfgFile)
		if err != nil {
			return err
		}
		if exists && !configForce {
			return fmt.Errorf("%s already exists; use --force to overwrite", cfgFile)
		}
		if err := cfg.Save(appFs, cfgFile); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		logger.Debug("config written", "path", cfgFile)
		return printResult(cmd.OutOrStdout(), map[string]string{"path": cfgFile})
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := cfg
		if len(shown.APIKey) > 4 {
			shown.APIKey = "****" + shown.APIKey[len(shown.APIKey)-4:]
		} else if shown.APIKey != "" {
			shown.APIKey = "****"
		}
		return printResult(cmd.OutOrStdout(), map[string]string{
			"path":     cfgFile,
			"api_key":  shown.APIKey,
			"endpoint": client.Endpoint(),
			"output":   shown.Output,
		})
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
