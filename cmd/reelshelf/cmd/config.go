/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ssargent/reelshelf/pkg/config"
)

// configCmd groups configuration commands. They run without opening the catalog.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the reelshelf configuration file",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip the root command's catalog initialization for config commands
		return nil
	},
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file",
	Long: `Create a configuration file with default settings and a generated API key
for the REST server.

Examples:
  reelshelf config init
  reelshelf config init --config ./reelshelf.yaml --file ./movies.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		catalogPath, _ := cmd.Flags().GetString("file")
		force, _ := cmd.Flags().GetBool("force")
		p := newPrinter(cmd)

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		if config.ConfigExists(configPath) && !force {
			p.Printf("Configuration already exists at %s. Use --force to overwrite it.\n", configPath)
			return nil
		}

		cfg, err := config.BootstrapConfig(configPath, catalogPath)
		if err != nil {
			return err
		}

		p.Printf("✅ Configuration created at %s\n", configPath)
		p.Printf("Catalog: %s (%s)\n", cfg.Storage.Path, cfg.Storage.Backend)
		p.Printf("Server API key: %s\n", cfg.Server.APIKey)
		p.Printf("\nSet %s to use the OMDb metadata provider.\n", config.APIKeyEnv)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
}
