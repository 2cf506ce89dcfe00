/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ssargent/reelshelf/pkg/config"
	"github.com/ssargent/reelshelf/pkg/di"
	"github.com/ssargent/reelshelf/pkg/logging"
	"github.com/ssargent/reelshelf/pkg/storage"
	"github.com/ssargent/reelshelf/pkg/store"
)

var container *di.Container

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

type ctxKey string

const appKey ctxKey = "app"

// app is the per-invocation state built by the root command
type app struct {
	cfg        *config.Config
	configPath string
	logger     *logrus.Logger
	store      store.Storage
	quarantine *storage.Quarantine

	// recovery is the last corrupt-file reset seen during this invocation
	recovery  *store.RecoveryResult
	onRecover []store.RecoveryHandler
}

func (a *app) handleRecovery(res *store.RecoveryResult) {
	a.recovery = res
	for _, h := range a.onRecover {
		h(res)
	}
}

func (a *app) close() error {
	if a.quarantine == nil {
		return nil
	}
	err := a.quarantine.Close()
	a.quarantine = nil
	return err
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reelshelf",
	Short: "reelshelf - personal movie catalog",
	Long: `reelshelf keeps a personal movie catalog in a JSON or CSV file.

Movies can be listed, added (optionally with details fetched online), rated,
deleted, searched and summarized. A missing catalog file is created with a few
well-known movies; a corrupt one is reset to an empty catalog.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ~/.config/reelshelf/config.yaml)")
	rootCmd.PersistentFlags().StringP("backend", "b", "", "Catalog backend: json or csv (default: from config or file extension)")
	rootCmd.PersistentFlags().StringP("file", "f", "", "Catalog file (default: from config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

// loadConfig reads the config file, if any, and applies environment and flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.Storage.Path, _ = flags.GetString("file")
		// the extension decides unless a backend is named explicitly
		cfg.Storage.Backend = ""
	}
	if flags.Changed("backend") {
		cfg.Storage.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, configPath, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	if container == nil {
		return nil, errors.New("dependency container not initialized")
	}

	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewWithOutput(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, configPath: configPath, logger: logger}
	opts := []store.Option{
		store.WithLogger(logger),
		store.WithRecoveryHandler(a.handleRecovery),
	}

	if dir := cfg.Storage.QuarantineDir; dir != "" {
		q, err := storage.Open(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open quarantine: %w", err)
		}
		a.quarantine = q
		opts = append(opts, store.WithQuarantine(q))
	}

	st, err := container.GetStoreFactory()(store.Config{
		Backend: cfg.Storage.Backend,
		Path:    cfg.Storage.Path,
	}, opts...)
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	a.store = st
	return a, nil
}

// runWithApp hands fn the state built by the root command and releases it afterwards
func runWithApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, args, a)
	}
}

func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey).(*app)
	if !ok {
		return nil, errors.New("catalog not initialized")
	}
	return a, nil
}

// backendName reports the backend in use, resolving an empty setting from the path
func (a *app) backendName() string {
	if b, ok := a.store.(interface{ Backend() string }); ok {
		return b.Backend()
	}
	return a.cfg.Storage.Backend
}
