/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/ssargent/pngme/pkg/config"
	"github.com/ssargent/pngme/pkg/di"
	"github.com/ssargent/pngme/pkg/logging"
	"github.com/ssargent/pngme/pkg/png"
)

var container *di.Container

// SetContainer injects the dependency container used by the commands
func SetContainer(c *di.Container) {
	container = c
}

type stateKey struct{}

// appState is built once per invocation by the root command
type appState struct {
	cfg    *config.Config
	logger hclog.Logger
}

func (s *appState) pngOptions() png.Options {
	return png.Options{MaxChunkSize: s.cfg.Chunk.MaxSize}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pngme",
	Short: "pngme - hide messages in PNG chunks",
	Long: `pngme stores text messages in ancillary PNG chunks and reads them back.

Every chunk is length-prefixed, tagged with a four letter type and
protected by a CRC-32, so a damaged message is reported rather than
returned.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadState(cmd)
		if err != nil {
			return err
		}
		cmd.SetContext(context.WithValue(cmd.Context(), stateKey{}, state))
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
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ~/.config/pngme/config.yaml if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory for the chunk stash")
}

// loadState resolves configuration from file, environment and flags
func loadState(cmd *cobra.Command) (*appState, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" && config.ConfigExists(config.GetDefaultConfigPath()) {
		configPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &appState{
		cfg:    cfg,
		logger: logging.New("pngme", cfg.Logging, cmd.ErrOrStderr()),
	}, nil
}

func stateFrom(cmd *cobra.Command) (*appState, error) {
	state, ok := cmd.Context().Value(stateKey{}).(*appState)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return state, nil
}
