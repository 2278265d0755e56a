/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ssargent/pngme/pkg/api"
	"github.com/ssargent/pngme/pkg/chunktype"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the pngme REST API server. Requests under /api/v1 must carry
the configured server.api_key in the X-API-Key header.

Examples:
  pngme serve
  pngme serve --port 9000 --bind 0.0.0.0
  PNGME_SERVER__API_KEY=secret pngme serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := stateFrom(cmd)
		if err != nil {
			return err
		}
		cfg := state.cfg

		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			cfg.Server.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cfg.Server.APIKey == "" {
			return errors.New("server.api_key is not set (run 'pngme init' or set PNGME_SERVER__API_KEY)")
		}

		stash, err := openStash(state)
		if err != nil {
			return err
		}
		defer stash.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		starter := container.GetServerFactory().CreateServerStarter()
		return starter.StartServer(ctx, stash, api.ServerConfig{
			Bind:         cfg.Server.Bind,
			Port:         cfg.Server.Port,
			APIKey:       cfg.Server.APIKey,
			DefaultType:  chunktype.MustParse(cfg.Chunk.DefaultType),
			MaxChunkSize: cfg.Chunk.MaxSize,
			MaxBodySize:  cfg.Server.MaxBodySize,
		}, state.logger.Named("api"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
}
