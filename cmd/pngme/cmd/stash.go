/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
	"github.com/ssargent/pngme/pkg/api"
	"github.com/ssargent/pngme/pkg/chunk"
	"github.com/ssargent/pngme/pkg/chunktype"
	"github.com/ssargent/pngme/pkg/storage"
)

// stashCmd groups the local chunk stash commands
var stashCmd = &cobra.Command{
	Use:   "stash",
	Short: "Keep chunks in the local stash",
	Long: `The stash is a local pebble database of verified chunks keyed by
time-ordered ids. Chunks are re-verified every time they are read.`,
}

var stashPutCmd = &cobra.Command{
	Use:   "put <message>",
	Short: "Stash a message as a chunk",
	Long: `Stash a message as a chunk. The type defaults to chunk.default_type.

Example:
  pngme stash put "meet at noon" --type ruSt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, _ := cmd.Flags().GetString("type")
		return withStash(cmd, func(state *appState, stash api.ChunkStash) error {
			if typ == "" {
				typ = state.cfg.Chunk.DefaultType
			}
			t, err := chunktype.Parse(typ)
			if err != nil {
				return fmt.Errorf("invalid chunk type %q: %w", typ, err)
			}
			c, err := chunk.New(t, []byte(args[0]))
			if err != nil {
				return err
			}
			id, err := stash.Put(c)
			if err != nil {
				return err
			}
			state.logger.Debug("stashed chunk", "id", id.String(), "crc", c.CRC())
			fmt.Fprintln(cmd.OutOrStdout(), id.String())
			return nil
		})
	},
}

var stashGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a stashed message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid stash id %q: %w", args[0], err)
		}
		return withStash(cmd, func(state *appState, stash api.ChunkStash) error {
			c, err := stash.Get(id)
			if err != nil {
				return err
			}
			message, err := c.DataAsString()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), message)
			return nil
		})
	},
}

var stashListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stashed chunks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStash(cmd, func(state *appState, stash api.ChunkStash) error {
			entries, err := stash.List()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tLENGTH\tCRC\tCREATED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", e.ID, e.Chunk.Type(), e.Chunk.Length(),
					e.Chunk.CRC(), e.ID.Time().UTC().Format("2006-01-02T15:04:05Z"))
			}
			return w.Flush()
		})
	},
}

var stashDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stashed chunk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid stash id %q: %w", args[0], err)
		}
		return withStash(cmd, func(state *appState, stash api.ChunkStash) error {
			if err := stash.Delete(id); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("no stashed chunk %s", id)
				}
				return err
			}
			cmd.Printf("Deleted %s\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(stashCmd)
	stashCmd.AddCommand(stashPutCmd, stashGetCmd, stashListCmd, stashDeleteCmd)

	stashPutCmd.Flags().StringP("type", "t", "", "Chunk type (default: chunk.default_type from config)")
}

// withStash opens the stash from the container, runs fn and closes it
func withStash(cmd *cobra.Command, fn func(*appState, api.ChunkStash) error) error {
	state, err := stateFrom(cmd)
	if err != nil {
		return err
	}
	stash, err := openStash(state)
	if err != nil {
		return err
	}
	defer stash.Close()
	return fn(state, stash)
}

func openStash(state *appState) (api.ChunkStash, error) {
	if container == nil {
		return nil, errors.New("dependency container not initialized")
	}
	if err := os.MkdirAll(state.cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return container.GetStashFactory().OpenStash(storage.Config{
		Dir:          filepath.Join(state.cfg.DataDir, "stash"),
		MaxChunkSize: state.cfg.Chunk.MaxSize,
	})
}
