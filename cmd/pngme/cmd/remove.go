/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/pngme/pkg/chunk"
	"github.com/ssargent/pngme/pkg/chunktype"
	"github.com/ssargent/pngme/pkg/png"
)

// removeCmd represents the remove command
var removeCmd = &cobra.Command{
	Use:   "remove <file> <type>",
	Short: "Remove a hidden message from a PNG file",
	Long: `Remove the first chunk of the given type and rewrite the file.

Example:
  pngme remove ./dice.png ruSt`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := stateFrom(cmd)
		if err != nil {
			return err
		}

		c, err := removeMessage(args[0], args[1], state.pngOptions())
		if err != nil {
			return err
		}
		state.logger.Debug("removed chunk", "file", args[0], "type", c.Type().String(), "crc", c.CRC())

		cmd.Printf("Removed %s chunk (%d bytes) from %s\n", c.Type(), c.Length(), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func removeMessage(path, typ string, opts png.Options) (*chunk.Chunk, error) {
	t, err := chunktype.Parse(typ)
	if err != nil {
		return nil, fmt.Errorf("invalid chunk type %q: %w", typ, err)
	}

	p, err := png.ReadFile(path, opts)
	if err != nil {
		return nil, err
	}

	c, err := p.RemoveFirstChunk(t)
	if err != nil {
		return nil, err
	}
	if err := p.WriteFile(path, 0644); err != nil {
		return nil, err
	}
	return c, nil
}
