/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/pngme/pkg/chunktype"
	"github.com/ssargent/pngme/pkg/png"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <file> <type>",
	Short: "Print the message hidden in a PNG file",
	Long: `Print the payload of the first chunk of the given type as text.

Example:
  pngme decode ./dice.png ruSt`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := stateFrom(cmd)
		if err != nil {
			return err
		}

		message, err := decodeMessage(args[0], args[1], state.pngOptions())
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func decodeMessage(path, typ string, opts png.Options) (string, error) {
	t, err := chunktype.Parse(typ)
	if err != nil {
		return "", fmt.Errorf("invalid chunk type %q: %w", typ, err)
	}

	p, err := png.ReadFile(path, opts)
	if err != nil {
		return "", err
	}

	c := p.ChunkByType(t)
	if c == nil {
		return "", fmt.Errorf("no %s chunk in %s: %w", t, path, png.ErrChunkNotFound)
	}
	return c.DataAsString()
}
