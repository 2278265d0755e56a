/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/pngme/pkg/chunk"
	"github.com/ssargent/pngme/pkg/png"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Check every chunk checksum in a PNG file",
	Long: `Stream through a PNG file and stop at the first chunk that fails
its length, type or CRC check.

Example:
  pngme verify ./dice.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := stateFrom(cmd)
		if err != nil {
			return err
		}

		count, size, err := verifyFile(args[0], state.pngOptions())
		if err != nil {
			if kind := chunk.KindOf(err); kind != 0 {
				state.logger.Error("integrity check failed", "file", args[0], "kind", kind.String())
			}
			return err
		}

		cmd.Printf("OK: %d chunks, %d bytes\n", count, size)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

// verifyFile reads path chunk by chunk and returns the chunk count and
// the total size including the signature
func verifyFile(path string, opts png.Options) (int, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader, err := png.NewReader(f, opts)
	if err != nil {
		return 0, 0, err
	}

	count := 0
	it := reader.Iterator()
	for it.Next() {
		count++
	}
	return count, reader.Offset(), it.Err()
}
