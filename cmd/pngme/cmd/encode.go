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

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode <file> <type> <message> [output]",
	Short: "Hide a message in a PNG file",
	Long: `Append a chunk of the given type carrying message to a PNG file.
The chunk is inserted before IEND. Without output the file is rewritten in place.

Example:
  pngme encode ./dice.png ruSt "This is a secret message!"
  pngme encode ./dice.png ruSt "This is a secret message!" ./out.png`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := stateFrom(cmd)
		if err != nil {
			return err
		}

		output := args[0]
		if len(args) == 4 {
			output = args[3]
		}

		c, err := encodeMessage(args[0], output, args[1], args[2], state.pngOptions())
		if err != nil {
			return err
		}
		if c.Type().IsCritical() {
			state.logger.Warn("message stored in a critical chunk; image decoders may reject the file", "type", c.Type().String())
		}
		state.logger.Debug("encoded message", "file", output, "type", c.Type().String(), "crc", c.CRC())

		cmd.Printf("Encoded %d bytes into %s chunk of %s\n", c.Length(), c.Type(), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
}

// encodeMessage adds a message chunk to the PNG at input and writes the result to output
func encodeMessage(input, output, typ, message string, opts png.Options) (*chunk.Chunk, error) {
	t, err := chunktype.Parse(typ)
	if err != nil {
		return nil, fmt.Errorf("invalid chunk type %q: %w", typ, err)
	}

	p, err := png.ReadFile(input, opts)
	if err != nil {
		return nil, err
	}

	if opts.MaxChunkSize > 0 && uint64(len(message)) > uint64(opts.MaxChunkSize) {
		return nil, fmt.Errorf("message is %d bytes: %w", len(message), chunk.ErrPayloadTooLarge)
	}
	c, err := chunk.New(t, []byte(message))
	if err != nil {
		return nil, err
	}

	p.AppendChunk(c)
	if err := p.WriteFile(output, 0644); err != nil {
		return nil, err
	}
	return c, nil
}
