/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/pngme/pkg/png"
)

// printCmd represents the print command
var printCmd = &cobra.Command{
	Use:   "print <file>",
	Short: "Print every chunk of a PNG file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := stateFrom(cmd)
		if err != nil {
			return err
		}

		p, err := png.ReadFile(args[0], state.pngOptions())
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), p.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(printCmd)
}
