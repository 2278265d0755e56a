package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/ssargent/pngme/pkg/chunk"
	"github.com/ssargent/pngme/pkg/chunktype"
	"github.com/ssargent/pngme/pkg/di"
	"github.com/ssargent/pngme/pkg/png"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns everything it printed
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	SetContainer(di.NewContainer())
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags clears values left behind by earlier executions of the
// package-level commands
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func mustChunk(t *testing.T, tag, data string) *chunk.Chunk {
	t.Helper()
	c, err := chunk.New(chunktype.MustParse(tag), []byte(data))
	require.NoError(t, err)
	return c
}

// writeTestPng writes a small PNG with a header-like chunk and IEND
func writeTestPng(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.png")
	p := png.New(
		mustChunk(t, "FrSt", "I am the first chunk"),
		mustChunk(t, "miDl", "I am another chunk"),
		mustChunk(t, "IEND", ""),
	)
	require.NoError(t, p.WriteFile(path, 0644))
	return path
}
