// Command mcpgopher runs the MCP runtime's built-in server over a
// selectable transport, or drives it as a minimal demo client. Grounded on
// the cobra command-tree layout used across the pack's CLI tools
// (tmc-misc/cli-skeleton, tmc-misc/lsp-misc/tools/devflow-state).
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var logLevel string

func main() {
	root := &cobra.Command{
		Use:   "mcpgopher",
		Short: "Model Context Protocol runtime: server dispatcher and demo client",
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, error")

	root.AddCommand(newServeCmd())
	root.AddCommand(newDemoClientCmd())
	root.AddCommand(newDemoStdioClientCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
