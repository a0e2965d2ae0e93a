package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/openai/openai-go"
	"github.com/spf13/cobra"

	"github.com/mcpgopher/runtime/client"
	"github.com/mcpgopher/runtime/mcp"
)

// newDemoStdioClientCmd spawns an MCP server as a subprocess over stdio and
// drives it with the dispatcher-based client.Client, the symmetric
// counterpart to server.Server that newServeCmd's "serve stdio" exposes on
// the other end of the same pipe. When --sampling-model is set, it wires an
// OpenAISamplingHandler so the spawned server can issue sampling/createMessage
// requests back to this process.
func newDemoStdioClientCmd() *cobra.Command {
	var command string
	var samplingModel string

	cmd := &cobra.Command{
		Use:   "demo-stdio-client",
		Short: "Spawn an MCP server over stdio and drive it with the dispatcher client",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			parts := strings.Fields(command)
			if len(parts) == 0 {
				return fmt.Errorf("--command must name a program to run")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			proc, err := client.NewStdioProcess(ctx, log, parts[0], parts[1:]...)
			if err != nil {
				return fmt.Errorf("failed to spawn server subprocess: %w", err)
			}
			defer proc.Close()

			opts := []client.ClientOption{client.WithClientDispatcherLogger(log)}
			if samplingModel != "" {
				handler := client.NewOpenAISamplingHandler(openai.NewClient(), samplingModel)
				opts = append(opts, client.WithSamplingHandler(handler.HandleCreateMessage))
			}

			mcpClient := client.NewClient(proc, opts...)
			go func() {
				if err := mcpClient.Run(ctx); err != nil {
					log.Debug().Err(err).Msg("client dispatcher loop stopped")
				}
			}()

			log.Info().Str("command", command).Msg("initializing connection")
			result, err := mcpClient.Initialize(ctx, mcp.ClientCapabilities{
				Sampling: &mcp.SamplingCapabilities{},
			})
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			log.Info().
				Str("server", result.ServerInfo.Name).
				Str("protocol_version", result.ProtocolVersion).
				Msg("connection initialized")

			raw, err := mcpClient.Call(ctx, string(mcp.MethodToolsList), map[string]interface{}{})
			if err != nil {
				return fmt.Errorf("tools/list failed: %w", err)
			}
			fmt.Printf("tools: %s\n", raw)

			openaiTools, err := client.OpenAIToolsFromListResult(raw)
			if err != nil {
				return fmt.Errorf("failed to convert tool list: %w", err)
			}
			for _, tool := range openaiTools {
				log.Info().Str("tool", tool.Function.Name).Msg("available for chat-completion routing")
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			return nil
		},
	}

	cmd.Flags().StringVar(&command, "command", "", "server command to spawn, e.g. \"mcpgopher serve stdio\"")
	cmd.Flags().StringVar(&samplingModel, "sampling-model", "", "OpenAI model to answer sampling/createMessage with; empty disables sampling support")
	_ = cmd.MarkFlagRequired("command")
	return cmd
}
