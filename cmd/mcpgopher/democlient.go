package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcpgopher/runtime/client"
)

// newDemoClientCmd adapts the teacher's standalone http_client_example.go
// into a cobra subcommand: connect to a running MCP server over Streamable
// HTTP, ping it, and print the response.
func newDemoClientCmd() *cobra.Command {
	var baseURL string
	var timeoutSec int

	cmd := &cobra.Command{
		Use:   "demo-client",
		Short: "Connect to a running MCP server and send a ping",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			mcpClient, err := client.NewHTTPClient(&client.Options{
				BaseURL: baseURL,
				Headers: map[string]string{"User-Agent": "mcpgopher-demo-client/0.2"},
				Timeout: timeoutSec,
			})
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			defer mcpClient.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeoutSec)*time.Second)
			defer cancel()

			log.Info().Str("base_url", baseURL).Msg("initializing connection")
			if err := mcpClient.Initialize(ctx); err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			log.Info().Str("session_id", mcpClient.GetSessionID()).Msg("connection initialized")

			result, err := mcpClient.Request(ctx, "ping", nil)
			if err != nil {
				return fmt.Errorf("ping request failed: %w", err)
			}
			var pretty map[string]interface{}
			_ = json.Unmarshal(result, &pretty)
			indented, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Printf("ping response: %s\n", indented)

			tools, err := mcpClient.OpenaiTools(ctx)
			if err != nil {
				return fmt.Errorf("tools/list failed: %w", err)
			}
			for _, tool := range tools {
				fmt.Printf("tool (openai declaration): %s\n", tool.Function.Name)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:62770", "MCP server base URL")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 30, "request timeout in seconds")
	return cmd
}
