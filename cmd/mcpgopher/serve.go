package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mcpgopher/runtime/mcp"
	runtimeserver "github.com/mcpgopher/runtime/server"
	"github.com/mcpgopher/runtime/transport"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [stdio|sse]",
		Short: "Run the MCP server over stdio or SSE-over-HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			srv := buildDemoServer(log)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				cancel()
			}()

			switch args[0] {
			case "stdio":
				listener := transport.NewStdioListener(os.Stdin, os.Stdout, log)
				conn, err := listener.Accept(ctx)
				if err != nil {
					return fmt.Errorf("accept stdio session: %w", err)
				}
				return srv.Serve(ctx, conn)

			case "sse":
				listener := transport.NewSSEListener(log)
				httpSrv := &http.Server{Addr: addr, Handler: listener.Handler()}

				go func() {
					for {
						conn, err := listener.Accept(ctx)
						if err != nil {
							return
						}
						go func() {
							if err := srv.Serve(ctx, conn); err != nil {
								log.Error().Err(err).Msg("session ended")
							}
						}()
					}
				}()

				go func() {
					<-ctx.Done()
					httpSrv.Close()
				}()

				log.Info().Str("addr", addr).Msg("serving MCP over SSE")
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil

			default:
				return fmt.Errorf("unknown transport %q (want stdio or sse)", args[0])
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address for the sse transport")
	return cmd
}

// buildDemoServer wires a server with an illustrative tool, prompt and
// resource so "mcpgopher serve" is runnable out of the box.
func buildDemoServer(log zerolog.Logger) *runtimeserver.Server {
	srv := runtimeserver.New(
		runtimeserver.WithImplementation("mcpgopher", "0.2.0"),
		runtimeserver.WithInstructions("Demo MCP server exposing an echo tool and a static resource."),
		runtimeserver.WithLogger(log),
		runtimeserver.WithCompletionHandler(func(ctx context.Context, ref interface{}, argName, argValue string) (mcp.CompleteResult, error) {
			var result mcp.CompleteResult
			if p, ok := ref.(mcp.PromptReference); ok && p.Name == "greeting" && argName == "style" {
				for _, candidate := range []string{"formal", "casual", "enthusiastic"} {
					if len(argValue) == 0 || strings.HasPrefix(candidate, argValue) {
						result.Completion.Values = append(result.Completion.Values, candidate)
					}
				}
			}
			return result, nil
		}),
	)

	srv.Tools.Register(mcp.Tool{
		Name:        "echo",
		Description: "Echoes back the provided text",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
	}, func(ctx context.Context, session transport.SessionID, args json.RawMessage) (*mcp.CallToolResult, error) {
		text, _ := runtimeserver.ArgString(args, "text")
		return mcp.NewToolResultText(text), nil
	})

	srv.Prompts.Register(mcp.Prompt{
		Name:        "greeting",
		Description: "Produces a greeting in the requested style",
		Arguments: []mcp.PromptArgument{
			{Name: "style", Description: "formal, casual, or enthusiastic", Required: true},
		},
	}, func(ctx context.Context, args map[string]interface{}) (*mcp.GetPromptResult, error) {
		style, _ := args["style"].(string)
		text := fmt.Sprintf("Write a %s greeting.", style)
		return &mcp.GetPromptResult{
			Messages: []mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
			},
		}, nil
	})

	srv.Resources.Register(mcp.Resource{
		URI:      "mcpgopher://readme",
		Name:     "readme",
		MimeType: "text/plain",
	}, func(ctx context.Context, uri string) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: uri, MimeType: "text/plain", Text: "mcpgopher demo server"},
		}, nil
	})

	return srv
}
