package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mcpgopher/runtime/dispatcher"
	"github.com/mcpgopher/runtime/mcp"
	"github.com/mcpgopher/runtime/transport"
)

// SamplingFunc answers an inbound sampling/createMessage request — the
// client-side counterpart of server.ToolFunc. OpenAISamplingHandler's
// HandleCreateMessage method satisfies this signature.
type SamplingFunc func(ctx context.Context, req *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error)

// RootsFunc answers an inbound roots/list request.
type RootsFunc func(ctx context.Context) ([]mcp.Root, error)

// ClientOption configures a Client at construction time, mirroring
// server.Option's functional-options shape.
type ClientOption func(*Client)

// WithSamplingHandler registers the handler that answers inbound
// sampling/createMessage requests. Without one, the client reports the
// method unsupported.
func WithSamplingHandler(fn SamplingFunc) ClientOption {
	return func(c *Client) { c.sampling = fn }
}

// WithRootsHandler registers the handler that answers inbound roots/list
// requests. Without one, the client reports an empty root set.
func WithRootsHandler(fn RootsFunc) ClientOption {
	return func(c *Client) { c.roots = fn }
}

// WithClientInfo sets the clientInfo advertised during initialize.
func WithClientInfo(name, version string) ClientOption {
	return func(c *Client) { c.info = mcp.Implementation{Name: name, Version: version} }
}

// WithClientDispatcherLogger attaches a logger used for dispatch
// diagnostics.
func WithClientDispatcherLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// Client drives the client half of the MCP dispatcher (§4.6 of the
// runtime's lifecycle description) over a transport.Conn — the same
// session abstraction server.Server is built on — as opposed to
// HTTPClient, which speaks client/transport's Streamable HTTP protocol
// directly. Grounded on the same qmcpclient.cpp dispatch loop server.Server
// grounds its side on, applied here to the half that was previously
// unimplemented: a client that originates the handshake and answers
// server-initiated requests (sampling, roots) over any transport.Conn, such
// as the stdio subprocess StdioProcess provides.
type Client struct {
	conn       transport.Conn
	dispatcher *dispatcher.Dispatcher
	log        zerolog.Logger
	info       mcp.Implementation

	sampling SamplingFunc
	roots    RootsFunc

	mu              sync.Mutex
	protocolVersion string
	serverInfo      mcp.Implementation
}

// NewClient builds a Client bound to conn and registers its server-request
// handlers (sampling/createMessage, roots/list, ping). Call Run to start
// draining conn, then Initialize to perform the handshake.
func NewClient(conn transport.Conn, opts ...ClientOption) *Client {
	c := &Client{
		conn: conn,
		log:  zerolog.Nop(),
		info: mcp.Implementation{Name: "mcpgopher", Version: Version},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dispatcher = dispatcher.New(conn, c.log)
	c.registerHandlers()
	return c
}

func (c *Client) registerHandlers() {
	c.dispatcher.HandleRequest(string(mcp.MethodPing), func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return mcp.PingResult{}, nil
	})

	c.dispatcher.HandleRequest(string(mcp.MethodRootsList), func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		if c.roots == nil {
			return mcp.ListRootsResult{Roots: []mcp.Root{}}, nil
		}
		roots, err := c.roots(ctx)
		if err != nil {
			return nil, err
		}
		return mcp.ListRootsResult{Roots: roots}, nil
	})

	c.dispatcher.HandleRequest(string(mcp.MethodSamplingCreateMessage), func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		if c.sampling == nil {
			return nil, &dispatcher.Error{Code: mcp.ErrorMethodNotFound, Message: "sampling/createMessage is not supported by this client"}
		}
		req, err := mcp.ParseCreateMessageRequest(params, c.ProtocolVersion())
		if err != nil {
			return nil, fmt.Errorf("invalid sampling/createMessage params: %w", err)
		}
		result, err := c.sampling(ctx, req)
		if err != nil {
			return nil, err
		}
		return result.EncodeMCP(c.ProtocolVersion())
	})
}

// Run drains conn until it closes or ctx is cancelled, routing inbound
// server requests/notifications to the handlers registered above. Call
// this in a goroutine before Initialize, since initialize's response
// arrives over the same connection Run reads from.
func (c *Client) Run(ctx context.Context) error {
	return c.dispatcher.Run(ctx)
}

// clientSupportedProtocolVersions lists every protocolVersion this client
// accepts from a server's initialize response, newest first — mirroring
// server.supportedProtocolVersions for the opposite direction of the same
// handshake.
var clientSupportedProtocolVersions = []string{mcp.LATEST_PROTOCOL_VERSION, "2024-11-05"}

// Initialize performs the initialize/initialized handshake (§4.6's
// "Outbound request during initialization, client side"). On success it
// records the server's negotiated protocolVersion, provided it is one this
// client locally supports, so later inbound requests decode and outbound
// responses encode using that version's wire rules.
func (c *Client) Initialize(ctx context.Context, capabilities mcp.ClientCapabilities) (*mcp.InitializeResult, error) {
	raw, err := c.dispatcher.Call(ctx, string(mcp.MethodInitialize), map[string]interface{}{
		"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
		"capabilities":    capabilities,
		"clientInfo":      c.info,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize failed: %w", err)
	}

	var result mcp.InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("invalid initialize result: %w", err)
	}

	negotiated := ""
	for _, supported := range clientSupportedProtocolVersions {
		if supported == result.ProtocolVersion {
			negotiated = result.ProtocolVersion
			break
		}
	}
	if negotiated == "" {
		return nil, fmt.Errorf("server negotiated unsupported protocol version %q", result.ProtocolVersion)
	}

	c.mu.Lock()
	c.protocolVersion = negotiated
	c.serverInfo = result.ServerInfo
	c.mu.Unlock()

	if err := c.dispatcher.Notify(ctx, string(mcp.MethodNotificationInitialized), nil); err != nil {
		return nil, fmt.Errorf("failed to send initialized notification: %w", err)
	}

	return &result, nil
}

// ProtocolVersion returns the protocol version negotiated during
// Initialize, or the empty ProtocolVersion before it completes (treated by
// mcp.EncodeMCP/DecodeMCP as the latest version).
func (c *Client) ProtocolVersion() mcp.ProtocolVersion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return mcp.ProtocolVersion(c.protocolVersion)
}

// ServerInfo returns the server's advertised implementation info, valid
// after Initialize returns successfully.
func (c *Client) ServerInfo() mcp.Implementation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfo
}

// Call issues a request over the dispatcher and returns its raw result.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return c.dispatcher.Call(ctx, method, params)
}

// Notify sends a one-way notification over the dispatcher.
func (c *Client) Notify(ctx context.Context, method string, params interface{}) error {
	return c.dispatcher.Notify(ctx, method, params)
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
