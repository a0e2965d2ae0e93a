// Package server implements the MCP server dispatcher: per-session
// lifecycle state, the built-in method handlers (initialize, ping,
// resources/*, tools/*, prompts/*, logging/setLevel, completion/complete),
// and debounced list-changed notifications. Grounded on
// original_source/src/mcpserver/qmcpserver.cpp and qmcpserversession.cpp.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcpgopher/runtime/dispatcher"
	"github.com/mcpgopher/runtime/mcp"
	"github.com/mcpgopher/runtime/transport"
)

// Option configures a Server at construction time, in the functional-options
// shape of the localrivet-gomcp server's ServerOption (client.Options, by
// contrast, is a plain struct).
type Option func(*Server)

// WithImplementation sets the serverInfo advertised during initialize.
func WithImplementation(name, version string) Option {
	return func(s *Server) {
		s.info = mcp.Implementation{Name: name, Version: version}
	}
}

// WithInstructions sets the free-text usage instructions returned from
// initialize.
func WithInstructions(instructions string) Option {
	return func(s *Server) { s.instructions = instructions }
}

// WithLogger attaches a logger used for dispatch diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithListChangedDebounce overrides the coalescing window for
// list_changed notifications (default 50ms, matching one event-loop tick).
func WithListChangedDebounce(d time.Duration) Option {
	return func(s *Server) { s.debounce = d }
}

// supportedProtocolVersions lists every protocolVersion this server can
// negotiate, newest first.
var supportedProtocolVersions = []string{mcp.LATEST_PROTOCOL_VERSION, "2024-11-05"}

// Server holds the registries shared by every session (tools, resources,
// prompts) plus per-session dispatch state created in Serve.
type Server struct {
	info         mcp.Implementation
	instructions string
	log          zerolog.Logger
	debounce     time.Duration

	Tools     *ToolRegistry
	Resources *ResourceRegistry
	Prompts   *PromptRegistry

	toolsDebounce     *debouncer
	resourcesDebounce *debouncer
	promptsDebounce   *debouncer

	completion CompletionFunc

	mu       sync.Mutex
	sessions map[transport.SessionID]*session
}

// CompletionFunc answers completion/complete: given the decoded ref (a
// mcp.PromptReference or mcp.ResourceReference) and the argument being
// completed, it returns candidate values.
type CompletionFunc func(ctx context.Context, ref interface{}, argName, argValue string) (mcp.CompleteResult, error)

// WithCompletionHandler registers the handler used to answer
// completion/complete. Without one, the server reports the completions
// capability as absent and the method errors out.
func WithCompletionHandler(fn CompletionFunc) Option {
	return func(s *Server) { s.completion = fn }
}

// New builds a Server with its registries wired for debounced list-changed
// notification fan-out across every connected session.
func New(opts ...Option) *Server {
	s := &Server{
		info:     mcp.Implementation{Name: "mcpgopher", Version: "0.2.0"},
		log:      zerolog.Nop(),
		debounce: 50 * time.Millisecond,
		sessions: make(map[transport.SessionID]*session),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.toolsDebounce = newDebouncer(s.debounce, func() {
		s.broadcast(string(mcp.MethodNotificationToolsListChanged))
	})
	s.resourcesDebounce = newDebouncer(s.debounce, func() {
		s.broadcast(string(mcp.MethodNotificationResourcesListChanged))
	})
	s.promptsDebounce = newDebouncer(s.debounce, func() {
		s.broadcast(string(mcp.MethodNotificationPromptsListChanged))
	})

	s.Tools = NewToolRegistry(s.toolsDebounce.trigger)
	s.Resources = NewResourceRegistry(s.resourcesDebounce.trigger, s.NotifyResourceUpdated)
	s.Prompts = NewPromptRegistry(s.promptsDebounce.trigger)

	return s
}

// NotifyResourceUpdated sends notifications/resources/updated to every
// session currently subscribed to uri. The resource registry calls this
// whenever a resource is replaced in place; it is exported for integrators
// whose resource contents change out of band of the registry.
func (s *Server) NotifyResourceUpdated(uri string) {
	subscribers := s.Resources.Subscribers(uri)
	if len(subscribers) == 0 {
		return
	}
	want := make(map[string]struct{}, len(subscribers))
	for _, id := range subscribers {
		want[id] = struct{}{}
	}

	notification := mcp.ResourceUpdatedNotification{}
	notification.Params.URI = uri

	s.mu.Lock()
	sessions := make([]*session, 0, len(want))
	for id, sess := range s.sessions {
		if _, ok := want[id.String()]; ok {
			sessions = append(sessions, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		if err := sess.dispatcher.Notify(context.Background(), string(mcp.MethodNotificationResourceUpdated), notification.Params); err != nil {
			s.log.Error().Err(err).Str("uri", uri).Msg("failed to notify resource subscriber")
		}
	}
}

func (s *Server) broadcast(method string) {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		if err := sess.dispatcher.Notify(context.Background(), method, nil); err != nil {
			s.log.Error().Err(err).Str("method", method).Msg("failed to broadcast notification")
		}
	}
}

// session is the per-connection state: the handshake flag plus the
// dispatcher driving that connection's request/response traffic.
type session struct {
	id         transport.SessionID
	dispatcher *dispatcher.Dispatcher

	mu sync.Mutex
	// initializeReceived flips when the initialize request is accepted;
	// initialized only once the client confirms with
	// notifications/initialized. Every method but initialize and ping
	// requires the latter.
	initializeReceived bool
	initialized        bool
	protocolVersion    string
	clientInfo         mcp.Implementation
	minLogLevel        mcp.LoggingLevel
}

// version returns the protocol version this session negotiated during
// initialize, driving version-gated serialization (spec.md §3.5) of every
// result sent back on this session. Before initialize completes it reports
// the empty ProtocolVersion, which EncodeMCP treats as the latest version.
func (sess *session) version() mcp.ProtocolVersion {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return mcp.ProtocolVersion(sess.protocolVersion)
}

// Serve drives one accepted connection until it closes or ctx is
// cancelled. Call this once per transport.Conn (for SSE, once per accepted
// stream; for stdio, once for the listener's single session).
func (s *Server) Serve(ctx context.Context, conn transport.Conn) error {
	sess := &session{id: conn.ID(), dispatcher: dispatcher.New(conn, s.log)}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
	}()

	s.registerHandlers(sess)

	return sess.dispatcher.Run(ctx)
}

func (s *Server) registerHandlers(sess *session) {
	d := sess.dispatcher

	d.HandleRequest(string(mcp.MethodInitialize), s.handleInitialize(sess))
	d.HandleRequest(string(mcp.MethodPing), s.handlePing)
	d.HandleRequest(string(mcp.MethodResourcesList), s.requireInit(sess, s.handleListResources(sess)))
	d.HandleRequest(string(mcp.MethodResourcesTemplatesList), s.requireInit(sess, s.handleListResourceTemplates(sess)))
	d.HandleRequest(string(mcp.MethodResourcesRead), s.requireInit(sess, s.handleReadResource(sess)))
	d.HandleRequest(string(mcp.MethodToolsList), s.requireInit(sess, s.handleListTools(sess)))
	d.HandleRequest(string(mcp.MethodToolsCall), s.requireInit(sess, s.handleCallTool(sess)))
	d.HandleRequest(string(mcp.MethodPromptsList), s.requireInit(sess, s.handleListPrompts(sess)))
	d.HandleRequest(string(mcp.MethodPromptsGet), s.requireInit(sess, s.handleGetPrompt(sess)))
	d.HandleRequest("resources/subscribe", s.requireInit(sess, s.handleSubscribe(sess)))
	d.HandleRequest("resources/unsubscribe", s.requireInit(sess, s.handleUnsubscribe(sess)))
	d.HandleRequest(string(mcp.MethodCompleteList), s.requireInit(sess, s.handleComplete))
	d.HandleRequest(string(mcp.MethodLoggingSetLevel), s.requireInit(sess, s.handleSetLevel(sess)))

	d.HandleNotification(string(mcp.MethodNotificationInitialized), func(ctx context.Context, params json.RawMessage) {
		sess.mu.Lock()
		sess.initialized = true
		sess.mu.Unlock()
		s.log.Debug().Str("session", sess.id.String()).Msg("client confirmed initialization")
	})
}

// IsInitialized reports whether the session with the given ID has completed
// the initialize handshake, including the client's initialized notification.
func (s *Server) IsInitialized(id transport.SessionID) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.initialized
}

func (s *Server) handleInitialize(sess *session) dispatcher.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		sess.mu.Lock()
		if sess.initializeReceived {
			sess.mu.Unlock()
			return nil, &dispatcher.Error{Code: dispatcher.ErrorAlreadyInitialized, Message: "Initialized"}
		}
		sess.mu.Unlock()

		var req struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities  `json:"capabilities"`
			ClientInfo      mcp.Implementation      `json:"clientInfo"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("invalid initialize params: %w", err)
		}

		negotiated := ""
		for _, v := range supportedProtocolVersions {
			if v == req.ProtocolVersion {
				negotiated = v
				break
			}
		}
		if negotiated == "" {
			return nil, &dispatcher.Error{
				Code:    dispatcher.ErrorUnsupportedProtocolVersion,
				Message: fmt.Sprintf("Protocol Version %s is not supported", req.ProtocolVersion),
			}
		}

		sess.mu.Lock()
		sess.initializeReceived = true
		sess.protocolVersion = negotiated
		sess.clientInfo = req.ClientInfo
		sess.mu.Unlock()

		return mcp.InitializeResult{
			ProtocolVersion: negotiated,
			ServerInfo:      s.info,
			Instructions:    s.instructions,
			Capabilities: mcp.ServerCapabilities{
				Resources: &mcp.ResourcesCapabilities{Subscribe: true, ListChanged: true},
				Tools:     &mcp.ToolsCapabilities{ListChanged: true},
				Prompts:   &mcp.PromptsCapabilities{ListChanged: true},
			},
		}, nil
	}
}

func (s *Server) handlePing(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return mcp.PingResult{}, nil
}

// requireInit enforces the lifecycle invariant that no method but
// initialize/ping may run before the handshake completes.
func (s *Server) requireInit(sess *session, h dispatcher.RequestHandler) dispatcher.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		sess.mu.Lock()
		ok := sess.initialized
		sess.mu.Unlock()
		if !ok {
			return nil, &dispatcher.Error{Code: dispatcher.ErrorNotInitialized, Message: "Not initialized"}
		}
		return h(ctx, params)
	}
}

func (s *Server) handleListResources(sess *session) dispatcher.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var req mcp.ListResourcesRequest
		_ = json.Unmarshal(params, &req)
		offset, err := decodeCursor(req.Cursor)
		if err != nil {
			return nil, err
		}
		page, next := paginate(s.Resources.ListResources(), offset, defaultPageSize)
		result := mcp.ListResourcesResult{
			PaginatedResult: mcp.PaginatedResult{NextCursor: next},
			Resources:       page,
		}
		return result.EncodeMCP(sess.version())
	}
}

func (s *Server) handleListResourceTemplates(sess *session) dispatcher.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var req mcp.ListResourceTemplatesRequest
		_ = json.Unmarshal(params, &req)
		offset, err := decodeCursor(req.Cursor)
		if err != nil {
			return nil, err
		}
		page, next := paginate(s.Resources.ListTemplates(), offset, defaultPageSize)
		result := mcp.ListResourceTemplatesResult{
			PaginatedResult:   mcp.PaginatedResult{NextCursor: next},
			ResourceTemplates: page,
		}
		return result.EncodeMCP(sess.version())
	}
}

func (s *Server) handleReadResource(sess *session) dispatcher.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var req mcp.ReadResourceRequest
		if err := json.Unmarshal(params, &req.Params); err != nil {
			return nil, fmt.Errorf("invalid resources/read params: %w", err)
		}
		contents, err := s.Resources.Read(ctx, req.Params.URI)
		if err != nil {
			return nil, &dispatcher.Error{Code: mcp.ErrorResourceNotFound, Message: err.Error()}
		}
		result := mcp.ReadResourceResult{Contents: contents}
		return result.EncodeMCP(sess.version())
	}
}

func (s *Server) handleSubscribe(sess *session) dispatcher.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var req mcp.SubscribeRequest
		if err := json.Unmarshal(params, &req.Params); err != nil {
			return nil, fmt.Errorf("invalid resources/subscribe params: %w", err)
		}
		s.Resources.Subscribe(req.Params.URI, sess.id.String())
		return mcp.EmptyResult{}, nil
	}
}

func (s *Server) handleUnsubscribe(sess *session) dispatcher.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var req mcp.UnsubscribeRequest
		if err := json.Unmarshal(params, &req.Params); err != nil {
			return nil, fmt.Errorf("invalid resources/unsubscribe params: %w", err)
		}
		s.Resources.Unsubscribe(req.Params.URI, sess.id.String())
		return mcp.EmptyResult{}, nil
	}
}

func (s *Server) handleListTools(sess *session) dispatcher.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var req mcp.ListToolsRequest
		_ = json.Unmarshal(params, &req)
		offset, err := decodeCursor(req.Cursor)
		if err != nil {
			return nil, err
		}
		page, next := paginate(s.Tools.List(), offset, defaultPageSize)
		result := mcp.ListToolsResult{
			PaginatedResult: mcp.PaginatedResult{NextCursor: next},
			Tools:           page,
		}
		return result.EncodeMCP(sess.version())
	}
}

func (s *Server) handleCallTool(sess *session) dispatcher.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var req struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments,omitempty"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("invalid tools/call params: %w", err)
		}
		result, err := s.Tools.Call(ctx, sess.id, req.Name, req.Arguments)
		if err != nil {
			return nil, &dispatcher.Error{Code: mcp.ErrorToolNotFound, Message: err.Error()}
		}
		return result.EncodeMCP(sess.version())
	}
}

func (s *Server) handleListPrompts(sess *session) dispatcher.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var req mcp.ListPromptsRequest
		_ = json.Unmarshal(params, &req)
		offset, err := decodeCursor(req.Cursor)
		if err != nil {
			return nil, err
		}
		page, next := paginate(s.Prompts.List(), offset, defaultPageSize)
		result := mcp.ListPromptsResult{
			PaginatedResult: mcp.PaginatedResult{NextCursor: next},
			Prompts:         page,
		}
		return result.EncodeMCP(sess.version())
	}
}

// logLevelRank orders LoggingLevel from most to least verbose, per the
// syslog severity scale the protocol borrows.
var logLevelRank = map[mcp.LoggingLevel]int{
	mcp.LoggingLevelDebug:     0,
	mcp.LoggingLevelInfo:      1,
	mcp.LoggingLevelNotice:    2,
	mcp.LoggingLevelWarning:   3,
	mcp.LoggingLevelError:     4,
	mcp.LoggingLevelCritical:  5,
	mcp.LoggingLevelAlert:     6,
	mcp.LoggingLevelEmergency: 7,
}

func (s *Server) handleSetLevel(sess *session) dispatcher.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var req struct {
			Level mcp.LoggingLevel `json:"level"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("invalid logging/setLevel params: %w", err)
		}
		if _, known := logLevelRank[req.Level]; !known {
			return nil, fmt.Errorf("unknown logging level: %s", req.Level)
		}

		sess.mu.Lock()
		sess.minLogLevel = req.Level
		sess.mu.Unlock()
		return mcp.EmptyResult{}, nil
	}
}

// LogMessage sends a notifications/message to every session whose minimum
// logging level (set via logging/setLevel) is at or below level. A session
// that never called logging/setLevel receives nothing, matching the
// protocol's "logging starts disabled" default.
func (s *Server) LogMessage(level mcp.LoggingLevel, logger string, data interface{}) {
	notification := mcp.LoggingMessageNotification{}
	notification.Params.Level = level
	notification.Params.Logger = logger
	notification.Params.Data = data

	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		min := sess.minLogLevel
		sess.mu.Unlock()
		if min == "" || logLevelRank[level] < logLevelRank[min] {
			continue
		}
		if err := sess.dispatcher.Notify(context.Background(), string(mcp.MethodNotificationLoggingMessage), notification.Params); err != nil {
			s.log.Error().Err(err).Str("logger", logger).Msg("failed to deliver log notification")
		}
	}
}

func (s *Server) handleComplete(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.completion == nil {
		return nil, &dispatcher.Error{Code: mcp.ErrorMethodNotFound, Message: "completion/complete is not supported by this server"}
	}

	var req mcp.CompleteRequest
	if err := json.Unmarshal(params, &req.Params); err != nil {
		return nil, fmt.Errorf("invalid completion/complete params: %w", err)
	}

	ref, err := mcp.DecodeCompletionRef(req.Params.Ref)
	if err != nil {
		return nil, fmt.Errorf("invalid completion ref: %w", err)
	}

	return s.completion(ctx, ref, req.Params.Argument.Name, req.Params.Argument.Value)
}

func (s *Server) handleGetPrompt(sess *session) dispatcher.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var req struct {
			Name      string                 `json:"name"`
			Arguments map[string]interface{} `json:"arguments,omitempty"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("invalid prompts/get params: %w", err)
		}
		result, err := s.Prompts.Get(ctx, req.Name, req.Arguments)
		if err != nil {
			return nil, fmt.Errorf("prompt not found: %s", req.Name)
		}
		return result.EncodeMCP(sess.version())
	}
}
