// Package dispatcher implements the JSON-RPC 2.0 message loop shared by
// both the client and the server halves of the runtime. Grounded on
// original_source's qmcpclient.cpp and qmcpserver.cpp, whose dispatch loops
// are near-identical modulo which side originates which methods — this
// package is the single implementation both mcpgopher/client and
// mcpgopher/server build on.
package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mcpgopher/runtime/mcp"
	"github.com/mcpgopher/runtime/transport"
)

// RequestHandler answers an inbound request and returns its result (or an
// *Error to be sent back as a JSON-RPC error object). The context is
// cancelled if the peer sends notifications/cancelled for this request.
type RequestHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// NotificationHandler processes an inbound notification; it has no result
// to send back.
type NotificationHandler func(ctx context.Context, params json.RawMessage)

type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type pendingCall struct {
	result chan json.RawMessage
	err    chan error
}

// Dispatcher owns one session's request/response bookkeeping: classifying
// inbound frames (response vs request vs notification), matching responses
// to outstanding calls, and routing inbound requests/notifications to
// registered handlers. Pending-call and in-flight maps are keyed by the
// request ID's raw JSON text, so integer and string IDs coexist.
type Dispatcher struct {
	conn transport.Conn
	ids  *mcp.IDAllocator
	log  zerolog.Logger

	mu        sync.Mutex
	pending   map[string]*pendingCall
	cancelled map[string]struct{}

	inflightMu sync.Mutex
	inflight   map[string]context.CancelFunc

	handlerMu            sync.RWMutex
	requestHandlers      map[string]RequestHandler
	notificationHandlers map[string][]NotificationHandler
}

// New builds a Dispatcher bound to a single session's connection.
func New(conn transport.Conn, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		conn:                 conn,
		ids:                  mcp.NewIDAllocator(),
		log:                  log,
		pending:              make(map[string]*pendingCall),
		cancelled:            make(map[string]struct{}),
		inflight:             make(map[string]context.CancelFunc),
		requestHandlers:      make(map[string]RequestHandler),
		notificationHandlers: make(map[string][]NotificationHandler),
	}
}

// HandleRequest registers the handler invoked for inbound requests with the
// given method.
func (d *Dispatcher) HandleRequest(method string, h RequestHandler) {
	d.handlerMu.Lock()
	defer d.handlerMu.Unlock()
	d.requestHandlers[method] = h
}

// HandleNotification registers a handler invoked for inbound notifications
// with the given method. Multiple handlers may be registered for one method;
// they run in registration order.
func (d *Dispatcher) HandleNotification(method string, h NotificationHandler) {
	d.handlerMu.Lock()
	defer d.handlerMu.Unlock()
	d.notificationHandlers[method] = append(d.notificationHandlers[method], h)
}

// Call sends a request and blocks until its response arrives, the context
// is cancelled, or the connection closes. Request IDs are strictly
// increasing integers assigned per dispatcher. If ctx expires before the
// response arrives, the peer is told via notifications/cancelled (never for
// initialize) and a late reply is dropped silently.
func (d *Dispatcher) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	idJSON := json.RawMessage(strconv.FormatInt(d.ids.Next(), 10))
	key := string(idJSON)

	env := envelope{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      idJSON,
		Method:  method,
	}
	if params != nil {
		paramsJSON, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		env.Params = paramsJSON
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	call := &pendingCall{result: make(chan json.RawMessage, 1), err: make(chan error, 1)}
	d.mu.Lock()
	d.pending[key] = call
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.pending, key)
		d.mu.Unlock()
	}()

	if err := d.conn.Send(ctx, payload); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	select {
	case res := <-call.result:
		return res, nil
	case err := <-call.err:
		return nil, err
	case <-ctx.Done():
		d.abandonCall(idJSON, method, ctx.Err().Error())
		return nil, ctx.Err()
	case <-d.conn.Done():
		return nil, fmt.Errorf("connection closed while waiting for %s", method)
	}
}

// Notify sends a one-way notification.
func (d *Dispatcher) Notify(ctx context.Context, method string, params interface{}) error {
	env := envelope{
		JSONRPC: mcp.JSONRPC_VERSION,
		Method:  method,
	}
	if params != nil {
		paramsJSON, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		env.Params = paramsJSON
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return d.conn.Send(ctx, payload)
}

// abandonCall marks id as cancelled so a late response is silently dropped,
// and advises the peer to stop working on it. A client never cancels its
// own initialize on the wire.
func (d *Dispatcher) abandonCall(id json.RawMessage, method, reason string) {
	key := string(id)
	d.mu.Lock()
	d.cancelled[key] = struct{}{}
	delete(d.pending, key)
	d.mu.Unlock()

	if method == string(mcp.MethodInitialize) {
		return
	}
	params := map[string]interface{}{"requestId": id, "reason": reason}
	if err := d.Notify(context.Background(), string(mcp.MethodNotificationCancelled), params); err != nil {
		d.log.Debug().Err(err).Str("id", key).Msg("failed to send cancellation notice")
	}
}

// Run drains the connection's inbound channel, classifying and routing
// every frame, until the connection closes or ctx is cancelled. Batches
// (a JSON array of envelopes) are dispatched element by element, in
// arrival order. Notifications and responses are processed inline;
// inbound requests each run in their own goroutine, so a handler may
// issue further calls over this same dispatcher.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case raw, ok := <-d.conn.Inbound():
			if !ok {
				return nil
			}
			d.dispatchFrame(ctx, raw)
		case <-ctx.Done():
			return ctx.Err()
		case <-d.conn.Done():
			return nil
		}
	}
}

func (d *Dispatcher) dispatchFrame(ctx context.Context, raw []byte) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(raw, &batch); err != nil {
			d.log.Error().Err(err).Msg("failed to decode batch")
			return
		}
		for _, item := range batch {
			d.dispatchOne(ctx, item)
		}
		return
	}
	d.dispatchOne(ctx, raw)
}

func (d *Dispatcher) dispatchOne(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.log.Error().Err(err).Msg("failed to decode message")
		return
	}

	switch d.classify(env) {
	case classResponse:
		d.routeResponse(env)
	case classNotification:
		d.routeNotification(ctx, env)
	case classRequest:
		d.routeRequest(ctx, env)
	default:
		d.log.Warn().Msg("message not handled")
	}
}

type messageClass int

const (
	classInvalid messageClass = iota
	classRequest
	classNotification
	classResponse
)

// classify implements the envelope classification rule: a message with an
// id and either a result or an error is a response; a message with a
// method and an id is an inbound request; a method alone is a
// notification. Anything else is not handled.
func (d *Dispatcher) classify(env envelope) messageClass {
	hasID := len(env.ID) > 0 && string(env.ID) != "null"
	if hasID && (env.Result != nil || env.Error != nil) {
		return classResponse
	}
	if env.Method != "" && hasID {
		return classRequest
	}
	if env.Method != "" {
		return classNotification
	}
	return classInvalid
}

func (d *Dispatcher) routeResponse(env envelope) {
	key := string(bytes.TrimSpace(env.ID))

	d.mu.Lock()
	if _, wasCancelled := d.cancelled[key]; wasCancelled {
		delete(d.cancelled, key)
		d.mu.Unlock()
		return
	}
	call, ok := d.pending[key]
	d.mu.Unlock()
	if !ok {
		d.log.Warn().Str("id", key).Msg("response for unknown or already-handled request")
		return
	}

	if env.Error != nil {
		call.err <- &Error{Code: env.Error.Code, Message: env.Error.Message}
		return
	}
	call.result <- env.Result
}

func (d *Dispatcher) routeNotification(ctx context.Context, env envelope) {
	if env.Method == string(mcp.MethodNotificationCancelled) {
		d.cancelInflight(env.Params)
	}

	d.handlerMu.RLock()
	handlers := append([]NotificationHandler(nil), d.notificationHandlers[env.Method]...)
	d.handlerMu.RUnlock()
	if len(handlers) == 0 {
		if env.Method != string(mcp.MethodNotificationCancelled) {
			d.log.Debug().Str("method", env.Method).Msg("no handler for notification")
		}
		return
	}
	for _, h := range handlers {
		d.invokeNotification(ctx, env.Method, h, env.Params)
	}
}

// invokeNotification shields the dispatch loop from a misbehaving handler:
// a panic is logged, not re-raised.
func (d *Dispatcher) invokeNotification(ctx context.Context, method string, h NotificationHandler, params json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("method", method).Interface("panic", r).Msg("notification handler panicked")
		}
	}()
	h(ctx, params)
}

// cancelInflight aborts the in-flight handler for the request named by a
// notifications/cancelled payload, if it is still running.
func (d *Dispatcher) cancelInflight(params json.RawMessage) {
	var body struct {
		RequestId json.RawMessage `json:"requestId"`
		Reason    string          `json:"reason,omitempty"`
	}
	if err := json.Unmarshal(params, &body); err != nil {
		d.log.Debug().Err(err).Msg("malformed cancellation notice")
		return
	}
	key := string(bytes.TrimSpace(body.RequestId))

	d.inflightMu.Lock()
	cancel, ok := d.inflight[key]
	d.inflightMu.Unlock()
	if !ok {
		d.log.Debug().Str("id", key).Msg("cancellation for unknown request")
		return
	}
	d.log.Debug().Str("id", key).Str("reason", body.Reason).Msg("cancelling in-flight request")
	cancel()
}

func (d *Dispatcher) routeRequest(ctx context.Context, env envelope) {
	d.handlerMu.RLock()
	h, ok := d.requestHandlers[env.Method]
	d.handlerMu.RUnlock()

	if !ok {
		d.sendError(ctx, env.ID, mcp.ErrorMethodNotFound, fmt.Sprintf("method not found: %s", env.Method))
		return
	}

	key := string(bytes.TrimSpace(env.ID))
	reqCtx, cancel := context.WithCancel(ctx)
	d.inflightMu.Lock()
	d.inflight[key] = cancel
	d.inflightMu.Unlock()

	go func() {
		defer func() {
			d.inflightMu.Lock()
			delete(d.inflight, key)
			d.inflightMu.Unlock()
			cancel()
		}()

		result, err := h(reqCtx, env.Params)
		if reqCtx.Err() != nil && ctx.Err() == nil {
			// Cancelled by the peer: it discards any reply, so send none.
			return
		}
		if err != nil {
			mcpErr, ok := err.(*Error)
			if !ok {
				mcpErr = &Error{Code: mcp.ErrorInternalError, Message: err.Error()}
			}
			d.sendError(ctx, env.ID, mcpErr.Code, mcpErr.Message)
			return
		}
		d.sendResult(ctx, env.ID, result)
	}()
}

func (d *Dispatcher) sendResult(ctx context.Context, id json.RawMessage, result interface{}) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		d.log.Error().Err(err).Msg("failed to marshal result")
		return
	}
	payload, err := json.Marshal(envelope{JSONRPC: mcp.JSONRPC_VERSION, ID: id, Result: resultJSON})
	if err != nil {
		d.log.Error().Err(err).Msg("failed to marshal response envelope")
		return
	}
	if err := d.conn.Send(ctx, payload); err != nil {
		d.log.Error().Err(err).Msg("failed to send response")
	}
}

func (d *Dispatcher) sendError(ctx context.Context, id json.RawMessage, code int, message string) {
	payload, err := json.Marshal(envelope{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Error:   &wireError{Code: code, Message: message},
	})
	if err != nil {
		d.log.Error().Err(err).Msg("failed to marshal error envelope")
		return
	}
	if err := d.conn.Send(ctx, payload); err != nil {
		d.log.Error().Err(err).Msg("failed to send error")
	}
}
