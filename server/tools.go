package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/mcpgopher/runtime/mcp"
	"github.com/mcpgopher/runtime/transport"
)

// ToolFunc implements one tool's behavior. args is the raw "arguments"
// object from the call; handlers that need typed access can walk it with
// gjson rather than unmarshalling into a bespoke struct for every tool.
type ToolFunc func(ctx context.Context, session transport.SessionID, args json.RawMessage) (*mcp.CallToolResult, error)

type registeredTool struct {
	spec mcp.Tool
	fn   ToolFunc
}

// ToolRegistry holds the server's explicitly registered tools. This
// replaces the original's QMetaObject-based reflection (there is no
// runtime parameter-name reflection in Go) with an explicit
// name+schema+handler registration, per the Design Notes' suggested
// "declare name, schema, and dispatch function" trait.
type ToolRegistry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]registeredTool

	onChanged func()
}

// NewToolRegistry builds an empty registry. onChanged, if non-nil, is
// invoked (debounced by the caller) whenever the tool set changes, so the
// server can emit notifications/tools/list_changed.
func NewToolRegistry(onChanged func()) *ToolRegistry {
	return &ToolRegistry{
		tools:     make(map[string]registeredTool),
		onChanged: onChanged,
	}
}

// Register adds a tool. Adding a new name is a list mutation and schedules
// tools/list_changed; registering a name that already exists replaces it in
// place, which the protocol has no per-tool notification for and so stays
// silent.
func (r *ToolRegistry) Register(spec mcp.Tool, fn ToolFunc) {
	r.mu.Lock()
	_, exists := r.tools[spec.Name]
	if !exists {
		r.order = append(r.order, spec.Name)
	}
	r.tools[spec.Name] = registeredTool{spec: spec, fn: fn}
	r.mu.Unlock()

	if !exists && r.onChanged != nil {
		r.onChanged()
	}
}

// Unregister removes a tool by name; a removal is a list mutation and
// schedules tools/list_changed. Removing an unknown name does nothing.
func (r *ToolRegistry) Unregister(name string) {
	r.mu.Lock()
	_, exists := r.tools[name]
	if exists {
		delete(r.tools, name)
		for i, n := range r.order {
			if n == name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if exists && r.onChanged != nil {
		r.onChanged()
	}
}

// List returns all registered tool specs in registration order.
func (r *ToolRegistry) List() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].spec)
	}
	return out
}

// Call invokes the named tool. It never returns a transport-level error for
// a failing tool body — per §7 error handling, tool failures are reported
// as CallToolResult{IsError: true}, not JSON-RPC errors.
func (r *ToolRegistry) Call(ctx context.Context, session transport.SessionID, name string, args json.RawMessage) (*mcp.CallToolResult, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	result, err := tool.fn(ctx, session, args)
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(err.Error())},
			IsError: true,
		}, nil
	}
	return result, nil
}

// ArgString reads a string argument out of a raw tool-call "arguments"
// object by JSON path, using gjson instead of a second hand-rolled JSON
// walker (mcp.ExtractString already covers the map[string]any case used by
// client-side result parsing; this is the server-side mirror for raw
// wire bytes).
func ArgString(args json.RawMessage, path string) (string, bool) {
	result := gjson.GetBytes(args, path)
	if !result.Exists() {
		return "", false
	}
	return result.String(), true
}
