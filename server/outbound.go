package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcpgopher/runtime/mcp"
	"github.com/mcpgopher/runtime/transport"
)

// lookupSession resolves a connected session by ID.
func (s *Server) lookupSession(id transport.SessionID) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown session: %s", id.String())
	}
	return sess, nil
}

// Ping checks liveness of the session's client.
func (s *Server) Ping(ctx context.Context, id transport.SessionID) error {
	sess, err := s.lookupSession(id)
	if err != nil {
		return err
	}
	_, err = sess.dispatcher.Call(ctx, string(mcp.MethodPing), nil)
	return err
}

// ListRoots asks the session's client for its root set.
func (s *Server) ListRoots(ctx context.Context, id transport.SessionID) ([]mcp.Root, error) {
	sess, err := s.lookupSession(id)
	if err != nil {
		return nil, err
	}
	raw, err := sess.dispatcher.Call(ctx, string(mcp.MethodRootsList), nil)
	if err != nil {
		return nil, err
	}
	var result mcp.ListRootsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("invalid roots/list result: %w", err)
	}
	return result.Roots, nil
}

// CreateMessage asks the session's client to produce a model completion
// (sampling/createMessage). The request's content and the returned content
// are serialized with the session's negotiated protocol version, the same
// gating the built-in handlers apply to their results.
func (s *Server) CreateMessage(ctx context.Context, id transport.SessionID, req *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	sess, err := s.lookupSession(id)
	if err != nil {
		return nil, err
	}

	pv := sess.version()
	messages := make([]json.RawMessage, 0, len(req.Params.Messages))
	for _, m := range req.Params.Messages {
		content, err := m.Content.EncodeMCP(pv)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(struct {
			Role    mcp.Role        `json:"role"`
			Content json.RawMessage `json:"content"`
		}{Role: m.Role, Content: content})
		if err != nil {
			return nil, err
		}
		messages = append(messages, encoded)
	}

	params := map[string]interface{}{
		"messages":  messages,
		"maxTokens": req.Params.MaxTokens,
	}
	if req.Params.ModelPreferences != nil {
		params["modelPreferences"] = req.Params.ModelPreferences
	}
	if req.Params.SystemPrompt != "" {
		params["systemPrompt"] = req.Params.SystemPrompt
	}
	if req.Params.IncludeContext != "" {
		params["includeContext"] = req.Params.IncludeContext
	}
	if req.Params.Temperature != 0 {
		params["temperature"] = req.Params.Temperature
	}
	if len(req.Params.StopSequences) > 0 {
		params["stopSequences"] = req.Params.StopSequences
	}
	if req.Params.Metadata != nil {
		params["metadata"] = req.Params.Metadata
	}

	raw, err := sess.dispatcher.Call(ctx, string(mcp.MethodSamplingCreateMessage), params)
	if err != nil {
		return nil, err
	}
	return mcp.ParseCreateMessageResult(raw, pv)
}
