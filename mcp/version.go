package mcp

import (
	"encoding/json"
	"fmt"
)

// ProtocolVersion identifies one negotiated MCP wire version. A session
// settles on one during initialize (server/server.go's handleInitialize),
// and that value then gates which optional wire fields and content types
// are legal to serialize for the rest of the session, per spec.md §3.5.
type ProtocolVersion string

const (
	// ProtocolVersion20241105 is the protocol revision predating
	// annotations and audio content.
	ProtocolVersion20241105 ProtocolVersion = "2024-11-05"

	// ProtocolVersion20250326 introduced Annotated.Annotations and
	// AudioContent.
	ProtocolVersion20250326 ProtocolVersion = ProtocolVersion(LATEST_PROTOCOL_VERSION)
)

// SupportsAnnotations reports whether pv's wire format carries the
// Annotated mixin's "annotations" field. An unrecognized version defaults
// to the latest behavior, matching how a not-yet-negotiated session (the
// empty ProtocolVersion) should behave before initialize completes.
func (pv ProtocolVersion) SupportsAnnotations() bool {
	return pv != ProtocolVersion20241105
}

// SupportsAudioContent reports whether pv's wire format allows AudioContent
// at all; it was introduced alongside annotations.
func (pv ProtocolVersion) SupportsAudioContent() bool {
	return pv != ProtocolVersion20241105
}

// encodeAnnotated marshals v normally, then strips the "annotations" key
// entirely when pv predates the version it was introduced at. v must
// marshal to a JSON object.
func encodeAnnotated(v interface{}, pv ProtocolVersion) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if pv.SupportsAnnotations() {
		return raw, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	delete(obj, "annotations")
	return json.Marshal(obj)
}

// decodeAnnotated is encodeAnnotated's inverse: it strips "annotations"
// from data before unmarshalling into v when pv predates the version
// annotations were introduced at, so an older peer's payload never leaves
// stale annotation state on v.
func decodeAnnotated(data []byte, v interface{}, pv ProtocolVersion) error {
	if pv.SupportsAnnotations() {
		return json.Unmarshal(data, v)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	delete(obj, "annotations")
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// EncodeMCP serializes r for protocol version pv.
func (r Resource) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	return encodeAnnotated(r, pv)
}

// DecodeMCP decodes data into r for protocol version pv.
func (r *Resource) DecodeMCP(data []byte, pv ProtocolVersion) error {
	return decodeAnnotated(data, r, pv)
}

// EncodeMCP serializes t for protocol version pv.
func (t ResourceTemplate) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	return encodeAnnotated(t, pv)
}

// DecodeMCP decodes data into t for protocol version pv.
func (t *ResourceTemplate) DecodeMCP(data []byte, pv ProtocolVersion) error {
	return decodeAnnotated(data, t, pv)
}

// EncodeMCP serializes p for protocol version pv.
func (p Prompt) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	return encodeAnnotated(p, pv)
}

// DecodeMCP decodes data into p for protocol version pv.
func (p *Prompt) DecodeMCP(data []byte, pv ProtocolVersion) error {
	return decodeAnnotated(data, p, pv)
}

// EncodeMCP serializes t for protocol version pv. Tool's own "annotations"
// key carries ToolAnnotations behavior hints, not the Annotated mixin (the
// explicit field shadows the embedded one on the wire), so no gating
// applies here beyond the default struct-tag marshal.
func (t Tool) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	return json.Marshal(t)
}

// DecodeMCP decodes data into t for protocol version pv.
func (t *Tool) DecodeMCP(data []byte, pv ProtocolVersion) error {
	return json.Unmarshal(data, t)
}

// EncodeMCP serializes c for protocol version pv.
func (c TextContent) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	return encodeAnnotated(c, pv)
}

// DecodeMCP decodes data into c for protocol version pv.
func (c *TextContent) DecodeMCP(data []byte, pv ProtocolVersion) error {
	return decodeAnnotated(data, c, pv)
}

// EncodeMCP serializes c for protocol version pv.
func (c ImageContent) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	return encodeAnnotated(c, pv)
}

// DecodeMCP decodes data into c for protocol version pv.
func (c *ImageContent) DecodeMCP(data []byte, pv ProtocolVersion) error {
	return decodeAnnotated(data, c, pv)
}

// EncodeMCP serializes c for protocol version pv. Audio content does not
// exist before protocol version 2025-03-26 (spec.md §3.5); encoding it at
// an older negotiated version is rejected rather than silently dropped.
func (c AudioContent) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	if !pv.SupportsAudioContent() {
		return nil, fmt.Errorf("audio content requires protocol version %s or later, negotiated %s", ProtocolVersion20250326, pv)
	}
	return encodeAnnotated(c, pv)
}

// DecodeMCP decodes data into c for protocol version pv, rejecting audio
// content below the version it was introduced at.
func (c *AudioContent) DecodeMCP(data []byte, pv ProtocolVersion) error {
	if !pv.SupportsAudioContent() {
		return fmt.Errorf("audio content requires protocol version %s or later, negotiated %s", ProtocolVersion20250326, pv)
	}
	return decodeAnnotated(data, c, pv)
}

// EncodeMCP serializes e for protocol version pv. EmbeddedResource carries
// no Annotated mixin of its own.
func (e EmbeddedResource) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	return json.Marshal(e)
}

// EncodeMCP serializes t for protocol version pv. TextResourceContents
// carries no version-conditioned fields.
func (t TextResourceContents) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	return json.Marshal(t)
}

// EncodeMCP serializes b for protocol version pv. BlobResourceContents
// carries no version-conditioned fields.
func (b BlobResourceContents) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	return json.Marshal(b)
}

// EncodeMCP serializes m for protocol version pv.
func (m PromptMessage) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	content, err := m.Content.EncodeMCP(pv)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Role    Role            `json:"role"`
		Content json.RawMessage `json:"content"`
	}{Role: m.Role, Content: content})
}

// EncodeMCP serializes r for protocol version pv.
func (r ListResourcesResult) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	resources := make([]json.RawMessage, 0, len(r.Resources))
	for _, res := range r.Resources {
		raw, err := res.EncodeMCP(pv)
		if err != nil {
			return nil, err
		}
		resources = append(resources, raw)
	}
	return json.Marshal(struct {
		NextCursor Cursor            `json:"nextCursor,omitempty"`
		Resources  []json.RawMessage `json:"resources"`
	}{NextCursor: r.NextCursor, Resources: resources})
}

// EncodeMCP serializes r for protocol version pv.
func (r ListResourceTemplatesResult) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	templates := make([]json.RawMessage, 0, len(r.ResourceTemplates))
	for _, t := range r.ResourceTemplates {
		raw, err := t.EncodeMCP(pv)
		if err != nil {
			return nil, err
		}
		templates = append(templates, raw)
	}
	return json.Marshal(struct {
		NextCursor        Cursor            `json:"nextCursor,omitempty"`
		ResourceTemplates []json.RawMessage `json:"resourceTemplates"`
	}{NextCursor: r.NextCursor, ResourceTemplates: templates})
}

// EncodeMCP serializes r for protocol version pv.
func (r ReadResourceResult) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	contents := make([]json.RawMessage, 0, len(r.Contents))
	for _, c := range r.Contents {
		raw, err := c.EncodeMCP(pv)
		if err != nil {
			return nil, err
		}
		contents = append(contents, raw)
	}
	return json.Marshal(struct {
		Meta     map[string]interface{} `json:"_meta,omitempty"`
		Contents []json.RawMessage      `json:"contents"`
	}{Meta: r.Meta, Contents: contents})
}

// EncodeMCP serializes r for protocol version pv.
func (r ListToolsResult) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	tools := make([]json.RawMessage, 0, len(r.Tools))
	for _, t := range r.Tools {
		raw, err := t.EncodeMCP(pv)
		if err != nil {
			return nil, err
		}
		tools = append(tools, raw)
	}
	return json.Marshal(struct {
		NextCursor Cursor            `json:"nextCursor,omitempty"`
		Tools      []json.RawMessage `json:"tools"`
	}{NextCursor: r.NextCursor, Tools: tools})
}

// EncodeMCP serializes r for protocol version pv.
func (r CallToolResult) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	content := make([]json.RawMessage, 0, len(r.Content))
	for _, c := range r.Content {
		raw, err := c.EncodeMCP(pv)
		if err != nil {
			return nil, err
		}
		content = append(content, raw)
	}
	return json.Marshal(struct {
		Meta    map[string]interface{} `json:"_meta,omitempty"`
		Content []json.RawMessage      `json:"content"`
		IsError bool                   `json:"isError,omitempty"`
	}{Meta: r.Meta, Content: content, IsError: r.IsError})
}

// EncodeMCP serializes r for protocol version pv.
func (r ListPromptsResult) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	prompts := make([]json.RawMessage, 0, len(r.Prompts))
	for _, p := range r.Prompts {
		raw, err := p.EncodeMCP(pv)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, raw)
	}
	return json.Marshal(struct {
		NextCursor Cursor            `json:"nextCursor,omitempty"`
		Prompts    []json.RawMessage `json:"prompts"`
	}{NextCursor: r.NextCursor, Prompts: prompts})
}

// EncodeMCP serializes r for protocol version pv.
func (r GetPromptResult) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	messages := make([]json.RawMessage, 0, len(r.Messages))
	for _, m := range r.Messages {
		raw, err := m.EncodeMCP(pv)
		if err != nil {
			return nil, err
		}
		messages = append(messages, raw)
	}
	return json.Marshal(struct {
		Meta        map[string]interface{} `json:"_meta,omitempty"`
		Prompt      string                 `json:"prompt,omitempty"`
		Messages    []json.RawMessage      `json:"messages"`
		Description string                 `json:"description,omitempty"`
	}{Meta: r.Meta, Prompt: r.Prompt, Messages: messages, Description: r.Description})
}

// EncodeMCP serializes r for protocol version pv.
func (r CreateMessageResult) EncodeMCP(pv ProtocolVersion) (json.RawMessage, error) {
	content, err := r.Content.EncodeMCP(pv)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Meta       map[string]interface{} `json:"_meta,omitempty"`
		Role       Role                   `json:"role"`
		Content    json.RawMessage        `json:"content"`
		Model      string                 `json:"model"`
		StopReason string                 `json:"stopReason,omitempty"`
	}{Meta: r.Meta, Role: r.Role, Content: content, Model: r.Model, StopReason: r.StopReason})
}

// DecodeContent decodes one wire content object for protocol version pv,
// dispatching on its "type" discriminator and rejecting content variants
// pv predates (audio content requires 2025-03-26 or later).
func DecodeContent(data []byte, pv ProtocolVersion) (Content, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode content type: %w", err)
	}

	switch probe.Type {
	case "text":
		var c TextContent
		if err := c.DecodeMCP(data, pv); err != nil {
			return nil, err
		}
		return c, nil
	case "image":
		var c ImageContent
		if err := c.DecodeMCP(data, pv); err != nil {
			return nil, err
		}
		return c, nil
	case "audio":
		var c AudioContent
		if err := c.DecodeMCP(data, pv); err != nil {
			return nil, err
		}
		return c, nil
	case "resource":
		var wrapper struct {
			Resource json.RawMessage `json:"resource"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("decode embedded resource: %w", err)
		}
		var resourceMap map[string]any
		if err := json.Unmarshal(wrapper.Resource, &resourceMap); err != nil {
			return nil, fmt.Errorf("decode embedded resource contents: %w", err)
		}
		contents, err := ParseResourceContents(resourceMap)
		if err != nil {
			return nil, err
		}
		return NewEmbeddedResource(contents), nil
	default:
		return nil, fmt.Errorf("unsupported content type: %s", probe.Type)
	}
}
