package mcp

import (
	"encoding/json"
	"fmt"
)

// ParseCallToolResult parses a raw JSON message into a CallToolResult.
func ParseCallToolResult(rawMessage *json.RawMessage) (*CallToolResult, error) {
	if rawMessage == nil {
		return nil, fmt.Errorf("response is nil")
	}

	var jsonContent map[string]any
	if err := json.Unmarshal(*rawMessage, &jsonContent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var result CallToolResult

	meta, ok := jsonContent["_meta"]
	if ok {
		if metaMap, ok := meta.(map[string]any); ok {
			result.Meta = metaMap
		}
	}

	isError, ok := jsonContent["isError"]
	if ok {
		if isErrorBool, ok := isError.(bool); ok {
			result.IsError = isErrorBool
		}
	}

	contents, ok := jsonContent["content"]
	if !ok {
		return nil, fmt.Errorf("content is missing")
	}

	contentArr, ok := contents.([]any)
	if !ok {
		return nil, fmt.Errorf("content is not an array")
	}

	for _, content := range contentArr {
		// Extract content
		contentMap, ok := content.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("content is not an object")
		}

		// Process content
		content, err := ParseContent(contentMap)
		if err != nil {
			return nil, err
		}

		result.Content = append(result.Content, content)
	}

	return &result, nil
}

// ParseReadResourceResult parses a raw JSON message into a ReadResourceResult.
func ParseReadResourceResult(rawMessage *json.RawMessage) (*ReadResourceResult, error) {
	if rawMessage == nil {
		return nil, fmt.Errorf("response is nil")
	}

	var jsonContent map[string]any
	if err := json.Unmarshal(*rawMessage, &jsonContent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var result ReadResourceResult

	meta, ok := jsonContent["_meta"]
	if ok {
		if metaMap, ok := meta.(map[string]any); ok {
			result.Meta = metaMap
		}
	}

	contents, ok := jsonContent["contents"]
	if !ok {
		return nil, fmt.Errorf("contents is missing")
	}

	contentArr, ok := contents.([]any)
	if !ok {
		return nil, fmt.Errorf("contents is not an array")
	}

	for _, content := range contentArr {
		// Extract content
		contentMap, ok := content.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("content is not an object")
		}

		// Process content
		content, err := ParseResourceContents(contentMap)
		if err != nil {
			return nil, err
		}

		result.Contents = append(result.Contents, content)
	}

	return &result, nil
}

// ParseGetPromptResult parses a raw JSON message into a GetPromptResult.
func ParseGetPromptResult(rawMessage *json.RawMessage) (*GetPromptResult, error) {
	if rawMessage == nil {
		return nil, fmt.Errorf("response is nil")
	}

	var jsonContent map[string]any
	if err := json.Unmarshal(*rawMessage, &jsonContent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	result := GetPromptResult{}

	meta, ok := jsonContent["_meta"]
	if ok {
		if metaMap, ok := meta.(map[string]any); ok {
			result.Meta = metaMap
		}
	}

	description, ok := jsonContent["description"]
	if ok {
		if descriptionStr, ok := description.(string); ok {
			result.Description = descriptionStr
		}
	}

	messages, ok := jsonContent["messages"]
	if ok {
		messagesArr, ok := messages.([]any)
		if !ok {
			return nil, fmt.Errorf("messages is not an array")
		}

		for _, message := range messagesArr {
			messageMap, ok := message.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("message is not an object")
			}

			// Extract role
			roleStr := ExtractString(messageMap, "role")
			if roleStr == "" || (roleStr != string(RoleAssistant) && roleStr != string(RoleUser)) {
				return nil, fmt.Errorf("unsupported role: %s", roleStr)
			}

			// Extract content
			contentMap, ok := messageMap["content"].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("content is not an object")
			}

			// Process content
			content, err := ParseContent(contentMap)
			if err != nil {
				return nil, err
			}

			// Append processed message
			result.Messages = append(result.Messages, NewPromptMessage(Role(roleStr), content))
		}
	}

	return &result, nil
}

// ParseContent parses a content map into a Content interface.
func ParseContent(contentMap map[string]any) (Content, error) {
	contentType := ExtractString(contentMap, "type")

	switch contentType {
	case "text":
		text := ExtractString(contentMap, "text")
		return NewTextContent(text), nil

	case "image":
		data := ExtractString(contentMap, "data")
		mimeType := ExtractString(contentMap, "mimeType")
		if data == "" || mimeType == "" {
			return nil, fmt.Errorf("image data or mimeType is missing")
		}
		return NewImageContent(data, mimeType), nil

	case "audio":
		data := ExtractString(contentMap, "data")
		mimeType := ExtractString(contentMap, "mimeType")
		if data == "" || mimeType == "" {
			return nil, fmt.Errorf("audio data or mimeType is missing")
		}
		return NewAudioContent(data, mimeType), nil

	case "resource":
		resourceMap := ExtractMap(contentMap, "resource")
		if resourceMap == nil {
			return nil, fmt.Errorf("resource is missing")
		}

		resourceContents, err := ParseResourceContents(resourceMap)
		if err != nil {
			return nil, err
		}

		return NewEmbeddedResource(resourceContents), nil
	}

	return nil, fmt.Errorf("unsupported content type: %s", contentType)
}

// ParseResourceContents parses a resource contents map into a ResourceContents interface.
func ParseResourceContents(contentMap map[string]any) (ResourceContents, error) {
	uri := ExtractString(contentMap, "uri")
	if uri == "" {
		return nil, fmt.Errorf("resource uri is missing")
	}

	mimeType := ExtractString(contentMap, "mimeType")

	// Select by key presence, not value non-emptiness: a resource whose
	// text is the empty string is still a TextResourceContents, not an
	// unrecognized variant.
	if _, ok := contentMap["text"]; ok {
		return TextResourceContents{
			URI:      uri,
			MimeType: mimeType,
			Text:     ExtractString(contentMap, "text"),
		}, nil
	}

	if _, ok := contentMap["blob"]; ok {
		return BlobResourceContents{
			URI:      uri,
			MimeType: mimeType,
			Blob:     ExtractString(contentMap, "blob"),
		}, nil
	}

	return nil, fmt.Errorf("unsupported resource type")
}

// ParseCreateMessageRequest parses the params of an inbound
// sampling/createMessage request for protocol version pv, decoding each
// message's content through DecodeContent so version-gated variants (audio
// content) are rejected when pv predates them.
func ParseCreateMessageRequest(params []byte, pv ProtocolVersion) (*CreateMessageRequest, error) {
	var body struct {
		Messages         []json.RawMessage `json:"messages"`
		ModelPreferences *ModelPreferences `json:"modelPreferences,omitempty"`
		SystemPrompt     string            `json:"systemPrompt,omitempty"`
		IncludeContext   string            `json:"includeContext,omitempty"`
		Temperature      float64           `json:"temperature,omitempty"`
		MaxTokens        int               `json:"maxTokens"`
		StopSequences    []string          `json:"stopSequences,omitempty"`
		Metadata         interface{}       `json:"metadata,omitempty"`
	}
	if err := json.Unmarshal(params, &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal createMessage params: %w", err)
	}

	req := &CreateMessageRequest{Method: string(MethodSamplingCreateMessage)}
	req.Params.ModelPreferences = body.ModelPreferences
	req.Params.SystemPrompt = body.SystemPrompt
	req.Params.IncludeContext = body.IncludeContext
	req.Params.Temperature = body.Temperature
	req.Params.MaxTokens = body.MaxTokens
	req.Params.StopSequences = body.StopSequences
	req.Params.Metadata = body.Metadata

	for _, raw := range body.Messages {
		var msgEnvelope struct {
			Role    Role            `json:"role"`
			Content json.RawMessage `json:"content"`
		}
		if err := json.Unmarshal(raw, &msgEnvelope); err != nil {
			return nil, fmt.Errorf("decode sampling message: %w", err)
		}
		content, err := DecodeContent(msgEnvelope.Content, pv)
		if err != nil {
			return nil, err
		}
		req.Params.Messages = append(req.Params.Messages, SamplingMessage{Role: msgEnvelope.Role, Content: content})
	}

	return req, nil
}

// ParseCreateMessageResult parses a sampling/createMessage result for
// protocol version pv, decoding the content through DecodeContent so
// version-gated variants are rejected when pv predates them.
func ParseCreateMessageResult(raw []byte, pv ProtocolVersion) (*CreateMessageResult, error) {
	var body struct {
		Meta       map[string]interface{} `json:"_meta,omitempty"`
		Role       Role                   `json:"role"`
		Content    json.RawMessage        `json:"content"`
		Model      string                 `json:"model"`
		StopReason string                 `json:"stopReason,omitempty"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal createMessage result: %w", err)
	}
	content, err := DecodeContent(body.Content, pv)
	if err != nil {
		return nil, err
	}

	result := &CreateMessageResult{
		SamplingMessage: SamplingMessage{Role: body.Role, Content: content},
		Model:           body.Model,
		StopReason:      body.StopReason,
	}
	result.Meta = body.Meta
	return result, nil
}

// ExtractString extracts a string value from a map.
func ExtractString(data map[string]any, key string) string {
	if value, ok := data[key]; ok {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return ""
}

// ExtractMap extracts a map from a map.
func ExtractMap(data map[string]any, key string) map[string]any {
	if value, ok := data[key]; ok {
		if m, ok := value.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// NewTextContent creates a new TextContent with the given text.
func NewTextContent(text string) TextContent {
	return TextContent{
		Type: "text",
		Text: text,
	}
}

// NewImageContent creates a new ImageContent with the given data and MIME type.
func NewImageContent(data, mimeType string) ImageContent {
	return ImageContent{
		Type:     "image",
		Data:     data,
		MimeType: mimeType,
	}
}

// NewAudioContent creates a new AudioContent with the given data and MIME type.
func NewAudioContent(data, mimeType string) AudioContent {
	return AudioContent{
		Type:     "audio",
		Data:     data,
		MimeType: mimeType,
	}
}

// NewPromptMessage creates a new PromptMessage with the given role and content.
func NewPromptMessage(role Role, content Content) PromptMessage {
	return PromptMessage{
		Role:    role,
		Content: content,
	}
}

// NewEmbeddedResource creates a new EmbeddedResource with the given resource.
func NewEmbeddedResource(resource ResourceContents) EmbeddedResource {
	return EmbeddedResource{
		Type:     "resource",
		Resource: resource,
	}
}

// NewToolResultText creates a new CallToolResult with text content.
func NewToolResultText(text string) *CallToolResult {
	return &CallToolResult{
		Content: []Content{
			TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

// ToBoolPtr returns a pointer to the given boolean value.
func ToBoolPtr(b bool) *bool {
	return &b
}

// DecodeCompletionRef resolves CompleteRequest.Params.Ref, an untyped anyOf
// of ResourceReference and PromptReference distinguished by their "type"
// field ("ref/resource" or "ref/prompt"), into the concrete type it names.
func DecodeCompletionRef(ref interface{}) (interface{}, error) {
	raw, err := json.Marshal(ref)
	if err != nil {
		return nil, fmt.Errorf("marshal completion ref: %w", err)
	}

	var typed struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &typed); err != nil {
		return nil, fmt.Errorf("unmarshal completion ref: %w", err)
	}

	switch typed.Type {
	case "ref/resource":
		var r ResourceReference
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("unmarshal resource reference: %w", err)
		}
		return r, nil
	case "ref/prompt":
		var p PromptReference
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal prompt reference: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown completion ref type: %q", typed.Type)
	}
}