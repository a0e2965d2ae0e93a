package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"

	"github.com/mcpgopher/runtime/mcp"
)

// OpenaiTools fetches the server's tool list and converts it into OpenAI
// chat-completion tool declarations. The client must already be
// initialized.
func (c *HTTPClient) OpenaiTools(ctx context.Context) ([]openai.ChatCompletionToolParam, error) {
	raw, err := c.RawRequest(ctx, "tools/list", map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tools/list response: %w", err)
	}
	return OpenAIToolsFromListResult(envelope.Result)
}

// OpenAIToolsFromListResult converts a tools/list result object into OpenAI
// chat-completion tool declarations, normalizing each inputSchema on the
// way, so a host can route the server's tools through the chat-completions
// API.
func OpenAIToolsFromListResult(raw []byte) ([]openai.ChatCompletionToolParam, error) {
	var result struct {
		Tools []struct {
			Name        string                 `json:"name"`
			Description string                 `json:"description,omitempty"`
			InputSchema map[string]interface{} `json:"inputSchema"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tools/list result: %w", err)
	}

	tools := make([]openai.ChatCompletionToolParam, 0, len(result.Tools))
	for _, t := range result.Tools {
		tool := openai.ChatCompletionToolParam{}
		tool.Function.Name = t.Name
		if t.Description != "" {
			tool.Function.Description = param.Opt[string]{
				Value:  t.Description,
				Status: 2,
			}
		}
		tool.Function.Parameters = normalizeSchema(t.InputSchema)
		tools = append(tools, tool)
	}
	return tools, nil
}

// OpenAISamplingHandler fulfils an inbound sampling/createMessage request by
// calling the OpenAI chat completions API with the given model, and is meant
// to be registered against a dispatcher's server-request handler table so a
// host application can answer MCP sampling requests without writing its own
// LLM plumbing.
type OpenAISamplingHandler struct {
	openaiClient openai.Client
	model        string
}

// NewOpenAISamplingHandler builds a sampling handler backed by an already
// configured OpenAI client.
func NewOpenAISamplingHandler(openaiClient openai.Client, model string) *OpenAISamplingHandler {
	return &OpenAISamplingHandler{openaiClient: openaiClient, model: model}
}

// HandleCreateMessage converts an MCP sampling request into an OpenAI chat
// completion call and maps the response back into the wire result shape.
func (h *OpenAISamplingHandler) HandleCreateMessage(ctx context.Context, req *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Params.Messages)+1)
	if req.Params.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.Params.SystemPrompt))
	}
	for _, m := range req.Params.Messages {
		text, ok := m.Content.(mcp.TextContent)
		if !ok {
			return nil, fmt.Errorf("sampling handler only supports text content, got %T", m.Content)
		}
		switch m.Role {
		case mcp.RoleUser:
			messages = append(messages, openai.UserMessage(text.Text))
		case mcp.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(text.Text))
		default:
			return nil, fmt.Errorf("unsupported sampling role: %s", m.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    h.model,
		Messages: messages,
	}
	if req.Params.MaxTokens > 0 {
		params.MaxTokens = param.Opt[int64]{Value: int64(req.Params.MaxTokens)}
	}
	if req.Params.Temperature > 0 {
		params.Temperature = param.Opt[float64]{Value: req.Params.Temperature}
	}

	completion, err := h.openaiClient.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	choice := completion.Choices[0]

	return &mcp.CreateMessageResult{
		SamplingMessage: mcp.SamplingMessage{
			Role:    mcp.RoleAssistant,
			Content: mcp.NewTextContent(choice.Message.Content),
		},
		Model:      completion.Model,
		StopReason: string(choice.FinishReason),
	}, nil
}

// normalizeSchema normalizes the schema structure
func normalizeSchema(schema map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	// Copy all elements except those to be excluded
	for k, v := range schema {
		if k != "annotations" && k != "outputSchema" {
			result[k] = v
		}
	}

	// Handle specific schema types
	schemaType, ok := schema["type"].(string)
	if ok {
		switch schemaType {
		case "array":
			// Add default items if not present
			if _, hasItems := result["items"]; !hasItems {
				result["items"] = map[string]interface{}{
					"type": "string",
				}
			}
		case "object":
			// Process nested properties
			properties, hasProps := result["properties"].(map[string]interface{})
			if hasProps {
				for propName, propValue := range properties {
					if propValueMap, ok := propValue.(map[string]interface{}); ok {
						properties[propName] = normalizeSchema(propValueMap)
					}
				}
				result["properties"] = properties
			}
		}
	}

	return result
}
