package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcpgopher/runtime/mcp"
)

// PromptGetFunc renders a prompt template given its filled arguments.
type PromptGetFunc func(ctx context.Context, args map[string]interface{}) (*mcp.GetPromptResult, error)

type registeredPrompt struct {
	spec mcp.Prompt
	get  PromptGetFunc
}

// PromptRegistry holds the server's registered prompt templates.
type PromptRegistry struct {
	mu      sync.RWMutex
	order   []string
	prompts map[string]registeredPrompt

	onChanged func()
}

// NewPromptRegistry builds an empty registry.
func NewPromptRegistry(onChanged func()) *PromptRegistry {
	return &PromptRegistry{
		prompts:   make(map[string]registeredPrompt),
		onChanged: onChanged,
	}
}

// Register adds a prompt. Adding a new name is a list mutation and
// schedules prompts/list_changed; registering a name that already exists
// replaces it in place, silently.
func (r *PromptRegistry) Register(spec mcp.Prompt, get PromptGetFunc) {
	r.mu.Lock()
	_, exists := r.prompts[spec.Name]
	if !exists {
		r.order = append(r.order, spec.Name)
	}
	r.prompts[spec.Name] = registeredPrompt{spec: spec, get: get}
	r.mu.Unlock()

	if !exists && r.onChanged != nil {
		r.onChanged()
	}
}

// Unregister removes a prompt by name; a removal is a list mutation and
// schedules prompts/list_changed. Removing an unknown name does nothing.
func (r *PromptRegistry) Unregister(name string) {
	r.mu.Lock()
	_, exists := r.prompts[name]
	if exists {
		delete(r.prompts, name)
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

// List returns all registered prompts in registration order.
func (r *PromptRegistry) List() []mcp.Prompt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcp.Prompt, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.prompts[name].spec)
	}
	return out
}

// Get renders the named prompt with the given arguments.
func (r *PromptRegistry) Get(ctx context.Context, name string, args map[string]interface{}) (*mcp.GetPromptResult, error) {
	r.mu.RLock()
	p, ok := r.prompts[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
	return p.get(ctx, args)
}
