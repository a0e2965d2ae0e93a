package server

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/yosida95/uritemplate/v3"

	"github.com/mcpgopher/runtime/mcp"
)

// ResourceReadFunc produces the contents for a resource or, for templated
// resources, for one URI matching the template.
type ResourceReadFunc func(ctx context.Context, uri string) ([]mcp.ResourceContents, error)

type registeredResource struct {
	spec mcp.Resource
	read ResourceReadFunc
}

type registeredTemplate struct {
	spec    mcp.ResourceTemplate
	matcher *regexp.Regexp
	read    ResourceReadFunc
}

// ResourceRegistry holds static resources, parameterized resource
// templates, and per-URI subscriptions. Grounded on qmcpserver.cpp's
// resource handlers.
type ResourceRegistry struct {
	mu        sync.RWMutex
	resources map[string]registeredResource
	order     []string
	templates []registeredTemplate

	subscriptions map[string]map[string]struct{}

	onListChanged func()
	onUpdated     func(uri string)
}

// NewResourceRegistry builds an empty registry. onListChanged fires
// (debounced by the caller) when the resource list gains or loses an entry;
// onUpdated fires when an existing resource is replaced in place.
func NewResourceRegistry(onListChanged func(), onUpdated func(uri string)) *ResourceRegistry {
	return &ResourceRegistry{
		resources:     make(map[string]registeredResource),
		subscriptions: make(map[string]map[string]struct{}),
		onListChanged: onListChanged,
		onUpdated:     onUpdated,
	}
}

// Register adds a concrete, fully-addressed resource. Adding a new URI is a
// list mutation and schedules resources/list_changed; registering a URI
// that already exists replaces it in place, which notifies subscribers via
// resources/updated and leaves the list untouched.
func (r *ResourceRegistry) Register(spec mcp.Resource, read ResourceReadFunc) {
	r.mu.Lock()
	_, exists := r.resources[spec.URI]
	if !exists {
		r.order = append(r.order, spec.URI)
	}
	r.resources[spec.URI] = registeredResource{spec: spec, read: read}
	r.mu.Unlock()

	if exists {
		if r.onUpdated != nil {
			r.onUpdated(spec.URI)
		}
		return
	}
	if r.onListChanged != nil {
		r.onListChanged()
	}
}

// Replace updates the resource at an already-registered URI and notifies
// its subscribers. It reports false, and does nothing, if the URI is
// unknown.
func (r *ResourceRegistry) Replace(spec mcp.Resource, read ResourceReadFunc) bool {
	r.mu.Lock()
	if _, exists := r.resources[spec.URI]; !exists {
		r.mu.Unlock()
		return false
	}
	r.resources[spec.URI] = registeredResource{spec: spec, read: read}
	r.mu.Unlock()

	if r.onUpdated != nil {
		r.onUpdated(spec.URI)
	}
	return true
}

// Remove deletes the resource at uri. A removal is a list mutation and
// schedules resources/list_changed; removing an unknown URI does nothing.
func (r *ResourceRegistry) Remove(uri string) {
	r.mu.Lock()
	_, exists := r.resources[uri]
	if exists {
		delete(r.resources, uri)
		for i, u := range r.order {
			if u == uri {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if exists && r.onListChanged != nil {
		r.onListChanged()
	}
}

// RegisterTemplate adds a parameterized resource template; matching URIs
// are read via read.
func (r *ResourceRegistry) RegisterTemplate(spec mcp.ResourceTemplate, read ResourceReadFunc) error {
	tmpl, err := uritemplate.New(spec.URITemplate.Raw())
	if err != nil {
		return fmt.Errorf("invalid resource template %q: %w", spec.Name, err)
	}
	matcher := tmpl.Regexp()

	r.mu.Lock()
	r.templates = append(r.templates, registeredTemplate{spec: spec, matcher: matcher, read: read})
	r.mu.Unlock()

	if r.onListChanged != nil {
		r.onListChanged()
	}
	return nil
}

// ListResources returns all concrete resources in registration order.
func (r *ResourceRegistry) ListResources() []mcp.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcp.Resource, 0, len(r.order))
	for _, uri := range r.order {
		out = append(out, r.resources[uri].spec)
	}
	return out
}

// ListTemplates returns all registered resource templates.
func (r *ResourceRegistry) ListTemplates() []mcp.ResourceTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcp.ResourceTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t.spec)
	}
	return out
}

// Read resolves uri against the concrete resource map first, then against
// each registered template in registration order.
func (r *ResourceRegistry) Read(ctx context.Context, uri string) ([]mcp.ResourceContents, error) {
	r.mu.RLock()
	res, ok := r.resources[uri]
	templates := r.templates
	r.mu.RUnlock()

	if ok {
		if res.read == nil {
			return nil, nil
		}
		return res.read(ctx, uri)
	}

	for _, t := range templates {
		if !t.matcher.MatchString(uri) {
			continue
		}
		if t.read == nil {
			return nil, nil
		}
		return t.read(ctx, uri)
	}

	return nil, &notFoundError{uri: uri}
}

type notFoundError struct{ uri string }

func (e *notFoundError) Error() string { return fmt.Sprintf("resource not found: %s", e.uri) }

// Subscribe records that the given session wants updates for uri.
func (r *ResourceRegistry) Subscribe(uri string, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subscriptions[uri] == nil {
		r.subscriptions[uri] = make(map[string]struct{})
	}
	r.subscriptions[uri][sessionID] = struct{}{}
}

// Unsubscribe removes a prior subscription.
func (r *ResourceRegistry) Unsubscribe(uri string, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subscriptions[uri], sessionID)
}

// Subscribers returns the session IDs currently watching uri.
func (r *ResourceRegistry) Subscribers(uri string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.subscriptions[uri]))
	for id := range r.subscriptions[uri] {
		out = append(out, id)
	}
	return out
}
