// Package tools defines the tool invocation contract and the execution phase
// of the turn pipeline: confirmation gating, per-turn idempotency and
// panic-safe invocation of external integrations.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"bantz/internal/logging"
	"bantz/internal/schema"
)

// Result is the raw output of one tool invocation.
type Result struct {
	Content string
	Data    map[string]any
}

// Tool is the boundary contract for an external integration. Implementations
// live outside this core (calendar, mail, system actions); the pipeline only
// relies on this interface.
type Tool interface {
	Name() string
	Description() string
	RequiresConfirmation() bool
	Invoke(ctx context.Context, args map[string]any) (*Result, error)
}

// Registry resolves tool names to implementations. Near-miss names from the
// planner model are corrected to the closest registered tool.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger logging.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logging.WithComponent(logger, "tools"),
	}
}

// Register adds a tool. Registering an empty name is an error; re-registering
// a name replaces the previous tool.
func (r *Registry) Register(tool Tool) error {
	name := strings.TrimSpace(tool.Name())
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = tool
	return nil
}

// Get resolves name to a tool, falling back to fuzzy matching for
// hallucinated near-miss names.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if tool, ok := r.tools[name]; ok {
		return tool, nil
	}
	names := make([]string, 0, len(r.tools))
	for registered := range r.tools {
		names = append(names, registered)
	}
	if match, ok := schema.ClosestMatch(name, names); ok {
		r.logger.Warn("corrected tool name %q -> %q", name, match)
		return r.tools[match], nil
	}
	return nil, fmt.Errorf("tool not found: %s", name)
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DescribeForPrompt renders a compact tool list for planner prompts.
func (r *Registry) DescribeForPrompt() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		tool := r.tools[name]
		b.WriteString("- ")
		b.WriteString(name)
		if tool.RequiresConfirmation() {
			b.WriteString(" [requires confirmation]")
		}
		if desc := tool.Description(); desc != "" {
			b.WriteString(": ")
			b.WriteString(desc)
		}
		b.WriteString("\n")
	}
	return b.String()
}
