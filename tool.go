package agentscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// defaultGroup is the tool group that is active unless explicitly
// deactivated (§4.2).
const defaultGroup = "default"

// ToolSchema describes one callable unit surfaced to the model.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
	Strict      bool
	Group       string
}

// ToolContext is injected into every invocation alongside the parsed
// input map; it carries cancellation and call metadata (§4.2).
type ToolContext struct {
	context.Context
	CallID   string
	ToolName string
}

// Invoker is the callable side of a registered tool.
type Invoker func(ctx ToolContext, input map[string]any) (ToolResult, error)

type registeredTool struct {
	schema  ToolSchema
	invoke  Invoker
	compiled *jsonschema.Schema
}

type toolGroup struct {
	description string
	active      bool
}

// ToolRegistry is the C2 tool registry: named callable units with JSON
// schema, organized into toggleable groups. Safe for concurrent use;
// GetActiveSchemas snapshots under a read lock.
type ToolRegistry struct {
	mu     sync.RWMutex
	tools  map[string]*registeredTool
	groups map[string]*toolGroup
}

// NewToolRegistry builds an empty registry with the always-active
// "default" group pre-created.
func NewToolRegistry() *ToolRegistry {
	r := &ToolRegistry{
		tools:  make(map[string]*registeredTool),
		groups: make(map[string]*toolGroup),
	}
	r.groups[defaultGroup] = &toolGroup{description: "default tool group", active: true}
	return r
}

// Register adds schema+invoker under schema.Group (defaultGroup if
// empty). Returns an error if the name is already taken.
func (r *ToolRegistry) Register(schema ToolSchema, invoke Invoker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if schema.Group == "" {
		schema.Group = defaultGroup
	}
	if _, exists := r.tools[schema.Name]; exists {
		return NewToolError(schema.Name, "register", ErrToolAlreadyExists)
	}
	if _, exists := r.groups[schema.Group]; !exists {
		r.groups[schema.Group] = &toolGroup{active: true}
	}

	var compiled *jsonschema.Schema
	if len(schema.Parameters) > 0 {
		compiled, _ = compileSchema(schema.Name, schema.Parameters)
	}

	r.tools[schema.Name] = &registeredTool{schema: schema, invoke: invoke, compiled: compiled}
	return nil
}

// compileSchema builds a jsonschema.Schema from a plain map, used to
// validate invocation input before the invoker runs. Compile failures
// are non-fatal: the tool simply runs unvalidated.
func compileSchema(name string, params map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	resource := "tool://" + name + "/schema.json"
	if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}

// CreateGroup registers a named group with an explicit initial active
// state. Re-declaring an existing group overwrites its description and
// active flag.
func (r *ToolRegistry) CreateGroup(name, description string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[name] = &toolGroup{description: description, active: active}
}

// SetActiveGroups activates exactly the named groups and deactivates
// every other known group (default included, if omitted).
func (r *ToolRegistry) SetActiveGroups(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := make(map[string]bool, len(names))
	for _, n := range names {
		active[n] = true
	}
	for name, g := range r.groups {
		g.active = active[name]
	}
}

// UpdateToolGroups toggles the active flag of the named groups,
// creating any that don't yet exist.
func (r *ToolRegistry) UpdateToolGroups(names []string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		g, exists := r.groups[name]
		if !exists {
			g = &toolGroup{}
			r.groups[name] = g
		}
		g.active = active
	}
}

// GetActiveSchemas returns the schemas of every tool whose group is
// active, sorted by name for deterministic wire output.
func (r *ToolRegistry) GetActiveSchemas() []ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ToolSchema
	for _, t := range r.tools {
		if g, ok := r.groups[t.schema.Group]; ok && g.active {
			out = append(out, t.schema)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke runs the named tool against inputMap. Unknown-tool and
// inactive-group conditions, schema-validation failures, and invoker
// panics/errors all surface as an error ToolResultBlock's ToolResult
// (never as a returned error) — the kernel never fails on a tool
// error, it hands the result back to the model (§4.2, §7).
func (r *ToolRegistry) Invoke(ctx context.Context, callID, name string, inputMap map[string]any) ToolResult {
	r.mu.RLock()
	t, exists := r.tools[name]
	var groupActive bool
	if exists {
		if g, ok := r.groups[t.schema.Group]; ok {
			groupActive = g.active
		}
	}
	r.mu.RUnlock()

	if !exists {
		return errResult(callID, name, NewToolError(name, "invoke", ErrToolNotFound))
	}
	if !groupActive {
		return errResult(callID, name, NewToolError(name, "invoke", ErrGroupInactive))
	}
	if t.compiled != nil {
		if err := t.compiled.Validate(toAnyMap(inputMap)); err != nil {
			return errResult(callID, name, NewToolError(name, "validate", err))
		}
	}

	result, err := safeInvoke(t.invoke, ToolContext{Context: ctx, CallID: callID, ToolName: name}, inputMap)
	if err != nil {
		return errResult(callID, name, NewToolError(name, "invoke", err))
	}
	return result
}

func safeInvoke(invoke Invoker, ctx ToolContext, input map[string]any) (result ToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return invoke(ctx, input)
}

func errResult(callID, name string, err error) ToolResult {
	return ToolResult{
		ID:      callID,
		Name:    name,
		Output:  []ContentBlock{TextBlock("[tool error: " + err.Error() + "]")},
		IsError: true,
	}
}

// toAnyMap converts map[string]any to interface{} for jsonschema's
// Validate, which expects the same shape json.Unmarshal would produce.
func toAnyMap(m map[string]any) any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
