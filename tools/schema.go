// Package tools provides a fluent JSON-schema builder for tool
// parameters and a builtin fetch tool. The tool registry itself (C2,
// with its toggleable groups) is ToolRegistry in the root package.
package tools

// Prop is a single named property in a fluent schema builder.
type Prop struct {
	name     string
	schema   map[string]any
	required bool
}

// Property starts a builder for a named property with the given
// sub-schema.
func Property(name string, schema map[string]any) Prop {
	return Prop{name: name, schema: schema}
}

// Required marks the property as required in the enclosing object.
func (p Prop) Required() Prop {
	p.required = true
	return p
}

// Object assembles an object JSON schema from a set of properties.
func Object(props ...Prop) map[string]any {
	properties := make(map[string]any, len(props))
	var required []string
	for _, p := range props {
		properties[p.name] = p.schema
		if p.required {
			required = append(required, p.name)
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func String(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func Int(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func Number(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func Bool(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func Enum(description string, values ...string) map[string]any {
	anyValues := make([]any, len(values))
	for i, v := range values {
		anyValues[i] = v
	}
	return map[string]any{"type": "string", "description": description, "enum": anyValues}
}

func Array(description string, items map[string]any) map[string]any {
	return map[string]any{"type": "array", "description": description, "items": items}
}
