package bash

import "mvdan.cc/sh/v3/expand"

// Value holds either a scalar string or an indexed array
type Value struct {
	Str     string
	List    []string
	Indexed bool
}

// String creates a scalar value
func String(s string) Value {
	return Value{Str: s}
}

// Array creates an indexed array value
func Array(items ...string) Value {
	list := make([]string, len(items))
	copy(list, items)
	return Value{List: list, Indexed: true}
}

// TypeName returns the Bash name of the value's shape
func (v Value) TypeName() string {
	if v.Indexed {
		return "indexed array"
	}
	return "string"
}

// variable converts the value for the shell expander
func (v Value) variable() expand.Variable {
	if v.Indexed {
		return expand.Variable{Kind: expand.Indexed, List: append([]string(nil), v.List...)}
	}
	return expand.Variable{Kind: expand.String, Str: v.Str}
}

// items returns what Bash yields for "${name[@]}"
func (v Value) items() []string {
	if v.Indexed {
		return append([]string(nil), v.List...)
	}
	return []string{v.Str}
}

// Variables is an insertion-ordered set of variable bindings
type Variables struct {
	names  []string
	values map[string]Value
}

// NewVariables creates an empty set of bindings
func NewVariables() *Variables {
	return &Variables{values: make(map[string]Value)}
}

// Set binds a name, keeping its original position if it was already bound
func (v *Variables) Set(name string, value Value) {
	if _, ok := v.values[name]; !ok {
		v.names = append(v.names, name)
	}
	v.values[name] = value
}

// Get looks up a binding
func (v *Variables) Get(name string) (Value, bool) {
	if v == nil {
		return Value{}, false
	}
	value, ok := v.values[name]
	return value, ok
}

// Names returns bound names in declaration order
func (v *Variables) Names() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.names...)
}

// Len returns the number of bindings
func (v *Variables) Len() int {
	if v == nil {
		return 0
	}
	return len(v.names)
}

// Clone returns an independent copy
func (v *Variables) Clone() *Variables {
	clone := NewVariables()
	for _, name := range v.Names() {
		value := v.values[name]
		if value.Indexed {
			value = Array(value.List...)
		}
		clone.Set(name, value)
	}
	return clone
}

// With returns a copy of v with extra scalar bindings applied in order.
// pairs alternates names and values.
func (v *Variables) With(pairs ...string) *Variables {
	clone := v.Clone()
	for i := 0; i+1 < len(pairs); i += 2 {
		clone.Set(pairs[i], String(pairs[i+1]))
	}
	return clone
}

// Functions maps function names to their raw bodies
type Functions map[string]string

// Merge returns a new map with the entries of other overriding f
func (f Functions) Merge(other Functions) Functions {
	merged := make(Functions, len(f)+len(other))
	for name, body := range f {
		merged[name] = body
	}
	for name, body := range other {
		merged[name] = body
	}
	return merged
}
