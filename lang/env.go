package lang

import (
	"sort"
	"strings"
)

// Env holds the variables of one frame. Frames do not share variables.
type Env struct {
	values map[string]Value
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{values: make(map[string]Value)}
}

// Set binds name to value.
func (e *Env) Set(name string, val Value) {
	e.values[name] = val
}

// Get retrieves a binding. Unset names read as the empty string.
func (e *Env) Get(name string) Value {
	return e.values[name]
}

// Lookup reports whether name has been assigned.
func (e *Env) Lookup(name string) (Value, bool) {
	val, ok := e.values[name]
	return val, ok
}

// HiddenPrefix starts the names of compiler-generated slots. No identifier
// can start with it, so programs never see these slots.
const HiddenPrefix = "#"

// Names returns the assigned program-visible names in sorted order.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		if !strings.HasPrefix(name, HiddenPrefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the program-visible bindings.
func (e *Env) Snapshot() map[string]Value {
	out := make(map[string]Value, len(e.values))
	for name, val := range e.values {
		if !strings.HasPrefix(name, HiddenPrefix) {
			out[name] = val
		}
	}
	return out
}
