package lang

import (
	"sort"
	"strings"

	"github.com/google/btree"
)

// Array is a persistent mapping from index strings to values. Updates return
// a new array sharing structure with the old one; iteration follows the order
// in which keys were first inserted.
type Array struct {
	entries *btree.BTreeG[arrayEntry]
	next    uint64
}

type arrayEntry struct {
	key   string
	seq   uint64
	value Value
}

func lessEntry(a, b arrayEntry) bool {
	return a.key < b.key
}

// ArrayEntry is one key/value pair of an array.
type ArrayEntry struct {
	Key   string
	Value Value
}

// NewArray returns an empty array.
func NewArray() *Array {
	return &Array{entries: btree.NewG[arrayEntry](8, lessEntry)}
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return a.entries.Len()
}

// Get looks up an element.
func (a *Array) Get(key string) (Value, bool) {
	e, ok := a.entries.Get(arrayEntry{key: key})
	if !ok {
		return Value{}, false
	}
	return e.value, true
}

// With returns a copy of the array with key set to value. The receiver is not
// modified.
func (a *Array) With(key string, value Value) *Array {
	out := &Array{entries: a.entries.Clone(), next: a.next}
	seq := out.next
	if old, ok := out.entries.Get(arrayEntry{key: key}); ok {
		seq = old.seq
	} else {
		out.next++
	}
	out.entries.ReplaceOrInsert(arrayEntry{key: key, seq: seq, value: value})
	return out
}

// Entries returns the elements in insertion order.
func (a *Array) Entries() []ArrayEntry {
	sorted := make([]arrayEntry, 0, a.entries.Len())
	a.entries.Ascend(func(e arrayEntry) bool {
		sorted = append(sorted, e)
		return true
	})
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].seq < sorted[j].seq })
	out := make([]ArrayEntry, len(sorted))
	for i, e := range sorted {
		out[i] = ArrayEntry{Key: e.key, Value: e.value}
	}
	return out
}

// Keys returns the indices in insertion order.
func (a *Array) Keys() []string {
	entries := a.Entries()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// ContainsValue reports whether any element equals v.
func (a *Array) ContainsValue(v Value) bool {
	found := false
	a.entries.Ascend(func(e arrayEntry) bool {
		found = e.value.IsEqualTo(v)
		return !found
	})
	return found
}

// Equal compares keys and values, ignoring insertion order.
func (a *Array) Equal(other *Array) bool {
	if a.Len() != other.Len() {
		return false
	}
	equal := true
	a.entries.Ascend(func(e arrayEntry) bool {
		v, ok := other.Get(e.key)
		equal = ok && e.value.IsEqualTo(v)
		return equal
	})
	return equal
}

var arrayEscaper = strings.NewReplacer(`\`, `\\`, `=`, `\=`, `;`, `\;`)

// String renders the array as key=value; pairs, escaping separators.
func (a *Array) String() string {
	var sb strings.Builder
	for _, e := range a.Entries() {
		sb.WriteString(arrayEscaper.Replace(e.Key))
		sb.WriteByte('=')
		sb.WriteString(arrayEscaper.Replace(e.Value.ToValueString()))
		sb.WriteByte(';')
	}
	return sb.String()
}

// DebugString renders the array for inspection.
func (a *Array) DebugString() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range a.Entries() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.Key)
		sb.WriteString(": ")
		sb.WriteString(e.Value.ToDebuggerString())
	}
	sb.WriteByte(']')
	return sb.String()
}
