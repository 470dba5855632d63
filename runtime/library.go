package runtime

import (
	"sort"

	"github.com/sergev/sbasic/internal/invariant"
	"github.com/sergev/sbasic/lang"
)

// MethodInfo is the call signature of a library method.
type MethodInfo struct {
	Arity        int
	ReturnsValue bool
}

// PropertyInfo records which accesses a library property supports.
type PropertyInfo struct {
	HasGetter bool
	HasSetter bool
}

// LibraryInfo is the static description of a library used by the binder.
// Values returned by this package are shared and must not be modified.
type LibraryInfo struct {
	ID         lang.LibraryID
	Name       string
	Methods    map[string]MethodInfo
	Properties map[string]PropertyInfo
	Events     map[string]bool
}

// MemberNames lists methods, properties and events in sorted order.
func (l *LibraryInfo) MemberNames() []string {
	names := make([]string, 0, len(l.Methods)+len(l.Properties)+len(l.Events))
	for name := range l.Methods {
		names = append(names, name)
	}
	for name := range l.Properties {
		names = append(names, name)
	}
	for name := range l.Events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// registry is derived from a prototype set of instances, so the metadata the
// binder checks against always matches what the engine executes.
var registry = buildRegistry()

func buildRegistry() [lang.LibraryCount]LibraryInfo {
	var out [lang.LibraryCount]LibraryInfo
	for _, inst := range newInstances(defaultSettings()) {
		info := LibraryInfo{
			ID:         inst.ID,
			Name:       inst.ID.String(),
			Methods:    make(map[string]MethodInfo, len(inst.Methods)),
			Properties: make(map[string]PropertyInfo, len(inst.Properties)),
			Events:     make(map[string]bool, len(inst.Events)),
		}
		for name, m := range inst.Methods {
			info.Methods[name] = MethodInfo{Arity: m.Arity, ReturnsValue: m.ReturnsValue}
		}
		for name, p := range inst.Properties {
			info.Properties[name] = PropertyInfo{HasGetter: p.Get != nil, HasSetter: p.Set != nil}
		}
		for name := range inst.Events {
			info.Events[name] = true
		}
		out[inst.ID] = info
	}
	return out
}

// Info returns the metadata of a library.
func Info(id lang.LibraryID) *LibraryInfo {
	invariant.Precondition(id >= 0 && id < lang.LibraryCount, "library id %d out of range", int(id))
	return &registry[id]
}

// Lookup finds a library by name.
func Lookup(name string) (*LibraryInfo, bool) {
	id, ok := lang.LookupLibrary(name)
	if !ok {
		return nil, false
	}
	return Info(id), true
}

// Names lists all library names in sorted order.
func Names() []string {
	names := make([]string, 0, lang.LibraryCount)
	for i := range registry {
		names = append(names, registry[i].Name)
	}
	sort.Strings(names)
	return names
}

// newInstances creates a fresh instance of every library, indexed by ID.
func newInstances(s *settings) []*lang.LibraryInstance {
	libs := []*lang.LibraryInstance{
		newProgram(s),
		newStack(s),
		newTextWindow(s),
		newMath(s),
		newText(s),
		newArray(s),
		newClock(s),
		newTimer(s),
	}
	for i, lib := range libs {
		invariant.Invariant(lib.ID == lang.LibraryID(i), "library %s registered at index %d", lib.ID, i)
	}
	invariant.Invariant(len(libs) == int(lang.LibraryCount), "expected %d libraries, got %d", int(lang.LibraryCount), len(libs))
	return libs
}

func popString(e *lang.Engine) string {
	return e.Pop().ToValueString()
}

// popNumber reads a numeric argument. Text that is not a number reads as 0.
func popNumber(e *lang.Engine) float64 {
	f, _ := e.Pop().ToNumber()
	return f
}
