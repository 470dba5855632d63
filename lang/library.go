package lang

import "github.com/sergev/sbasic/diagnostics"

// LibraryID identifies a runtime library. The set is closed: the compiler
// refers to libraries by ID and the engine indexes its instances with it.
type LibraryID int

const (
	LibraryProgram LibraryID = iota
	LibraryStack
	LibraryTextWindow
	LibraryMath
	LibraryText
	LibraryArray
	LibraryClock
	LibraryTimer

	LibraryCount
)

var libraryNames = [LibraryCount]string{
	LibraryProgram:    "Program",
	LibraryStack:      "Stack",
	LibraryTextWindow: "TextWindow",
	LibraryMath:       "Math",
	LibraryText:       "Text",
	LibraryArray:      "Array",
	LibraryClock:      "Clock",
	LibraryTimer:      "Timer",
}

func (id LibraryID) String() string {
	if id < 0 || id >= LibraryCount {
		return "unknown"
	}
	return libraryNames[id]
}

// LookupLibrary finds a library by its case-sensitive name.
func LookupLibrary(name string) (LibraryID, bool) {
	for id, n := range libraryNames {
		if n == name {
			return LibraryID(id), true
		}
	}
	return 0, false
}

// Executable implements a library member. It pops its own arguments from the
// evaluation stack (the last argument is on top) and pushes its result, if any.
type Executable func(e *Engine, mode Mode, rng diagnostics.Range)

// Method is a callable library member.
type Method struct {
	Arity        int
	ReturnsValue bool
	Execute      Executable
}

// Property is a library member read or written like a variable. A nil Get or
// Set means the property does not support that access.
type Property struct {
	Get Executable
	Set Executable
}

// LibraryInstance is one library's executable members, owned by a single
// engine together with whatever private state the library keeps.
type LibraryInstance struct {
	ID         LibraryID
	Methods    map[string]Method
	Properties map[string]Property
	Events     map[string]bool

	// Install, when set, runs once as the engine is created.
	Install func(e *Engine)
}
