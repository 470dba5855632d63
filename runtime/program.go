package runtime

import (
	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/lang"
)

func newProgram(*settings) *lang.LibraryInstance {
	return &lang.LibraryInstance{
		ID: lang.LibraryProgram,
		Methods: map[string]lang.Method{
			// Pause stops a Debug run; called again while paused it resumes.
			"Pause": {Execute: func(e *lang.Engine, mode lang.Mode, _ diagnostics.Range) {
				e.Pause(mode)
			}},
			"End": {Execute: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
				e.End()
			}},
		},
	}
}
