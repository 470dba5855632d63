package runtime

import (
	"fmt"
	"io"

	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/lang"
)

const clearScreen = "\x1b[H\x1b[2J"

// textWindow writes program output to a stream. Reads suspend the engine
// until the driver supplies a line.
type textWindow struct {
	out        io.Writer
	title      string
	foreground string
}

func newTextWindow(s *settings) *lang.LibraryInstance {
	w := &textWindow{out: s.output, foreground: "Gray"}
	return &lang.LibraryInstance{
		ID: lang.LibraryTextWindow,
		Methods: map[string]lang.Method{
			"WriteLine":  {Arity: 1, Execute: w.writeLine},
			"Write":      {Arity: 1, Execute: w.write},
			"Read":       {ReturnsValue: true, Execute: w.read(lang.InputText)},
			"ReadNumber": {ReturnsValue: true, Execute: w.read(lang.InputNumber)},
			"Clear":      {Execute: w.clear},
		},
		Properties: map[string]lang.Property{
			"Title": {
				Get: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) { e.Push(lang.StringValue(w.title)) },
				Set: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) { w.title = popString(e) },
			},
			"ForegroundColor": {
				Get: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) { e.Push(lang.StringValue(w.foreground)) },
				Set: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) { w.foreground = popString(e) },
			},
		},
	}
}

func (w *textWindow) print(e *lang.Engine, text string) {
	if _, err := io.WriteString(w.out, text); err != nil {
		e.Logger().Debug("text window write failed", "err", err)
	}
}

func (w *textWindow) writeLine(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
	w.print(e, fmt.Sprintln(popString(e)))
}

func (w *textWindow) write(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
	w.print(e, popString(e))
}

func (w *textWindow) clear(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
	w.print(e, clearScreen)
}

func (w *textWindow) read(kind lang.InputKind) lang.Executable {
	return func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
		e.WaitForInput(kind)
	}
}
