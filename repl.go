package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/sergev/sbasic/compiler"
	"github.com/sergev/sbasic/lang"
	"github.com/sergev/sbasic/runtime"
)

const continuationPrompt = ".... "

// repl compiles and runs one chunk at a time. Main-module variables carry
// over between chunks; sub-modules do not.
func (a *app) repl(ctx context.Context) error {
	in, closeIn := a.openInput(a.cfg.History)
	defer closeIn()

	var globals map[string]lang.Value
	var buffer strings.Builder
	for {
		prompt := a.cfg.Prompt
		if buffer.Len() > 0 {
			prompt = continuationPrompt
		}
		line, err := in.ReadLine(prompt)
		if err != nil {
			switch {
			case errors.Is(err, liner.ErrPromptAborted):
				fmt.Fprintln(a.stdout)
				buffer.Reset()
				continue
			case errors.Is(err, io.EOF):
				return nil
			default:
				return fmt.Errorf("read error: %w", err)
			}
		}
		buffer.WriteString(line)
		buffer.WriteString("\n")

		src := buffer.String()
		program, err := compiler.CompileProgram(src, compiler.WithLogger(a.logger))
		if err != nil {
			if compiler.IsIncomplete(err) {
				continue
			}
			a.reportDiagnostics("", compiler.Diagnostics(err))
			buffer.Reset()
			continue
		}
		buffer.Reset()
		if h, ok := in.(interface{ AppendHistory(string) }); ok {
			if trimmed := strings.TrimSpace(src); trimmed != "" {
				h.AppendHistory(trimmed)
			}
		}

		s := a.newSession(ctx, program, in, runtime.WithVariables(globals))
		if _, err := s.run(lang.ModeRun); err != nil {
			return err
		}
		// The diagnostic is already printed and the session goes on.
		if err := s.finish(a, ""); err != nil {
			a.logger.Debug("chunk failed", "error", err)
		}
		globals = s.engine.Globals()
		if ctx.Err() != nil {
			return nil
		}
	}
}
