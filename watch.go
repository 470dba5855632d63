package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watch checks path now and again after every change until ctx is done.
// The directory is watched because editors often replace files on save.
func (a *app) watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	a.recheck(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			a.logger.Debug("source changed", "path", ev.Name, "op", ev.Op.String())
			a.recheck(path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(a.stderr, "watch error: %v\n", err)
		}
	}
}

// recheck runs check and reports everything except compile failures, whose
// diagnostics are already printed.
func (a *app) recheck(path string) {
	if err := a.check(path); err != nil && !errors.Is(err, errCompile) {
		fmt.Fprintf(a.stderr, "%v\n", err)
	}
}
