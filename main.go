package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sergev/sbasic/image"
	"github.com/sergev/sbasic/internal/config"
	"github.com/sergev/sbasic/lang"
	"github.com/sergev/sbasic/runtime"
)

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool
	cfg        config.Config
	logger     *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sbasic: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sbasic [file]",
		Short:         "Compile and run SmallBasic programs",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.repl(cmd.Context())
			}
			return a.run(cmd.Context(), args[0])
		},
	}
	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to settings file (default "+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run a source file or program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args[0])
		},
	}

	var watch bool
	checkCmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Report diagnostics without running",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return a.watch(cmd.Context(), args[0])
			}
			return a.check(args[0])
		},
	}
	checkCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Check again whenever the file changes")

	var breakpoints []int
	debugCmd := &cobra.Command{
		Use:   "debug FILE",
		Short: "Run a program under the debugger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("break") {
				a.cfg.Breakpoints = breakpoints
			}
			return a.debug(cmd.Context(), args[0])
		},
	}
	debugCmd.Flags().IntSliceVarP(&breakpoints, "break", "b", nil, "Break at these source lines")

	var output string
	buildCmd := &cobra.Command{
		Use:   "build FILE",
		Short: "Compile a source file into a program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.build(args[0], output)
		},
	}
	buildCmd.Flags().StringVarP(&output, "output", "o", "", "Image path (default FILE with "+image.Extension+")")

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.repl(cmd.Context())
		},
	}

	rootCmd.AddCommand(runCmd, checkCmd, debugCmd, buildCmd, replCmd)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = a.verbose
	}
	a.cfg = cfg
	a.logger = newLogger(a.stderr, cfg.Verbose)
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func (a *app) run(ctx context.Context, path string) error {
	if a.cfg.Mode == "debug" {
		return a.debug(ctx, path)
	}
	program, _, err := a.load(path)
	if err != nil {
		return err
	}
	in, closeIn := a.openInput("")
	defer closeIn()

	s := a.newSession(ctx, program, in)
	if _, err := s.run(lang.ModeRun); err != nil {
		return err
	}
	return s.finish(a, path)
}

func (a *app) check(path string) error {
	src, err := runtime.ReadSource(path)
	if err != nil {
		return err
	}
	if _, err := a.compile(path, src); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s: ok\n", path)
	return nil
}

func (a *app) build(path, output string) error {
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + image.Extension
	}
	src, err := runtime.ReadSource(path)
	if err != nil {
		return err
	}
	program, err := a.compile(path, src)
	if err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	digest, err := image.Write(f, program, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	a.logger.Debug("wrote image", "path", output, "digest", fmt.Sprintf("blake2b:%x", digest))
	return nil
}
