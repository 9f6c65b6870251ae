package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/classnames/internal/cli"
	"github.com/hyperjump/classnames/internal/config"
	"github.com/hyperjump/classnames/internal/generate"
	"github.com/hyperjump/classnames/internal/watcher"
	"github.com/hyperjump/classnames/pkg/utils"
	"go.uber.org/zap"
)

func runGenerate() {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	check := fs.Bool("check", false, "do not write; fail if generated files are out of date")
	watch := fs.Bool("watch", false, "keep running and regenerate on changes")
	recursive := fs.Bool("recursive", false, "also process packages below each dir")
	suffix := fs.String("suffix", "", "output file suffix (default from config)")
	output := fs.String("output", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(reorderArgs(fs, os.Args[2:]))

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *suffix != "" {
		cfg.Generate.OutputSuffix = *suffix
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *watch && *check {
		fmt.Fprintln(os.Stderr, "-watch and -check cannot be combined")
		os.Exit(1)
	}
	gen := newGenerator(cfg, *check, logger)
	rec := wantRecursive(cfg, *recursive)
	if *watch {
		if err := watchAndGenerate(gen, cfg, fs.Args(), rec, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Watch failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	dirs, err := expandDirs(fs.Args(), rec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid directory: %v\n", err)
		os.Exit(1)
	}
	results, err := gen.GenerateAll(context.Background(), dirs)
	if werr := cli.WriteGenerateResults(os.Stdout, results, format); werr != nil {
		fmt.Fprintf(os.Stderr, "Write failed: %v\n", werr)
		os.Exit(1)
	}
	if err != nil {
		cli.WriteErrors(os.Stderr, err)
		os.Exit(1)
	}
}

func newGenerator(cfg *config.Config, check bool, logger *zap.Logger) *generate.Generator {
	return generate.New(generate.Options{
		Directive:    cfg.Generate.Directive,
		OutputSuffix: cfg.Generate.OutputSuffix,
		Check:        check,
	}, logger)
}

// wantRecursive reports whether packages below each dir are included: the
// -recursive flag or generate.recursive in the config turns it on.
func wantRecursive(cfg *config.Config, flagSet bool) bool {
	return flagSet || cfg.Generate.RecursiveOrDefault()
}

// expandDirs turns the positional args into package directories. No args
// means the current directory; a trailing "/..." makes that one arg recursive.
func expandDirs(args []string, recursive bool) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	var dirs []string
	seen := make(map[string]bool)
	for _, arg := range args {
		dir, rec := splitPattern(arg)
		found, err := generate.PackageDirs(dir, rec || recursive)
		if err != nil {
			return nil, err
		}
		for _, d := range found {
			if !seen[d] {
				seen[d] = true
				dirs = append(dirs, d)
			}
		}
	}
	return dirs, nil
}

// splitPattern strips a trailing "/..." from arg and reports whether it was there.
func splitPattern(arg string) (string, bool) {
	if arg != "..." && !strings.HasSuffix(arg, "/...") {
		return arg, false
	}
	dir := strings.TrimSuffix(strings.TrimSuffix(arg, "..."), "/")
	if dir == "" {
		dir = "."
	}
	return dir, true
}

// regenerate returns the watcher callback: one generation run per changed
// directory, with failures logged rather than fatal.
func regenerate(gen *generate.Generator, logger *zap.Logger) func(dir string) {
	return func(dir string) {
		res, err := gen.Generate(context.Background(), dir)
		switch {
		case errors.Is(err, generate.ErrNoGoFiles):
			logger.Debug("skipping directory without Go files", zap.String("dir", dir))
		case err != nil:
			for _, d := range generate.Diagnostics(err) {
				logger.Error("directive not folded", zap.String("diagnostic", d.Error()))
			}
			if len(generate.Diagnostics(err)) == 0 {
				logger.Error("generate failed", zap.String("dir", dir), zap.Error(err))
			}
		case res.Written || res.Removed:
			logger.Info("regenerated", zap.String("dir", dir), zap.Int("consts", len(res.Consts)))
		}
	}
}

func watchAndGenerate(gen *generate.Generator, cfg *config.Config, args []string, recursive bool, logger *zap.Logger) error {
	if len(args) == 0 {
		args = []string{"."}
	}
	roots := make([]string, 0, len(args))
	for _, a := range args {
		dir, rec := splitPattern(a)
		recursive = recursive || rec
		dirs, err := generate.PackageDirs(dir, false)
		if err != nil {
			return err
		}
		roots = append(roots, dirs...)
	}

	w := watcher.NewWatcher(
		roots,
		cfg.Generate.Extensions,
		recursive,
		regenerate(gen, logger),
		watcher.WithDebounce(time.Duration(cfg.Generate.DebounceMS)*time.Millisecond),
		watcher.WithIgnoreSuffix(cfg.Generate.OutputSuffix),
		watcher.WithLogger(logger),
	)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()
	w.SyncExisting()
	logger.Info("watching for changes", zap.Strings("dirs", roots), zap.Bool("recursive", recursive))
	<-ctx.Done()
	logger.Info("stopped watching")
	return nil
}
