// Package main is the classnames CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/classnames/internal/config"
	"github.com/hyperjump/classnames/internal/server"
	"github.com/hyperjump/classnames/internal/suggest"
	"github.com/hyperjump/classnames/internal/tracing"
	"github.com/hyperjump/classnames/internal/watcher"
	"github.com/hyperjump/classnames/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/classnames/config.yaml"

var commands = []string{"join", "normalize", "generate", "server", "version", "help"}

// loadConfig loads config from path. When path is the default, it first looks for
// classnames.yaml in the current directory; if that exists it is used, so a
// project can carry its own settings. A missing default file is not an error:
// defaults and CLASSNAMES_* overrides apply.
// Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "classnames.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
		cfg, err := config.LoadOrDefault(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "join":
		runJoin()
	case "normalize":
		runNormalize()
	case "generate":
		runGenerate()
	case "server":
		runServer()
	case "version", "--version", "-v":
		fmt.Printf("classnames version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s%s\n", command, suggest.Hint(command, commands))
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, watch events, generation)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	gen := newGenerator(cfg, false, logger)
	watchOpts := []watcher.WatcherOption{
		watcher.WithDebounce(time.Duration(cfg.Generate.DebounceMS) * time.Millisecond),
		watcher.WithIgnoreSuffix(cfg.Generate.OutputSuffix),
	}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(
		cfg.Generate.Directories,
		cfg.Generate.Extensions,
		cfg.Generate.RecursiveOrDefault(),
		regenerate(gen, logger),
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExisting()

	// Persist watch changes only to a file that exists.
	persistPath := ""
	if _, err := os.Stat(resolvedConfigPath); err == nil {
		persistPath = resolvedConfigPath
	}
	tp, shutdownTracing, err := tracing.NewProvider(cfg.Tracing, os.Stderr)
	if err != nil {
		logger.Fatal("Failed to set up tracing", zap.Error(err))
	}
	otel.SetTracerProvider(tp)
	if cfg.Tracing.Enabled {
		logger.Info("tracing enabled", zap.Float64("sample_ratio", cfg.Tracing.SampleRatio))
	}

	srv := server.NewServer(&cfg.Server, logger, watchSvc, persistPath, cfg, server.WithTracerProvider(tp))
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("failed to flush spans", zap.Error(err))
	}
}

// reorderArgs moves flags (and their values) in front of the positional
// arguments so that flag.Parse sees them wherever they were written, and
// terminates them with "--" so positionals starting with "-" survive.
// Positional order is preserved; everything after a literal "--" is positional.
func reorderArgs(fs *flag.FlagSet, args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}
		name := strings.TrimLeft(a, "-")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			if fs.Lookup(name[:eq]) != nil {
				flags = append(flags, a)
			} else {
				positional = append(positional, a)
			}
			continue
		}
		f := fs.Lookup(name)
		if f == nil && (name == "h" || name == "help") {
			// flag.Parse answers these with the subcommand usage
			flags = append(flags, a)
			continue
		}
		if f == nil {
			// not one of ours: a class such as -mt-2
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
			continue
		}
		if i+1 < len(args) {
			flags = append(flags, args[i+1])
			i++
		}
	}
	out := make([]string, 0, len(flags)+len(positional)+1)
	out = append(out, flags...)
	out = append(out, "--")
	return append(out, positional...)
}

func printUsage() {
	fmt.Println(`classnames - Normalize and join CSS class names

Usage:
  classnames join [flags] <fragment>...        Join fragments into one class string
  classnames normalize [flags] <text>...       Trim and collapse whitespace
  classnames generate [flags] [dir]...         Fold //classnames:const directives into consts
  classnames server [flags]                    Start the HTTP server
  classnames version                           Show version
  classnames help                              Show this help

Join Flags:
  --output string    Output format: text or json (default: text)
  --server string    Server URL; when set, the join runs on the server
  --input string     JSON join request file ("-" for stdin); positional fragments are appended

Normalize Flags:
  --output string    Output format: text or json (default: text)

Generate Flags:
  --config string    Config file path (default: ./classnames.yaml, then /usr/local/etc/classnames/config.yaml)
  --check            Do not write; exit 1 if a generated file is missing or out of date
  --watch            Keep running and regenerate when Go files change
  --recursive        Also process every package below each dir
  --suffix string    Output file suffix (default: _classnames.go)
  --output string    Output format: text or json (default: text)
  --debug            Enable debug logging

Server Flags:
  --config string    Config file path
  --debug            Enable debug logging (requests, watch events, generation)

Fragments that start with "-" (such as -mt-2) are taken literally unless they
name a flag; put them after "--" to be explicit.

Examples:
  classnames join btn "  btn-primary " lg
  classnames join --output json -- -mt-2 flex
  echo '{"fragments":["btn",{"kind":"when","cond":false,"text":"active"}]}' | classnames join --input -
  classnames normalize "  card   shadow "
  classnames generate .
  classnames generate --check --recursive ./...
  classnames generate --watch --recursive ./ui
  classnames server --debug`)
}
