// Emissary is a conversational stand-in for a real person.
//
// It serves an HTTP chat API that answers as the configured persona,
// grounded in a summary and profile document. The agent records visitor
// contact details and unanswerable questions through tools, and every
// reply passes a quality gate before it is returned. Configuration is
// loaded from a single YAML file discovered automatically (see
// [config.DefaultSearchPaths]).
//
// Usage:
//
//	emissary serve             Start the API server
//	emissary init [dir]        Initialize a working directory with defaults
//	emissary ask <question>    Ask a single question (for testing)
//	emissary version           Print version and build information
//	emissary -o json version   Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/arpanb/emissary/internal/agent"
	"github.com/arpanb/emissary/internal/api"
	"github.com/arpanb/emissary/internal/buildinfo"
	"github.com/arpanb/emissary/internal/config"
	"github.com/arpanb/emissary/internal/evaluator"
	"github.com/arpanb/emissary/internal/llm"
	"github.com/arpanb/emissary/internal/notify"
	"github.com/arpanb/emissary/internal/persona"
	"github.com/arpanb/emissary/internal/records"
	"github.com/arpanb/emissary/internal/tools"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the emissary command. All OS-level
// dependencies are injected as parameters so that tests can drive the
// whole lifecycle. Arguments are parsed by hand: the flag package
// relies on package-level globals (flag.CommandLine), which makes it
// impossible to call run() concurrently from tests, and our argument
// surface is small.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, stderr, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: emissary ask <question>")
		}
		return runAsk(ctx, stdout, stderr, configPath, cmdArgs)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.RuntimeInfo()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	// Print fields in a stable order for human readability.
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Emissary - Conversational Persona Agent")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: emissary [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the API server")
	fmt.Fprintln(w, "  init [dir]   Initialize working directory with defaults (default: .)")
	fmt.Fprintln(w, "  ask          Ask a single question (for testing)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/emissary/config.yaml, /etc/emissary/config.yaml")
	return nil
}

// runAsk handles the "emissary ask <question>" subcommand. It boots the
// agent without the HTTP server or records store and answers a single
// question on stdout. Useful for smoke tests and prompt debugging.
func runAsk(ctx context.Context, stdout io.Writer, stderr io.Writer, configPath string, args []string) error {
	logger := newLogger(stderr, slog.LevelWarn)

	question := strings.Join(args, " ")

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Info("config loaded", "path", cfgPath)

	identity, err := persona.Load(cfg.Persona.Name, cfg.Persona.SummaryFile, cfg.Persona.ProfileFile)
	if err != nil {
		return fmt.Errorf("load persona: %w", err)
	}

	// No records store and no notifier for one-shots: the tools still
	// respond, they just have nowhere to persist.
	registry := tools.NewRegistry(logger)
	tools.RegisterBuiltins(registry, nil, notify.Nop{}, logger)

	engine := buildEngine(cfg, identity, registry, logger)

	reply, err := engine.Reply(ctx, nil, question)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Fprintln(stdout, reply)
	return nil
}

// runServe handles the "emissary serve" subcommand: full agent with the
// records store, notifications, and the HTTP API.
func runServe(ctx context.Context, stdout io.Writer, stderr io.Writer, configPath string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := newLogger(stdout, level)
	slog.SetDefault(logger)

	logger.Info("starting Emissary",
		"version", buildinfo.Version,
		"commit", buildinfo.GitCommit,
		"config", cfgPath,
	)

	identity, err := persona.Load(cfg.Persona.Name, cfg.Persona.SummaryFile, cfg.Persona.ProfileFile)
	if err != nil {
		return fmt.Errorf("load persona: %w", err)
	}
	logger.Info("persona loaded",
		"name", identity.Name,
		"summary_bytes", len(identity.Summary),
		"profile_bytes", len(identity.Profile),
	)

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	store, err := records.NewStore(filepath.Join(dataDir, "records.db"), logger)
	if err != nil {
		return fmt.Errorf("open records store: %w", err)
	}
	defer store.Close()

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Pushover.Token != "" && cfg.Pushover.User != "" {
		notifier = notify.NewPushoverClient(cfg.Pushover.Token, cfg.Pushover.User, logger)
		logger.Info("pushover notifications enabled")
	} else {
		logger.Info("pushover notifications disabled (not configured)")
	}

	registry := tools.NewRegistry(logger)
	tools.RegisterBuiltins(registry, store, notifier, logger)

	engine := buildEngine(cfg, identity, registry, logger)

	listen := fmt.Sprintf("%s:%d", cfg.Listen.Address, cfg.Listen.Port)
	server := api.NewServer(listen, engine, store, identity.Name, logger)

	// SIGINT/SIGTERM cancel the same ctx used by all components.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		_ = server.Shutdown(context.Background())
	}()

	// Blocks until the server is shut down (via context cancellation or
	// fatal error).
	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("Emissary stopped")
	return nil
}

// buildEngine wires the three model endpoints, the evaluator, and the
// tool registry into a conversation engine.
func buildEngine(cfg *config.Config, identity *persona.Identity, registry *tools.Registry, logger *slog.Logger) *agent.Engine {
	primary := llm.NewOpenAIClient(cfg.Primary.BaseURL, cfg.Primary.APIKey, logger)
	evalClient := llm.NewOpenAIClient(cfg.Evaluator.BaseURL, cfg.Evaluator.APIKey, logger)
	rerun := llm.NewOpenAIClient(cfg.Rerun.BaseURL, cfg.Rerun.APIKey, logger)

	return agent.New(agent.Config{
		Primary:       primary,
		PrimaryModel:  cfg.Primary.Model,
		Rerun:         rerun,
		RerunModel:    cfg.Rerun.Model,
		Evaluator:     evaluator.New(evalClient, cfg.Evaluator.Model, identity, logger),
		Registry:      registry,
		Identity:      identity,
		Logger:        logger,
		MaxToolRounds: cfg.MaxToolRounds(),
	})
}

// newLogger creates a structured text logger that writes to w at the
// given level. All log output in Emissary goes through slog; this helper
// standardizes the handler configuration across subcommands.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

// loadConfig locates and parses the YAML configuration file. If explicit
// is non-empty, that exact path is used (and must exist). Otherwise,
// [config.FindConfig] searches the default locations.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}
