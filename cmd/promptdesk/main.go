// Promptdesk serves and manages the system prompts for an AI coding
// assistant.
//
// It exposes an HTTP API for the chat UI and a CLI for inspecting and
// editing the prompt registry. Configuration is loaded from a single
// YAML file discovered automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	promptdesk serve                   Start the API server
//	promptdesk init [dir]              Initialize a working directory with defaults
//	promptdesk list                    List the registered prompt variants
//	promptdesk render [id]             Print a rendered prompt (default: selected)
//	promptdesk select <id>             Choose the prompt variant the chat uses
//	promptdesk custom show             Print the saved custom prompt override
//	promptdesk custom save <file|->    Save a custom prompt override
//	promptdesk custom reset            Remove the custom prompt override
//	promptdesk settings export         Print every stored setting
//	promptdesk settings clear          Remove every stored setting
//	promptdesk examples                Print the starter example requests
//	promptdesk version                 Print version and build information
//	promptdesk -o json version         Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	slogmulti "github.com/samber/slog-multi"

	"github.com/nugget/promptdesk/internal/api"
	"github.com/nugget/promptdesk/internal/buildinfo"
	"github.com/nugget/promptdesk/internal/config"
	"github.com/nugget/promptdesk/internal/opstate"
	"github.com/nugget/promptdesk/internal/prompts"
	"github.com/nugget/promptdesk/internal/settings"
)

// main only builds the OS-level environment and hands off to [run], so
// the whole command surface can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Stdin, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. Cancelling ctx shuts down the server.
// Structured logs and command output go to stdout; stdin feeds
// "custom save -". Arguments are parsed by hand because the flag
// package's globals get in the way of calling run from parallel tests.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, stdin io.Reader, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
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
		case command == "" && !strings.HasPrefix(args[i], "-"):
			command = args[i]
		default:
			// "-" is a valid argument to "custom save".
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
	case "list":
		return runList(stdout, outputFmt)
	case "examples":
		return runExamples(stdout, outputFmt)
	case "render":
		id := ""
		if len(cmdArgs) > 0 {
			id = cmdArgs[0]
		}
		return runRender(stdout, configPath, outputFmt, id)
	case "select":
		if len(cmdArgs) != 1 {
			return errors.New("usage: promptdesk select <id>")
		}
		return runSelect(stdout, configPath, cmdArgs[0])
	case "custom":
		return runCustom(stdout, stdin, configPath, outputFmt, cmdArgs)
	case "settings":
		return runSettings(stdout, configPath, outputFmt, cmdArgs)
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
	info := buildinfo.Info()
	if outputFmt == "json" {
		return writeJSON(w, info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Promptdesk - system prompts for an AI coding assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: promptdesk [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve                 Start the API server")
	fmt.Fprintln(w, "  init [dir]            Initialize working directory with defaults (default: .)")
	fmt.Fprintln(w, "  list                  List prompt variants")
	fmt.Fprintln(w, "  render [id]           Print a rendered prompt (default: the selected one)")
	fmt.Fprintln(w, "  select <id>           Choose the prompt variant used by the chat")
	fmt.Fprintln(w, "  custom show           Print the saved custom prompt")
	fmt.Fprintln(w, "  custom save <file|->  Save a custom prompt from a file (~ and data: allowed) or stdin;")
	fmt.Fprintln(w, "                        the text is stored verbatim, trailing newlines included")
	fmt.Fprintln(w, "  custom reset          Remove the custom prompt")
	fmt.Fprintln(w, "  settings export       Print every stored setting (password redacted)")
	fmt.Fprintln(w, "  settings clear        Remove every stored setting")
	fmt.Fprintln(w, "  examples              Print starter example requests")
	fmt.Fprintln(w, "  version               Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/promptdesk/config.yaml, /etc/promptdesk/config.yaml")
	fmt.Fprintln(w, "  (built-in defaults when none is found)")
	return nil
}

func runList(w io.Writer, outputFmt string) error {
	entries := prompts.NewLibrary(nil).List()
	if outputFmt == "json" {
		return writeJSON(w, entries)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, e.Label, e.Description)
	}
	return tw.Flush()
}

func runExamples(w io.Writer, outputFmt string) error {
	ex := prompts.Examples()
	if outputFmt == "json" {
		return writeJSON(w, ex)
	}
	for _, e := range ex {
		fmt.Fprintln(w, e.Text)
	}
	return nil
}

// runRender prints one rendered prompt. An empty id renders whichever
// variant is currently selected.
func runRender(w io.Writer, configPath, outputFmt, id string) error {
	env, err := openEnv(configPath, io.Discard)
	if err != nil {
		return err
	}
	defer env.close()

	if id == "" {
		entry, err := env.settings.SelectedPrompt()
		if err != nil {
			return err
		}
		id = string(entry.ID)
	}

	text, err := env.library.Resolve(id, env.cfg.Prompt.Options())
	if err != nil {
		return err
	}
	if outputFmt == "json" {
		return writeJSON(w, map[string]string{"prompt_id": id, "prompt": text})
	}
	fmt.Fprintln(w, text)
	return nil
}

func runSelect(w io.Writer, configPath, id string) error {
	env, err := openEnv(configPath, io.Discard)
	if err != nil {
		return err
	}
	defer env.close()

	entry, err := env.settings.SelectPrompt(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Selected %s (%s)\n", entry.ID, entry.Label)
	return nil
}

// runCustom handles "custom show|save|reset" through the same editor
// the settings screen uses, so notices match what the UI reports.
func runCustom(w io.Writer, stdin io.Reader, configPath, outputFmt string, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: promptdesk custom show|save <file|->|reset")
	}

	env, err := openEnv(configPath, io.Discard)
	if err != nil {
		return err
	}
	defer env.close()

	ed := prompts.NewEditor(env.overrides, env.logger)
	if err := ed.Load(); err != nil {
		return err
	}

	var notice prompts.Notice
	switch args[0] {
	case "show":
		if outputFmt == "json" {
			return writeJSON(w, map[string]string{"prompt": ed.Saved()})
		}
		fmt.Fprintln(w, ed.Saved())
		return nil
	case "save":
		if len(args) != 2 {
			return errors.New("usage: promptdesk custom save <file|->")
		}
		text, err := readSource(env.cfg.Paths().Resolve(args[1]), stdin)
		if err != nil {
			return err
		}
		ed.SetDraft(text)
		notice, err = ed.Save()
		if err != nil {
			return fmt.Errorf("%s: %w", notice.Message, err)
		}
	case "reset":
		notice, err = ed.Reset()
		if err != nil {
			return fmt.Errorf("%s: %w", notice.Message, err)
		}
	default:
		return fmt.Errorf("unknown custom subcommand: %s", args[0])
	}

	if outputFmt == "json" {
		return writeJSON(w, api.CustomPromptResponse{Prompt: ed.Saved(), Notice: &notice})
	}
	fmt.Fprintln(w, notice.Message)
	return nil
}

// readSource reads a file, or stdin when path is "-". Paths may use ~
// or the data: prefix. The content is returned unmodified.
func readSource(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read custom prompt: %w", err)
	}
	return string(data), nil
}

// runSettings handles "settings export|clear" over the whole settings
// namespace.
func runSettings(w io.Writer, configPath, outputFmt string, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: promptdesk settings export|clear")
	}

	env, err := openEnv(configPath, io.Discard)
	if err != nil {
		return err
	}
	defer env.close()

	switch args[0] {
	case "export":
		all, err := env.kv.All()
		if err != nil {
			return fmt.Errorf("export settings: %w", err)
		}
		if _, ok := all[settings.DatabaseSettingsKey]; ok {
			d, err := env.settings.Database()
			if err != nil {
				return err
			}
			redacted, err := json.Marshal(d.Redacted())
			if err != nil {
				return err
			}
			all[settings.DatabaseSettingsKey] = string(redacted)
		}
		if outputFmt == "json" {
			return writeJSON(w, all)
		}
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "[%s]\n%s\n\n", k, all[k])
		}
		return nil
	case "clear":
		if err := env.kv.Clear(); err != nil {
			return fmt.Errorf("clear settings: %w", err)
		}
		env.logger.Info("settings cleared", "namespace", env.kv.Name())
		fmt.Fprintf(w, "Cleared all settings in namespace %q\n", env.kv.Name())
		return nil
	default:
		return fmt.Errorf("unknown settings subcommand: %s", args[0])
	}
}

// runServe loads config, opens the settings store, and serves the API
// until SIGINT or SIGTERM cancels the context.
func runServe(ctx context.Context, stdout io.Writer, stderr io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo, "text", nil)
	logger.Info("starting promptdesk", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "built", buildinfo.BuildTime)

	env, err := openEnv(configPath, stdout)
	if err != nil {
		return err
	}
	defer env.close()
	logger = env.logger

	logger.Info("config loaded",
		"path", env.cfgPath,
		"port", env.cfg.Listen.Port,
		"storage_driver", env.cfg.Storage.Driver,
		"database", env.cfg.DatabasePath(),
		"log_level", env.cfg.LogLevel,
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(api.Config{
		Address:        env.cfg.Listen.Address,
		Port:           env.cfg.Listen.Port,
		AllowedOrigins: env.cfg.CORS.AllowedOrigins,
		Library:        env.library,
		Overrides:      env.overrides,
		Settings:       env.settings,
		Defaults:       env.cfg.Prompt.Options(),
		Logger:         logger,
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = server.Shutdown(context.Background())
	}()

	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("promptdesk stopped")
	return nil
}

// runtimeEnv bundles what every store-backed subcommand needs.
type runtimeEnv struct {
	cfg       *config.Config
	cfgPath   string
	store     *opstate.Store
	kv        *opstate.Namespace
	library   *prompts.Library
	overrides *prompts.Overrides
	settings  *settings.Service
	logger    *slog.Logger
	logFile   *os.File
}

// openEnv loads config, builds the configured logger writing to logw,
// and opens the settings store.
func openEnv(configPath string, logw io.Writer) (*runtimeEnv, error) {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	e := &runtimeEnv{cfg: cfg, cfgPath: cfgPath}

	// The data directory must exist before a data: log file is opened.
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		e.logFile, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
	}
	// Both were checked by Validate.
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	format, _ := config.ParseLogFormat(cfg.LogFormat)
	var extra io.Writer
	if e.logFile != nil {
		extra = e.logFile
	}
	e.logger = newLogger(logw, level, format, extra)

	e.store, err = opstate.Open(cfg.Storage.Driver, cfg.DatabasePath())
	if err != nil {
		e.close()
		return nil, fmt.Errorf("open settings store: %w", err)
	}

	e.kv = e.store.Namespace(cfg.Storage.Namespace)
	e.overrides = prompts.NewOverrides(e.kv)
	e.library = prompts.NewLibrary(e.overrides)
	e.settings = settings.NewService(e.kv, e.library, e.logger)
	return e, nil
}

func (e *runtimeEnv) close() {
	if e.store != nil {
		e.store.Close()
	}
	if e.logFile != nil {
		e.logFile.Close()
	}
}

// newLogger creates a structured logger writing to w at the given level
// and format. When extra is non-nil every record is also written there
// as JSON.
func newLogger(w io.Writer, level slog.Level, format string, extra io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	if extra != nil {
		handler = slogmulti.Fanout(handler, slog.NewJSONHandler(extra, opts))
	}
	return slog.New(handler)
}

// loadConfig locates, parses, and validates the YAML configuration.
// Without an explicit path and with no file in the search path, the
// built-in defaults are used and the returned path is empty.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, "", err
		}
		return config.Default(), "", nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, cfgPath, fmt.Errorf("invalid config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
