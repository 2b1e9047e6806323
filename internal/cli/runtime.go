package cli

import (
	"log/slog"
	"os"

	"github.com/gordonmattey/port42-premise/internal/config"
	"github.com/gordonmattey/port42-premise/internal/engine"
	"github.com/gordonmattey/port42-premise/internal/memory"
	"github.com/gordonmattey/port42-premise/internal/receipts"
	"github.com/gordonmattey/port42-premise/internal/textgen"
	"github.com/gordonmattey/port42-premise/internal/workspace"
)

// runtime bundles the wired collaborators a command needs.
type runtime struct {
	cfg      config.Config
	ws       *workspace.Workspace
	rules    *memory.RuleStore
	events   *memory.EventStore
	receipts *receipts.Store
	engine   *engine.Engine
	log      *slog.Logger
}

func (rt *runtime) Close() {
	if rt.receipts != nil {
		if err := rt.receipts.Close(); err != nil {
			rt.log.Error("closing receipt store", "error", err)
		}
	}
}

// setupLogging configures the process-wide slog default from the global
// flags and returns the logger commands should use.
func setupLogging(opts *RootOptions) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// buildRuntime resolves configuration and wires up the full engine stack.
// withReceipts controls whether the receipt database is opened; read-only
// commands that never execute actions skip it.
func buildRuntime(opts *RootOptions, withReceipts bool) (*runtime, error) {
	log := setupLogging(opts)

	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "resolving configuration", err)
	}
	if opts.Home != "" {
		cfg.Home = opts.Home
	}

	ws := workspace.New(cfg.Home)
	if err := ws.EnsureLayout(); err != nil {
		return nil, WrapExitError(ExitCommandError, "preparing workspace", err)
	}

	rt := &runtime{
		cfg:    cfg,
		ws:     ws,
		rules:  memory.NewRuleStore(ws.RulesPath()),
		events: memory.NewEventStore(ws.EventsPath()),
		log:    log,
	}

	if withReceipts {
		rt.receipts, err = receipts.Open(ws.ReceiptsPath())
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "opening receipt store", err)
		}
	}

	var gen *textgen.Client
	if cfg.Generator.APIKey != "" {
		gen = textgen.NewClient(cfg.Generator.URL, cfg.Generator.APIKey, cfg.Generator.Model)
		log.Debug("text generator enabled", "model", cfg.Generator.Model)
	}

	clock := engine.SystemClock{}
	eval := engine.NewEvaluator(ws, log)
	exec := engine.NewExecutor(ws, rt.events, gen, clock, log)
	rt.engine = engine.New(rt.rules, rt.events, rt.receipts, eval, exec, clock, log)

	return rt, nil
}
