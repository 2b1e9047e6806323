package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gordonmattey/port42-premise/internal/memory"
	"github.com/gordonmattey/port42-premise/internal/namegen"
	"github.com/gordonmattey/port42-premise/internal/rules"
	"github.com/gordonmattey/port42-premise/internal/textgen"
	"github.com/gordonmattey/port42-premise/internal/workspace"
)

// GeneratedBy tags event records appended by the engine.
const GeneratedBy = "rule-engine"

// contentSentinels are author-supplied content values that mean "no real
// content provided"; they trigger the placeholder (or generated) body just
// like an absent content field.
var contentSentinels = map[string]bool{
	"Create based on pattern":  true,
	"no real content provided": true,
}

// Outcome describes what executing an action produced.
//
// Fired is the signal the scheduler uses to advance rule state: it is true
// only when the action actually produced its effect. A combine_commands
// no-op or an unknown action kind leaves Fired false so the rule is never
// marked executed for something that did not happen.
type Outcome struct {
	Fired    bool
	Artifact string
}

// Executor performs rule actions: materializing commands in the workspace
// and appending the corresponding event records.
type Executor struct {
	ws     *workspace.Workspace
	events *memory.EventStore
	gen    *textgen.Client
	clock  Clock
	log    *slog.Logger
}

// NewExecutor creates an executor. gen may be nil or disabled; content
// then falls back to the placeholder stub.
func NewExecutor(ws *workspace.Workspace, events *memory.EventStore, gen *textgen.Client, clock Clock, log *slog.Logger) *Executor {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Executor{ws: ws, events: events, gen: gen, clock: clock, log: log}
}

// Execute runs the rule's action.
//
// spawn_command materializes the named artifact and appends exactly one
// event record for it. combine_commands and unrecognized kinds log and
// return a non-fired outcome with no error. Failures return *ExecError;
// none of them are fatal to the cycle.
func (x *Executor) Execute(ctx context.Context, r rules.Rule) (Outcome, error) {
	switch r.Then.Kind {
	case rules.ActionSpawnCommand:
		return x.spawnCommand(ctx, r)

	case rules.ActionCombineCommands:
		// Accepted but intentionally unimplemented: combination
		// semantics are undefined, so nothing is produced and the
		// rule must not be marked executed.
		x.log.Info("combine_commands action not implemented, skipping",
			"rule", r.Description)
		return Outcome{}, nil

	default:
		x.log.Warn("unknown action kind, skipping",
			"rule", r.Description, "kind", string(r.Then.Kind))
		return Outcome{}, nil
	}
}

func (x *Executor) spawnCommand(ctx context.Context, r rules.Rule) (Outcome, error) {
	now := x.clock.Now()

	name := r.Then.Name
	if name == "" {
		name = namegen.Synthesize(r.Description, now)
	}

	script := SpawnScript(r.Description, x.resolveContent(ctx, r, name), now)

	path, err := x.ws.Materialize(name, script)
	if err != nil {
		return Outcome{}, &ExecError{Code: ErrCodeMaterialization, Rule: r.Description, Err: err}
	}
	x.log.Info("spawned command", "rule", r.Description, "name", name, "path", path)

	ev := memory.Event{
		Name:        name,
		Created:     memory.Timestamp(now),
		GeneratedBy: GeneratedBy,
		Source:      "auto-spawned by rule: " + r.Description,
	}
	if err := x.events.Append(ev); err != nil {
		return Outcome{Artifact: name}, &ExecError{Code: ErrCodeEventAppend, Rule: r.Description, Err: err}
	}

	return Outcome{Fired: true, Artifact: name}, nil
}

// resolveContent picks the command body: author-supplied content wins,
// then the text-generation collaborator when configured, then the
// placeholder stub. Generator failures degrade silently to the stub.
func (x *Executor) resolveContent(ctx context.Context, r rules.Rule, name string) string {
	if c := strings.TrimSpace(r.Then.Content); c != "" && !contentSentinels[r.Then.Content] {
		return r.Then.Content
	}

	if x.gen.Enabled() {
		prompt := fmt.Sprintf(
			"Write the body of a bash script for a command named %q that fulfills this rule: %s\n"+
				"Respond with only the script body, no shebang and no explanation.",
			name, r.Description)
		body, err := x.gen.Generate(ctx, prompt)
		if err != nil {
			x.log.Debug("text generator unavailable, using placeholder",
				"rule", r.Description, "error", err)
		} else if body = strings.TrimSpace(body); body != "" {
			return body
		}
	}

	return placeholderContent(r.Description, filepath.Join(x.ws.BinDir(), name))
}

func placeholderContent(description, path string) string {
	return fmt.Sprintf(`# TODO: Implement functionality for: %s
echo "This command was auto-spawned by a rule."
echo "Rule: %s"
echo ""
echo "Edit me at: %s"`, description, description, path)
}

// SpawnScript wraps a command body in the spawned-command envelope:
// shebang, provenance comment, and generation timestamp.
func SpawnScript(description, content string, now time.Time) string {
	return fmt.Sprintf(`#!/bin/bash
# Auto-spawned by rule: %s
# Generated at: %s

%s
`, description, memory.Timestamp(now), content)
}
