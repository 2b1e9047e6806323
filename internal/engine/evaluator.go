package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gordonmattey/port42-premise/internal/memory"
	"github.com/gordonmattey/port42-premise/internal/rules"
)

// ArtifactChecker answers whether a named command is currently
// materialized. Satisfied by *workspace.Workspace.
type ArtifactChecker interface {
	CommandExists(name string) bool
}

// Evaluator decides whether a rule's condition holds against an event-log
// snapshot and the current time.
//
// Evaluation is side-effect free apart from diagnostics: it never mutates
// the rule, never touches the stores, and never returns an error. A
// malformed or unrecognized condition evaluates to false with a logged
// defect, so a single bad rule can never fault a cycle.
type Evaluator struct {
	artifacts ArtifactChecker
	log       *slog.Logger
}

// NewEvaluator creates an evaluator using the given existence checker.
func NewEvaluator(artifacts ArtifactChecker, log *slog.Logger) *Evaluator {
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{artifacts: artifacts, log: log}
}

// Analysis is the explainable result of evaluating one rule's condition.
// Detail is a human-readable account of how the decision was reached;
// Defect is non-empty when the condition itself is broken.
type Analysis struct {
	Description  string              `json:"description"`
	Kind         rules.ConditionKind `json:"kind"`
	Eligible     bool                `json:"eligible"`
	WouldTrigger bool                `json:"would_trigger"`
	Detail       string              `json:"detail,omitempty"`
	Defect       string              `json:"defect,omitempty"`
}

// ShouldTrigger reports whether the rule's condition holds. Defects are
// logged at warn level with the rule description per the diagnostics
// contract; healthy evaluations log at debug level.
func (ev *Evaluator) ShouldTrigger(r rules.Rule, events []memory.Event, now time.Time) bool {
	a := ev.Explain(r, events, now)
	if a.Defect != "" {
		ev.log.Warn("rule condition defect",
			"rule", r.Description, "kind", string(a.Kind), "defect", a.Defect)
		return false
	}
	ev.log.Debug("rule evaluated",
		"rule", r.Description, "kind", string(a.Kind),
		"trigger", a.WouldTrigger, "detail", a.Detail)
	return a.WouldTrigger
}

// Explain evaluates the condition and returns a full analysis without
// logging. Eligible is filled in by the caller, which knows the executed
// flag semantics for the rule's kind.
func (ev *Evaluator) Explain(r rules.Rule, events []memory.Event, now time.Time) Analysis {
	a := Analysis{Description: r.Description, Kind: r.When.Kind}

	switch r.When.Kind {
	case rules.CondCount, rules.CondPattern:
		matches := CountMatches(events, r.When.Pattern)
		threshold := r.When.TriggerThreshold()
		a.WouldTrigger = matches >= threshold
		a.Detail = fmt.Sprintf("pattern %q: %d/%d matches", r.When.Pattern, matches, threshold)

	case rules.CondCombination:
		if len(r.When.Commands) == 0 {
			a.Defect = "combination rule missing commands"
			return a
		}
		missing := ev.missingCommands(r.When.Commands)
		a.WouldTrigger = len(missing) == 0
		if a.WouldTrigger {
			a.Detail = fmt.Sprintf("all %d commands exist", len(r.When.Commands))
		} else {
			a.Detail = fmt.Sprintf("missing commands: %s", strings.Join(missing, ", "))
		}

	case rules.CondTime:
		hour := r.When.TargetHour()
		today := rules.DayStamp(now)
		a.WouldTrigger = now.Hour() == hour && r.LastExecuted != today
		a.Detail = fmt.Sprintf("hour %d vs target %d, last executed %q",
			now.Hour(), hour, r.LastExecuted)

	default:
		a.Defect = fmt.Sprintf("unknown condition kind %q", string(r.When.Kind))
	}

	return a
}

// CountMatches counts events whose name contains pattern as a
// case-insensitive substring. An empty pattern matches every event.
func CountMatches(events []memory.Event, pattern string) int {
	needle := strings.ToLower(pattern)
	n := 0
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Name), needle) {
			n++
		}
	}
	return n
}

func (ev *Evaluator) missingCommands(names []string) []string {
	var missing []string
	for _, name := range names {
		if !ev.artifacts.CommandExists(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
