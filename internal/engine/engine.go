// Package engine implements the rule evaluation and triggering engine: a
// polling control loop that loads the persisted rule and event stores,
// evaluates each pending rule's condition, fires triggered actions with
// at-most-once intent, and durably records that they fired.
//
// Concurrency model: single logical thread of control. The scheduler runs
// one cycle at a time to completion; there is no parallel evaluation within
// a cycle and cycles never overlap. Both stores are reloaded fresh every
// cycle so rules and events created by external tools between cycles are
// picked up.
//
// At-most-once intent: the rule store's executed/lastExecuted flags are the
// primary guard, rewritten at cycle end when dirty. The firing-receipt
// store is the secondary guard for the crash window between action
// execution and the store rewrite: a receipt found for an apparently
// unexecuted rule means the action already ran, so the rule is marked
// without re-running it.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gordonmattey/port42-premise/internal/memory"
	"github.com/gordonmattey/port42-premise/internal/receipts"
	"github.com/gordonmattey/port42-premise/internal/rules"
)

// Engine drives one load-evaluate-execute-persist cycle at a time.
type Engine struct {
	ruleStore  *memory.RuleStore
	eventStore *memory.EventStore
	receipts   *receipts.Store
	eval       *Evaluator
	exec       *Executor
	clock      Clock
	log        *slog.Logger
}

// New creates an engine. The receipt store may be nil, in which case the
// crash-window recovery is skipped and only the rule store flags guard
// re-execution.
func New(
	ruleStore *memory.RuleStore,
	eventStore *memory.EventStore,
	receiptStore *receipts.Store,
	eval *Evaluator,
	exec *Executor,
	clock Clock,
	log *slog.Logger,
) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		ruleStore:  ruleStore,
		eventStore: eventStore,
		receipts:   receiptStore,
		eval:       eval,
		exec:       exec,
		clock:      clock,
		log:        log,
	}
}

// CycleReport summarizes one completed cycle.
type CycleReport struct {
	Token     string `json:"token"`
	Rules     int    `json:"rules"`
	Events    int    `json:"events"`
	Evaluated int    `json:"evaluated"`
	Fired     int    `json:"fired"`
	Recovered int    `json:"recovered"`
	Persisted bool   `json:"persisted"`
}

// RunCycle executes one full cycle.
//
// A store parse error aborts the cycle before any evaluation; nothing is
// written and the scheduler retries on the next interval. Per-rule
// failures (materialization, unknown kinds, condition defects) are logged
// and skipped so the remaining rules still run. No error returned here is
// fatal to the process.
func (e *Engine) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{Token: uuid.Must(uuid.NewV7()).String()}
	log := e.log.With("cycle", report.Token)

	rs, err := e.ruleStore.Load()
	if err != nil {
		log.Error("rule store unreadable, skipping cycle", "error", err)
		return report, err
	}
	eventLog, err := e.eventStore.Load()
	if err != nil {
		log.Error("event log unreadable, skipping cycle", "error", err)
		return report, err
	}

	report.Rules = len(rs)
	report.Events = len(eventLog.Commands)
	log.Debug("cycle start", "rules", report.Rules, "events", report.Events)

	now := e.clock.Now()
	dirty := false

	for i := range rs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r := &rs[i]

		// Time rules ignore the executed flag entirely; their repeat
		// eligibility is governed solely by lastExecuted. Every other
		// kind is terminal once executed.
		if r.When.Kind != rules.CondTime && r.Executed {
			continue
		}
		report.Evaluated++

		if !e.eval.ShouldTrigger(*r, eventLog.Commands, now) {
			continue
		}

		if e.recoverFromReceipt(ctx, log, r, now) {
			report.Recovered++
			dirty = true
			continue
		}

		log.Info("triggering rule", "rule", r.Description, "kind", string(r.When.Kind))
		outcome, err := e.exec.Execute(ctx, *r)
		if err != nil {
			log.Error("action execution failed", "rule", r.Description, "error", err)
			continue
		}
		if !outcome.Fired {
			continue
		}

		e.markTriggered(r, now)
		dirty = true
		report.Fired++
		e.writeReceipt(ctx, log, *r, now, outcome.Artifact, report.Token)
	}

	if dirty {
		if err := e.ruleStore.Save(rs); err != nil {
			log.Error("persisting rule store failed", "error", err)
			return report, err
		}
		report.Persisted = true
		log.Debug("rule store persisted")
	}

	return report, nil
}

// markTriggered advances a rule's execution state after a fired action.
func (e *Engine) markTriggered(r *rules.Rule, now time.Time) {
	if r.When.Kind == rules.CondTime {
		r.LastExecuted = rules.DayStamp(now)
		return
	}
	r.Executed = true
}

// receiptScope is "once" for non-time rules and today's day stamp for time
// rules, matching their respective repeat semantics.
func receiptScope(r rules.Rule, now time.Time) string {
	if r.When.Kind == rules.CondTime {
		return rules.DayStamp(now)
	}
	return receipts.ScopeOnce
}

// recoverFromReceipt checks the receipt store before executing a triggered
// rule. A hit means the action already ran in a cycle whose rule-store
// rewrite was lost; the rule state is advanced without re-execution.
// Receipt store trouble is logged and treated as "no receipt" so a broken
// database degrades to the primary guard rather than stalling rules.
func (e *Engine) recoverFromReceipt(ctx context.Context, log *slog.Logger, r *rules.Rule, now time.Time) bool {
	if e.receipts == nil {
		return false
	}
	fp, err := r.Fingerprint()
	if err != nil {
		log.Warn("rule fingerprint failed, skipping receipt check",
			"rule", r.Description, "error", err)
		return false
	}
	seen, err := e.receipts.Seen(ctx, fp, receiptScope(*r, now))
	if err != nil {
		log.Warn("receipt lookup failed", "rule", r.Description, "error", err)
		return false
	}
	if !seen {
		return false
	}
	log.Info("receipt found for unmarked rule, marking without re-execution",
		"rule", r.Description)
	e.markTriggered(r, now)
	return true
}

// writeReceipt records a firing. Failures are logged only; the rule store
// flags remain the primary guard.
func (e *Engine) writeReceipt(ctx context.Context, log *slog.Logger, r rules.Rule, now time.Time, artifact, token string) {
	if e.receipts == nil {
		return
	}
	fp, err := r.Fingerprint()
	if err != nil {
		log.Warn("rule fingerprint failed, receipt not recorded",
			"rule", r.Description, "error", err)
		return
	}
	_, err = e.receipts.Record(ctx, receipts.Receipt{
		Fingerprint:   fp,
		Scope:         receiptScope(r, now),
		Description:   r.Description,
		ConditionKind: string(r.When.Kind),
		ActionKind:    string(r.Then.Kind),
		Artifact:      artifact,
		CycleToken:    token,
		FiredAt:       now,
	})
	if err != nil {
		log.Warn("recording receipt failed", "rule", r.Description, "error", err)
	}
}

// Explain loads both stores and returns a per-rule trigger analysis
// without executing anything. Used by the explain subcommand.
func (e *Engine) Explain(ctx context.Context) ([]Analysis, error) {
	rs, err := e.ruleStore.Load()
	if err != nil {
		return nil, err
	}
	eventLog, err := e.eventStore.Load()
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	out := make([]Analysis, 0, len(rs))
	for _, r := range rs {
		a := e.eval.Explain(r, eventLog.Commands, now)
		a.Eligible = r.When.Kind == rules.CondTime || !r.Executed
		out = append(out, a)
	}
	return out, nil
}
