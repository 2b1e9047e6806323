package rules

import (
	"encoding/json"
	"time"
)

// ConditionKind identifies one of the closed set of condition variants.
//
// The set is closed on purpose: the evaluator does a total switch over these
// kinds with an explicit default arm that logs and evaluates to false, so an
// unrecognized kind in a rules file can never fault a cycle.
type ConditionKind string

const (
	// CondCount triggers when at least Threshold events match Pattern.
	CondCount ConditionKind = "count"
	// CondPattern is mechanically identical to CondCount but kept as a
	// first-class kind because its authoring intent ("does X exist N
	// times") is user-facing.
	CondPattern ConditionKind = "pattern"
	// CondCombination triggers when every named command is materialized.
	CondCombination ConditionKind = "combination"
	// CondTime triggers once per calendar day at a fixed local hour.
	CondTime ConditionKind = "time"
)

// ActionKind identifies one of the closed set of action variants.
type ActionKind string

const (
	// ActionSpawnCommand materializes a new executable command in bin/.
	ActionSpawnCommand ActionKind = "spawn_command"
	// ActionCombineCommands is accepted but intentionally unimplemented.
	// Execution logs and no-ops; it never marks its rule executed.
	ActionCombineCommands ActionKind = "combine_commands"
)

// Default thresholds and hour applied when a condition omits or malforms
// the corresponding field.
const (
	DefaultCountThreshold   = 3
	DefaultPatternThreshold = 1
	DefaultHour             = 9
)

// Condition is the "when" clause of a rule.
//
// Exactly one kind is meaningful per condition; the other fields are simply
// ignored by the evaluator. Unknown JSON keys are preserved across
// load/save so that external tools can annotate conditions freely.
type Condition struct {
	Kind      ConditionKind
	Pattern   string
	Threshold int
	Commands  []string
	Hour      *int

	extra map[string]json.RawMessage
}

// TriggerThreshold returns the effective threshold for count and pattern
// conditions. Values below 1 fall back to the kind's documented default.
func (c Condition) TriggerThreshold() int {
	if c.Threshold >= 1 {
		return c.Threshold
	}
	if c.Kind == CondPattern {
		return DefaultPatternThreshold
	}
	return DefaultCountThreshold
}

// TargetHour returns the effective local hour for time conditions.
// An absent or out-of-range hour falls back to DefaultHour. Hour 0
// (midnight) is honored.
func (c Condition) TargetHour() int {
	if c.Hour != nil && *c.Hour >= 0 && *c.Hour <= 23 {
		return *c.Hour
	}
	return DefaultHour
}

// Action is the "then" clause of a rule.
//
// Content carries the raw command body when the author supplied one. The
// wire name of that field is "action" for compatibility with state files
// written by earlier implementations.
type Action struct {
	Kind    ActionKind
	Name    string
	Content string

	extra map[string]json.RawMessage
}

// Rule is a persisted condition/action pair plus its execution state.
//
// Rules have no separate identity; they are identified by value. Mutable
// state (Executed, LastExecuted) lives in the same record as the condition
// that defines it, and the whole record is rewritten at cycle end rather
// than mutated in place, so evaluation stays side-effect free.
type Rule struct {
	Description string
	When        Condition
	Then        Action

	// Executed is the terminal flag for non-time rules. Once true the
	// rule is skipped on every future cycle.
	Executed bool

	// LastExecuted gates re-firing of time rules. It holds a calendar-day
	// stamp in the format produced by DayStamp; a time rule is eligible
	// only while LastExecuted differs from today's stamp. Non-time rules
	// never read it.
	LastExecuted string

	extra map[string]json.RawMessage
}

// dayStampLayout matches the JavaScript Date.toDateString() format used by
// the original state files, e.g. "Sun Aug 31 2025".
const dayStampLayout = "Mon Jan 02 2006"

// DayStamp formats t as a calendar-day marker for LastExecuted.
func DayStamp(t time.Time) string {
	return t.Format(dayStampLayout)
}
