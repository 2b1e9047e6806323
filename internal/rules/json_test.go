package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wireRule = `{
	"description": "Whenever I create 3 commands with git, make a git-haiku command",
	"when": {"type": "count", "pattern": "git", "threshold": 3},
	"then": {"type": "spawn_command", "name": "git-haiku", "action": "git log | head -3"},
	"executed": true
}`

func TestRuleUnmarshalWireFormat(t *testing.T) {
	var r Rule
	require.NoError(t, json.Unmarshal([]byte(wireRule), &r))

	assert.Equal(t, "Whenever I create 3 commands with git, make a git-haiku command", r.Description)
	assert.Equal(t, CondCount, r.When.Kind)
	assert.Equal(t, "git", r.When.Pattern)
	assert.Equal(t, 3, r.When.Threshold)
	assert.Equal(t, ActionSpawnCommand, r.Then.Kind)
	assert.Equal(t, "git-haiku", r.Then.Name)
	assert.Equal(t, "git log | head -3", r.Then.Content, `content rides the "action" wire key`)
	assert.True(t, r.Executed)
	assert.Empty(t, r.LastExecuted)
}

func TestRuleRoundTripPreservesUnknownFields(t *testing.T) {
	in := `{
		"description": "daily summary",
		"when": {"type": "time", "hour": 17, "note": "evening"},
		"then": {"type": "spawn_command", "origin": "external-tool"},
		"lastExecuted": "Sat Aug 30 2025",
		"priority": 7
	}`

	var r Rule
	require.NoError(t, json.Unmarshal([]byte(in), &r))
	require.NotNil(t, r.When.Hour)
	assert.Equal(t, 17, *r.When.Hour)
	assert.Equal(t, "Sat Aug 30 2025", r.LastExecuted)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out), "unknown keys at every level must survive")
}

func TestRuleMarshalOmitsEmptyState(t *testing.T) {
	r := Rule{
		Description: "x",
		When:        Condition{Kind: CondPattern, Pattern: "show"},
		Then:        Action{Kind: ActionSpawnCommand},
	}
	out, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &m))
	assert.NotContains(t, m, "executed", "false executed is omitted")
	assert.NotContains(t, m, "lastExecuted")

	var when map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(m["when"], &when))
	assert.NotContains(t, when, "threshold", "zero threshold is omitted")
	assert.NotContains(t, when, "hour")
}

func TestConditionNullHourTreatedAsAbsent(t *testing.T) {
	var c Condition
	require.NoError(t, json.Unmarshal([]byte(`{"type":"time","hour":null}`), &c))
	assert.Nil(t, c.Hour)
	assert.Equal(t, DefaultHour, c.TargetHour())
}

func TestRuleListRoundTrip(t *testing.T) {
	in := `[
		{"description": "a", "when": {"type": "count", "pattern": "git"}, "then": {"type": "spawn_command"}},
		{"description": "b", "when": {"type": "combination", "commands": ["x", "y"]}, "then": {"type": "combine_commands"}}
	]`

	var rs []Rule
	require.NoError(t, json.Unmarshal([]byte(in), &rs))
	require.Len(t, rs, 2)
	assert.Equal(t, []string{"x", "y"}, rs[1].When.Commands)

	out, err := json.Marshal(rs)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}
