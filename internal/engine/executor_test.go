package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gordonmattey/port42-premise/internal/memory"
	"github.com/gordonmattey/port42-premise/internal/rules"
	"github.com/gordonmattey/port42-premise/internal/testutil"
	"github.com/gordonmattey/port42-premise/internal/workspace"
)

var nineAM = time.Date(2025, 8, 31, 9, 0, 0, 0, time.UTC)

type executorFixture struct {
	ws     *workspace.Workspace
	events *memory.EventStore
	exec   *Executor
}

func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()
	home := t.TempDir()
	ws := workspace.New(home)
	require.NoError(t, ws.EnsureLayout())
	events := memory.NewEventStore(ws.EventsPath())
	exec := NewExecutor(ws, events, nil, testutil.NewFrozenClock(nineAM), quietLogger())
	return &executorFixture{ws: ws, events: events, exec: exec}
}

func TestSpawnCommandMaterializesAndRecords(t *testing.T) {
	f := newExecutorFixture(t)

	rule := rules.Rule{
		Description: "make my git log a haiku",
		When:        rules.Condition{Kind: rules.CondCount, Pattern: "git"},
		Then:        rules.Action{Kind: rules.ActionSpawnCommand, Name: "git-haiku", Content: "git log --oneline | head -3"},
	}

	outcome, err := f.exec.Execute(context.Background(), rule)
	require.NoError(t, err)
	assert.True(t, outcome.Fired)
	assert.Equal(t, "git-haiku", outcome.Artifact)

	path, err := f.ws.CommandPath("git-haiku")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#!/bin/bash")
	assert.Contains(t, string(data), "git log --oneline | head -3")

	log, err := f.events.Load()
	require.NoError(t, err)
	require.Len(t, log.Commands, 1)
	ev := log.Commands[0]
	assert.Equal(t, "git-haiku", ev.Name)
	assert.Equal(t, "2025-08-31T09:00:00.000Z", ev.Created)
	assert.Equal(t, GeneratedBy, ev.GeneratedBy)
	assert.Equal(t, "auto-spawned by rule: make my git log a haiku", ev.Source)
}

func TestSpawnCommandSynthesizesMissingName(t *testing.T) {
	f := newExecutorFixture(t)

	rule := rules.Rule{
		Description: "create a command called 'echo-nicer'",
		Then:        rules.Action{Kind: rules.ActionSpawnCommand},
	}

	outcome, err := f.exec.Execute(context.Background(), rule)
	require.NoError(t, err)
	assert.Equal(t, "echo-nicer", outcome.Artifact)
	assert.True(t, f.ws.CommandExists("echo-nicer"))
}

func TestSpawnCommandPlaceholderContent(t *testing.T) {
	f := newExecutorFixture(t)

	for _, sentinel := range []string{"", "Create based on pattern", "no real content provided"} {
		rule := rules.Rule{
			Description: "track my disk usage",
			Then:        rules.Action{Kind: rules.ActionSpawnCommand, Name: "disk-usage", Content: sentinel},
		}
		_, err := f.exec.Execute(context.Background(), rule)
		require.NoError(t, err)

		path, err := f.ws.CommandPath("disk-usage")
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "# TODO: Implement functionality for: track my disk usage",
			"sentinel %q must take the placeholder path", sentinel)
		assert.Contains(t, string(data), "Edit me at: "+filepath.Join(f.ws.BinDir(), "disk-usage"))
	}
}

func TestCombineCommandsIsAcceptedNoOp(t *testing.T) {
	f := newExecutorFixture(t)

	rule := rules.Rule{
		Description: "merge git-haiku and find-todos",
		Then:        rules.Action{Kind: rules.ActionCombineCommands},
	}

	outcome, err := f.exec.Execute(context.Background(), rule)
	require.NoError(t, err)
	assert.False(t, outcome.Fired, "a no-op must never mark its rule executed")

	log, err := f.events.Load()
	require.NoError(t, err)
	assert.Empty(t, log.Commands)
}

func TestUnknownActionKindSkipsWithoutError(t *testing.T) {
	f := newExecutorFixture(t)

	outcome, err := f.exec.Execute(context.Background(), rules.Rule{
		Description: "from a newer tool",
		Then:        rules.Action{Kind: "notify"},
	})
	require.NoError(t, err)
	assert.False(t, outcome.Fired)
}

func TestSpawnCommandMaterializationFailure(t *testing.T) {
	f := newExecutorFixture(t)

	_, err := f.exec.Execute(context.Background(), rules.Rule{
		Description: "bad name",
		Then:        rules.Action{Kind: rules.ActionSpawnCommand, Name: "../escape"},
	})
	require.Error(t, err)
	assert.True(t, IsMaterializationError(err))

	var ee *ExecError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrCodeMaterialization, ee.Code)
	assert.Equal(t, "bad name", ee.Rule)
}

func TestSpawnScriptEnvelope(t *testing.T) {
	script := SpawnScript("make my git log a haiku", "git log --oneline | head -3", nineAM)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "spawn_script", []byte(script))
}
