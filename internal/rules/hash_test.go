package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRule() Rule {
	return Rule{
		Description: "Whenever I create 3 commands with git, make a git-haiku command",
		When:        Condition{Kind: CondCount, Pattern: "git", Threshold: 3},
		Then:        Action{Kind: ActionSpawnCommand, Name: "git-haiku"},
	}
}

func TestFingerprintDeterminism(t *testing.T) {
	fp1, err := sampleRule().Fingerprint()
	require.NoError(t, err)
	fp2, err := sampleRule().Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64, "SHA-256 hex is 64 characters")
}

func TestFingerprintIgnoresExecutionState(t *testing.T) {
	base, err := sampleRule().Fingerprint()
	require.NoError(t, err)

	executed := sampleRule()
	executed.Executed = true
	executed.LastExecuted = "Sun Aug 31 2025"
	fp, err := executed.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, base, fp, "flipping state flags must not change identity")
}

func TestFingerprintChangesWithContent(t *testing.T) {
	base, err := sampleRule().Fingerprint()
	require.NoError(t, err)

	edited := sampleRule()
	edited.When.Threshold = 5
	fp1, err := edited.Fingerprint()
	require.NoError(t, err)

	renamed := sampleRule()
	renamed.Description = "something else entirely"
	fp2, err := renamed.Fingerprint()
	require.NoError(t, err)

	assert.NotEqual(t, base, fp1, "condition edits produce a new identity")
	assert.NotEqual(t, base, fp2, "description edits produce a new identity")
	assert.NotEqual(t, fp1, fp2)
}

func TestFingerprintIncludesUnknownFields(t *testing.T) {
	var plain, annotated Rule
	require.NoError(t, json.Unmarshal(
		[]byte(`{"description":"x","when":{"type":"count"},"then":{"type":"spawn_command"}}`), &plain))
	require.NoError(t, json.Unmarshal(
		[]byte(`{"description":"x","when":{"type":"count"},"then":{"type":"spawn_command"},"priority":7}`), &annotated))

	fp1, err := plain.Fingerprint()
	require.NoError(t, err)
	fp2, err := annotated.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2, "foreign annotations are defining content")
}

func TestMarshalCanonicalSortsKeysAndSkipsHTMLEscaping(t *testing.T) {
	b, err := marshalCanonical(map[string]any{
		"b": "x < y",
		"a": json.Number("3"),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"b":"x < y"}`, string(b))
}
