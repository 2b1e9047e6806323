package namegen

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2025, 8, 31, 9, 0, 0, 0, time.UTC)

func TestSynthesizeExplicitNames(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"create called single quotes", "create a command called 'echo-nicer'", "echo-nicer"},
		{"make named double quotes", `make a tool named "log-scan"`, "log-scan"},
		{"named without quotes", "whenever ready, build something called deploy_helper", "deploy_helper"},
		{"bare quoted token", `I want "quick-fix" available`, "quick-fix"},
		{"backtick quoted token", "wrap `lint-all` for me", "lint-all"},
		{"uppercase lowered", "create a command called 'Echo-Nicer'", "echo-nicer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Synthesize(tt.text, fixedNow))
		})
	}
}

func TestSynthesizeLegacyTable(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"turn my git log into a haiku", "git-haiku"},
		{"find all TODO comments in my code", "find-todos"},
		{"pretty print my json files", "prettify"},
		{"summarize my week", "week-summary"},
		{"add color to my terminal output", "colorize"},
		{"count lines in all source files", "count-lines"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Synthesize(tt.text, fixedNow))
		})
	}
}

func TestSynthesizeTokenization(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"drops stop words", "Whenever I have 3 commands with show", "commands-show"},
		{"keeps first two survivors", "analyze disk usage trends every night", "analyze-disk"},
		{"single survivor", "whenever the logs", "logs"},
		{"punctuation stripped", "archive, then compress!", "archive-compress"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Synthesize(tt.text, fixedNow))
		})
	}
}

func TestSynthesizeFallbackIsTimeBased(t *testing.T) {
	want := "auto-cmd-" + strconv.FormatInt(fixedNow.UnixMilli(), 36)
	assert.Equal(t, want, Synthesize("a b c", fixedNow), "nothing survives tokenization")
	assert.Equal(t, want, Synthesize("", fixedNow))

	later := fixedNow.Add(time.Second)
	assert.NotEqual(t, Synthesize("", fixedNow), Synthesize("", later))
}

func TestSynthesizeDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, "git-haiku", Synthesize("git log haiku please", fixedNow))
	}
}
