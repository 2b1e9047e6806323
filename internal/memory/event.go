// Package memory provides access to the persistent state directory: the
// rule store (memory/rules.json) and the event log (memory/commands.json).
//
// Both files are read fully into memory at the start of every poll cycle
// and, when modified, written fully back. There is no cross-cycle cache:
// rules and events created by external tools between cycles are picked up
// on the next load. The event log is append-only from the engine's point
// of view; it tolerates other writers growing the log between cycles.
package memory

import (
	"encoding/json"
	"time"

	"github.com/gordonmattey/port42-premise/internal/jsonx"
)

// Event is one record of the event log: a fact about a previously produced
// artifact, used as evaluation input for count and pattern conditions.
//
// Created is kept as the raw ISO-8601 string rather than a time.Time so
// that records written by external tools round-trip byte-for-byte even
// when their timestamp format drifts.
type Event struct {
	Name        string
	Created     string
	GeneratedBy string
	PoweredBy   string
	Source      string

	extra map[string]json.RawMessage
}

// EventLog is the persisted shape of commands.json.
type EventLog struct {
	Commands []Event `json:"commands"`
}

// Timestamp formats t the way the event log records creation times.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var ee Event
	extra, err := jsonx.DecodeKnown(data, map[string]any{
		"name":        &ee.Name,
		"created":     &ee.Created,
		"generatedBy": &ee.GeneratedBy,
		"powered_by":  &ee.PoweredBy,
		"source":      &ee.Source,
	})
	if err != nil {
		return err
	}
	ee.extra = extra
	*e = ee
	return nil
}

func (e Event) MarshalJSON() ([]byte, error) {
	known := map[string]any{"name": e.Name}
	if e.Created != "" {
		known["created"] = e.Created
	}
	if e.GeneratedBy != "" {
		known["generatedBy"] = e.GeneratedBy
	}
	if e.PoweredBy != "" {
		known["powered_by"] = e.PoweredBy
	}
	if e.Source != "" {
		known["source"] = e.Source
	}
	return jsonx.EncodeKnown(e.extra, known)
}
