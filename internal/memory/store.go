package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gordonmattey/port42-premise/internal/rules"
)

// ParseError reports malformed structured text in a store file.
//
// The scheduler treats it as "log a diagnostic, skip this cycle, retry on
// the next interval": the file may be mid-write by an external tool, so
// nothing is touched until a well-formed read succeeds.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err is a store ParseError, unwrapping as
// needed.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// RuleStore persists the ordered rule list at memory/rules.json.
//
// A missing file means "no rules", never an error. The file is rewritten
// in full, atomically, when at least one rule's execution state changed in
// a cycle.
type RuleStore struct {
	path string
}

// NewRuleStore creates a store backed by the given file path.
func NewRuleStore(path string) *RuleStore {
	return &RuleStore{path: path}
}

// Path returns the backing file path.
func (s *RuleStore) Path() string { return s.path }

// Load reads and parses the full rule list. Returns (nil, nil) when the
// file does not exist and a *ParseError when it holds malformed JSON.
func (s *RuleStore) Load() ([]rules.Rule, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var rs []rules.Rule
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, &ParseError{Path: s.path, Err: err}
	}
	return rs, nil
}

// Save writes the full rule list back, creating parent directories as
// needed. The write goes through a temp file plus rename so a crash
// mid-write never leaves a truncated store behind.
func (s *RuleStore) Save(rs []rules.Rule) error {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	return writeFileAtomic(s.path, append(data, '\n'))
}

// EventStore persists the event log at memory/commands.json.
type EventStore struct {
	path string
}

// NewEventStore creates a store backed by the given file path.
func NewEventStore(path string) *EventStore {
	return &EventStore{path: path}
}

// Path returns the backing file path.
func (s *EventStore) Path() string { return s.path }

// Load reads and parses the event log. Returns an empty log when the file
// does not exist and a *ParseError when it holds malformed JSON.
func (s *EventStore) Load() (EventLog, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return EventLog{}, nil
	}
	if err != nil {
		return EventLog{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	var log EventLog
	if err := json.Unmarshal(data, &log); err != nil {
		return EventLog{}, &ParseError{Path: s.path, Err: err}
	}
	return log, nil
}

// Save writes the full event log back atomically.
func (s *EventStore) Save(log EventLog) error {
	if log.Commands == nil {
		log.Commands = []Event{}
	}
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	return writeFileAtomic(s.path, append(data, '\n'))
}

// Append reloads the log, appends one event, and persists it. Reloading
// just before the write keeps records added by external writers since the
// cycle-start snapshot. A parse error is propagated rather than clobbering
// a possibly mid-write file.
func (s *EventStore) Append(ev Event) error {
	log, err := s.Load()
	if err != nil {
		return err
	}
	log.Commands = append(log.Commands, ev)
	return s.Save(log)
}

// writeFileAtomic writes data to path via a temp file in the same
// directory followed by a rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}
	return nil
}
