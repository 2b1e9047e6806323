// Package crystal materializes structured data systems: a JSON data file
// under data/ plus generated add/list/search commands under bin/ that
// operate on it.
package crystal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/gordonmattey/port42-premise/internal/memory"
	"github.com/gordonmattey/port42-premise/internal/workspace"
)

// GeneratedBy tags event records appended for crystallized commands.
const GeneratedBy = "crystallize"

// Spec describes a data system to create.
type Spec struct {
	Name        string
	Description string
	Fields      []string
}

// DefaultFields is the field set used when none are supplied.
func DefaultFields() []string {
	return []string{"name", "status", "notes", "date"}
}

var nameSanitizer = regexp.MustCompile(`[^a-z0-9-]+`)

// SanitizeName lowercases a proposed system name and collapses anything
// outside [a-z0-9-] to a single hyphen.
func SanitizeName(name string) string {
	s := nameSanitizer.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// ParseResponse extracts a Spec from generator output in the line format
//
//	SYSTEM_NAME: expense-tracker
//	FIELDS: ["amount", "category", "date"]
//	DESCRIPTION: tracks spending
//
// Every part has a fallback: a timestamped name, the default field set,
// and a generic description. A FIELDS line that is not a JSON string
// array falls back to the defaults rather than failing.
func ParseResponse(response string, now time.Time) Spec {
	spec := Spec{
		Name:        fmt.Sprintf("data-system-%d", now.UnixMilli()),
		Description: "Data tracking system",
		Fields:      DefaultFields(),
	}

	for _, line := range strings.Split(response, "\n") {
		switch {
		case strings.HasPrefix(line, "SYSTEM_NAME:"):
			if name := SanitizeName(strings.TrimSpace(strings.TrimPrefix(line, "SYSTEM_NAME:"))); name != "" {
				spec.Name = name
			}
		case strings.HasPrefix(line, "FIELDS:"):
			var fields []string
			raw := strings.TrimSpace(strings.TrimPrefix(line, "FIELDS:"))
			if err := json.Unmarshal([]byte(raw), &fields); err == nil && len(fields) > 0 {
				spec.Fields = fields
			}
		case strings.HasPrefix(line, "DESCRIPTION:"):
			if d := strings.TrimSpace(strings.TrimPrefix(line, "DESCRIPTION:")); d != "" {
				spec.Description = d
			}
		}
	}
	return spec
}

// Result reports what a crystallization produced.
type Result struct {
	Name     string   `json:"name"`
	DataFile string   `json:"data_file"`
	Commands []string `json:"commands"`
}

// Crystallizer creates data systems in a workspace and records the
// generated commands in the event log.
type Crystallizer struct {
	ws     *workspace.Workspace
	events *memory.EventStore
	log    *slog.Logger
}

// New creates a crystallizer.
func New(ws *workspace.Workspace, events *memory.EventStore, log *slog.Logger) *Crystallizer {
	if log == nil {
		log = slog.Default()
	}
	return &Crystallizer{ws: ws, events: events, log: log}
}

// systemFile is the on-disk shape of a data system.
type systemFile struct {
	SystemName   string           `json:"system_name"`
	Description  string           `json:"description"`
	Fields       []string         `json:"fields"`
	Records      []map[string]any `json:"records"`
	Created      string           `json:"created"`
	LastModified string           `json:"last_modified"`
}

// Create writes the data file and materializes the add/list/search
// commands for the system. Each generated command is appended to the
// event log so rule conditions can observe it.
func (c *Crystallizer) Create(spec Spec, now time.Time) (Result, error) {
	if spec.Name == "" {
		return Result{}, fmt.Errorf("data system name is empty")
	}
	if len(spec.Fields) == 0 {
		spec.Fields = DefaultFields()
	}

	sys := systemFile{
		SystemName:   spec.Name,
		Description:  spec.Description,
		Fields:       spec.Fields,
		Records:      []map[string]any{},
		Created:      memory.Timestamp(now),
		LastModified: memory.Timestamp(now),
	}
	data, err := json.MarshalIndent(sys, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("encoding data system %s: %w", spec.Name, err)
	}

	dataFile, err := c.ws.WriteData(spec.Name, data)
	if err != nil {
		return Result{}, fmt.Errorf("writing data system %s: %w", spec.Name, err)
	}

	result := Result{Name: spec.Name, DataFile: dataFile}
	for _, op := range []string{"add", "list", "search"} {
		cmdName := op + "-" + spec.Name
		script := crudScript(op, spec, dataFile)
		if _, err := c.ws.Materialize(cmdName, script); err != nil {
			return result, fmt.Errorf("materializing %s: %w", cmdName, err)
		}
		result.Commands = append(result.Commands, cmdName)

		ev := memory.Event{
			Name:        cmdName,
			Created:     memory.Timestamp(now),
			GeneratedBy: GeneratedBy,
			Source:      "crystallized data system: " + spec.Name,
		}
		if err := c.events.Append(ev); err != nil {
			return result, fmt.Errorf("recording %s: %w", cmdName, err)
		}
	}

	c.log.Info("data system crystallized",
		"system", spec.Name, "data_file", dataFile, "commands", result.Commands)
	return result, nil
}
