// Package workspace manages the premise home directory layout:
//
//	$PORT42_HOME/
//	  bin/      materialized executable commands
//	  data/     crystallized data systems
//	  memory/   rules.json, commands.json, receipts.db
//
// It is the single place that turns command names into filesystem paths,
// and it owns the two collaborator operations the engine depends on:
// materializing a named artifact and checking that one exists.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is a premise home directory.
type Workspace struct {
	home string
}

// New creates a Workspace rooted at home. No directories are created until
// EnsureLayout is called.
func New(home string) *Workspace {
	return &Workspace{home: home}
}

// Home returns the workspace root.
func (w *Workspace) Home() string { return w.home }

// BinDir returns the directory holding materialized commands.
func (w *Workspace) BinDir() string { return filepath.Join(w.home, "bin") }

// DataDir returns the directory holding crystallized data systems.
func (w *Workspace) DataDir() string { return filepath.Join(w.home, "data") }

// MemoryDir returns the directory holding the persistent stores.
func (w *Workspace) MemoryDir() string { return filepath.Join(w.home, "memory") }

// RulesPath returns the rule store file path.
func (w *Workspace) RulesPath() string { return filepath.Join(w.MemoryDir(), "rules.json") }

// EventsPath returns the event log file path.
func (w *Workspace) EventsPath() string { return filepath.Join(w.MemoryDir(), "commands.json") }

// ReceiptsPath returns the firing-receipt database path.
func (w *Workspace) ReceiptsPath() string { return filepath.Join(w.MemoryDir(), "receipts.db") }

// EnsureLayout creates the workspace directories if they are missing.
func (w *Workspace) EnsureLayout() error {
	for _, dir := range []string{w.home, w.BinDir(), w.DataDir(), w.MemoryDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// CommandPath returns the bin/ path for a named command, or an error when
// the name would escape the bin directory.
func (w *Workspace) CommandPath(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(w.BinDir(), name), nil
}

// Materialize creates or overwrites the named executable command.
//
// Overwrite-on-repeat is deliberate: if a crash loses the "executed" mark
// after an action ran, the retried materialization converges on the same
// artifact instead of failing.
func (w *Workspace) Materialize(name, content string) (string, error) {
	path, err := w.CommandPath(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.BinDir(), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", w.BinDir(), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// CommandExists reports whether the named command is materialized in bin/.
// Malformed names simply do not exist.
func (w *Workspace) CommandExists(name string) bool {
	path, err := w.CommandPath(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DataPath returns the data/ path for a named data system.
func (w *Workspace) DataPath(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(w.DataDir(), name+".json"), nil
}

// WriteData creates or overwrites the named data system file.
func (w *Workspace) WriteData(name string, data []byte) (string, error) {
	path, err := w.DataPath(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.DataDir(), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", w.DataDir(), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// checkName rejects names that are empty or would resolve outside the
// owning directory. Command names come from rule files authored by
// external tools, so they are not trusted as path components.
func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("empty command name")
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("invalid command name %q", name)
	}
	return nil
}
