package transaction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// State represents the current state of an install attempt.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// InstallTxn is the journal record for one install attempt. It is written
// before the first side effect and updated as the install progresses, so
// an interrupted install leaves a non-completed record behind.
type InstallTxn struct {
	Version   int       `json:"version"` // Schema version for future evolution
	ID        string    `json:"id"`      // UUID for unique identification
	Package   string    `json:"package"`
	Release   string    `json:"release"`
	Arch      string    `json:"arch"`
	State     State     `json:"state"`
	Timestamp time.Time `json:"timestamp"`
	LastError string    `json:"last_error,omitempty"`
}

// NewInstall creates a pending journal record for installing one package
// release.
func NewInstall(pkg, release, arch string) *InstallTxn {
	return &InstallTxn{
		Version:   1,
		ID:        uuid.New().String(),
		Package:   pkg,
		Release:   release,
		Arch:      arch,
		State:     StatePending,
		Timestamp: time.Now().UTC(),
	}
}

// Begin marks the transaction as in progress.
func (t *InstallTxn) Begin() {
	t.State = StateInProgress
}

// Complete marks the transaction as completed.
func (t *InstallTxn) Complete() {
	t.State = StateCompleted
	t.LastError = ""
}

// Fail marks the transaction as failed with the given cause.
func (t *InstallTxn) Fail(err error) {
	t.State = StateFailed
	if err != nil {
		t.LastError = err.Error()
	}
}

// Save atomically persists the transaction into the journal directory,
// one file per package name. The previous attempt for the same package is
// overwritten; history beyond the last attempt is not kept.
func (t *InstallTxn) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}

	path := filepath.Join(dir, t.Package+".json")
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write transaction: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename transaction: %w", err)
	}
	return nil
}

// Load reads the last install attempt for a package, if any.
// Returns os.ErrNotExist (wrapped) when no attempt was journaled.
func Load(dir, pkg string) (*InstallTxn, error) {
	data, err := os.ReadFile(filepath.Join(dir, pkg+".json"))
	if err != nil {
		return nil, fmt.Errorf("read transaction: %w", err)
	}

	var txn InstallTxn
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, fmt.Errorf("unmarshal transaction: %w", err)
	}
	return &txn, nil
}
