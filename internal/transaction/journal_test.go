package transaction

import (
	"errors"
	"os"
	"testing"
)

func TestJournalLifecycle(t *testing.T) {
	dir := t.TempDir()

	txn := NewInstall("music-discord-rpc", "0.6.2", "arm64")
	if txn.ID == "" {
		t.Fatal("transaction has no ID")
	}
	if txn.State != StatePending {
		t.Fatalf("State = %q, want pending", txn.State)
	}

	if err := txn.Save(dir); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	txn.Begin()
	if err := txn.Save(dir); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	loaded, err := Load(dir, "music-discord-rpc")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if loaded.State != StateInProgress {
		t.Errorf("State = %q, want in_progress", loaded.State)
	}
	if loaded.ID != txn.ID {
		t.Errorf("ID = %q, want %q", loaded.ID, txn.ID)
	}
	if loaded.Release != "0.6.2" || loaded.Arch != "arm64" {
		t.Errorf("loaded = %+v", loaded)
	}

	txn.Complete()
	if err := txn.Save(dir); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	loaded, err = Load(dir, "music-discord-rpc")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if loaded.State != StateCompleted {
		t.Errorf("State = %q, want completed", loaded.State)
	}
}

func TestJournalFailure(t *testing.T) {
	dir := t.TempDir()

	txn := NewInstall("pkg", "1.0.0", "amd64")
	txn.Begin()
	txn.Fail(errors.New("checksum mismatch"))
	if err := txn.Save(dir); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	loaded, err := Load(dir, "pkg")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if loaded.State != StateFailed {
		t.Errorf("State = %q, want failed", loaded.State)
	}
	if loaded.LastError != "checksum mismatch" {
		t.Errorf("LastError = %q", loaded.LastError)
	}
}

func TestJournalLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir(), "never-installed")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want wrapping os.ErrNotExist", err)
	}
}

func TestJournalUniqueIDs(t *testing.T) {
	a := NewInstall("pkg", "1.0.0", "amd64")
	b := NewInstall("pkg", "1.0.0", "amd64")
	if a.ID == b.ID {
		t.Error("two transactions share an ID")
	}
}
