package tap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// makeTapRepo creates a local git repository containing the given formula
// files, for cloning as a tap.
func makeTapRepo(t *testing.T, files map[string]string) (string, *gogit.Repository) {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init fixture repo: %v", err)
	}

	commitFiles(t, dir, repo, files, "add formulae")
	return dir, repo
}

func commitFiles(t *testing.T, dir string, repo *gogit.Repository, files map[string]string, msg string) {
	t.Helper()

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("get worktree: %v", err)
	}

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("create fixture dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write fixture file: %v", err)
		}
		if _, err := worktree.Add(name); err != nil {
			t.Fatalf("stage fixture file: %v", err)
		}
	}

	_, err = worktree.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "fixture",
			Email: "fixture@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("commit fixture: %v", err)
	}
}

const fixtureFormula = `formula = { name = "music-discord-rpc", version = "1.2.3" }`

func TestAddAndResolve(t *testing.T) {
	upstream, _ := makeTapRepo(t, map[string]string{
		"Formula/music-discord-rpc.lua": fixtureFormula,
	})

	m := NewManager(filepath.Join(t.TempDir(), "taps"))

	tp, err := m.Add(context.Background(), "kegworks/core", upstream)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if tp.Name != "kegworks/core" {
		t.Errorf("tap name = %q, want kegworks/core", tp.Name)
	}

	path, err := m.Resolve("music-discord-rpc")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if filepath.Base(path) != "music-discord-rpc.lua" {
		t.Errorf("Resolve() = %q, want a music-discord-rpc.lua path", path)
	}
}

func TestAddDuplicate(t *testing.T) {
	upstream, _ := makeTapRepo(t, map[string]string{
		"Formula/music-discord-rpc.lua": fixtureFormula,
	})

	m := NewManager(filepath.Join(t.TempDir(), "taps"))

	if _, err := m.Add(context.Background(), "kegworks/core", upstream); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := m.Add(context.Background(), "kegworks/core", upstream); !errors.Is(err, ErrTapExists) {
		t.Errorf("Add() duplicate error = %v, want ErrTapExists", err)
	}
}

func TestAddInvalidName(t *testing.T) {
	m := NewManager(t.TempDir())

	for _, name := range []string{"", "../escape"} {
		if _, err := m.Add(context.Background(), name, "https://example.com/tap.git"); err == nil {
			t.Errorf("Add(%q) expected error", name)
		}
	}
}

func TestAddCloneFailureLeavesNothing(t *testing.T) {
	tapsDir := filepath.Join(t.TempDir(), "taps")
	m := NewManager(tapsDir)

	_, err := m.Add(context.Background(), "kegworks/core", filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("Add() expected error for missing upstream")
	}

	if _, statErr := os.Stat(filepath.Join(tapsDir, "kegworks", "core")); !os.IsNotExist(statErr) {
		t.Error("failed clone left a partial tap directory behind")
	}
}

func TestUpdate(t *testing.T) {
	upstream, repo := makeTapRepo(t, map[string]string{
		"Formula/music-discord-rpc.lua": fixtureFormula,
	})

	m := NewManager(filepath.Join(t.TempDir(), "taps"))
	if _, err := m.Add(context.Background(), "kegworks/core", upstream); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// Update with nothing new upstream is not an error.
	if err := m.Update(context.Background(), "kegworks/core"); err != nil {
		t.Fatalf("Update() up-to-date error = %v", err)
	}

	// A new formula upstream becomes resolvable after update.
	commitFiles(t, upstream, repo, map[string]string{
		"Formula/other-tool.lua": `formula = { name = "other-tool", version = "0.1.0" }`,
	}, "add other-tool")

	if err := m.Update(context.Background(), "kegworks/core"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if _, err := m.Resolve("other-tool"); err != nil {
		t.Errorf("Resolve() after update error = %v", err)
	}
}

func TestUpdateUnknownTap(t *testing.T) {
	m := NewManager(t.TempDir())

	if err := m.Update(context.Background(), "kegworks/missing"); !errors.Is(err, ErrTapNotFound) {
		t.Errorf("Update() error = %v, want ErrTapNotFound", err)
	}
}

func TestRemove(t *testing.T) {
	upstream, _ := makeTapRepo(t, map[string]string{
		"Formula/music-discord-rpc.lua": fixtureFormula,
	})

	m := NewManager(filepath.Join(t.TempDir(), "taps"))
	if _, err := m.Add(context.Background(), "kegworks/core", upstream); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := m.Remove("kegworks/core"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := m.Resolve("music-discord-rpc"); !errors.Is(err, ErrFormulaNotFound) {
		t.Errorf("Resolve() after remove error = %v, want ErrFormulaNotFound", err)
	}

	if err := m.Remove("kegworks/core"); !errors.Is(err, ErrTapNotFound) {
		t.Errorf("Remove() twice error = %v, want ErrTapNotFound", err)
	}
}

func TestList(t *testing.T) {
	upstream, _ := makeTapRepo(t, map[string]string{
		"Formula/music-discord-rpc.lua": fixtureFormula,
	})

	m := NewManager(filepath.Join(t.TempDir(), "taps"))

	// Empty taps directory (or one that doesn't exist yet) lists nothing.
	taps, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(taps) != 0 {
		t.Errorf("List() = %v, want empty", taps)
	}

	for _, name := range []string{"zeta/extras", "kegworks/core"} {
		if _, err := m.Add(context.Background(), name, upstream); err != nil {
			t.Fatalf("Add(%s) error = %v", name, err)
		}
	}

	taps, err = m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(taps) != 2 || taps[0].Name != "kegworks/core" || taps[1].Name != "zeta/extras" {
		names := make([]string, len(taps))
		for i, tp := range taps {
			names[i] = tp.Name
		}
		t.Errorf("List() order = %v, want [kegworks/core zeta/extras]", names)
	}
}

func TestResolveSearchOrder(t *testing.T) {
	first, _ := makeTapRepo(t, map[string]string{
		"Formula/music-discord-rpc.lua": `formula = { name = "music-discord-rpc", version = "1.0.0" }`,
	})
	second, _ := makeTapRepo(t, map[string]string{
		"Formula/music-discord-rpc.lua": `formula = { name = "music-discord-rpc", version = "2.0.0" }`,
	})

	m := NewManager(filepath.Join(t.TempDir(), "taps"))
	if _, err := m.Add(context.Background(), "bravo/tap", second); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := m.Add(context.Background(), "alpha/tap", first); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// The first tap in name order wins.
	path, err := m.Resolve("music-discord-rpc")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read resolved formula: %v", err)
	}
	if string(data) != `formula = { name = "music-discord-rpc", version = "1.0.0" }` {
		t.Errorf("Resolve() returned formula from the wrong tap: %s", data)
	}
}
