package cellar

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testKeg(name, version string) *Keg {
	return &Keg{
		Name:        name,
		Version:     version,
		Arch:        "arm64",
		BinPath:     filepath.Join("/opt/keg/bin", name),
		BottleURL:   "https://example.com/" + name + ".gz",
		SHA256:      "a973e80ddcebdc439e794b5e6d07ea1d67de48e9b93237885de8abb10b3b0b4d",
		InstalledAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestCellarSaveLoad(t *testing.T) {
	c := New(t.TempDir())

	keg := testKeg("music-discord-rpc", "0.6.2")
	if err := c.Save(keg); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	loaded, err := c.Load("music-discord-rpc")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if loaded.Version != "0.6.2" || loaded.Arch != "arm64" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.SHA256 != keg.SHA256 {
		t.Errorf("SHA256 = %q", loaded.SHA256)
	}
	if !loaded.InstalledAt.Equal(keg.InstalledAt) {
		t.Errorf("InstalledAt = %v, want %v", loaded.InstalledAt, keg.InstalledAt)
	}
}

func TestCellarSaveOverwrites(t *testing.T) {
	c := New(t.TempDir())

	if err := c.Save(testKeg("pkg", "1.0.0")); err != nil {
		t.Fatal(err)
	}
	if err := c.Save(testKeg("pkg", "1.1.0")); err != nil {
		t.Fatal(err)
	}

	loaded, err := c.Load("pkg")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if loaded.Version != "1.1.0" {
		t.Errorf("Version = %q, want 1.1.0", loaded.Version)
	}

	kegs, err := c.List()
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(kegs) != 1 {
		t.Errorf("List() returned %d records, want 1", len(kegs))
	}
}

func TestCellarLoadMissing(t *testing.T) {
	c := New(t.TempDir())

	_, err := c.Load("never-installed")
	if !errors.Is(err, ErrNotInstalled) {
		t.Errorf("Load() error = %v, want ErrNotInstalled", err)
	}
}

func TestCellarRemove(t *testing.T) {
	c := New(t.TempDir())

	if err := c.Save(testKeg("pkg", "1.0.0")); err != nil {
		t.Fatal(err)
	}
	if err := c.Remove("pkg"); err != nil {
		t.Fatalf("Remove() unexpected error: %v", err)
	}
	if _, err := c.Load("pkg"); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("Load() after remove error = %v, want ErrNotInstalled", err)
	}
	if err := c.Remove("pkg"); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("Remove() twice error = %v, want ErrNotInstalled", err)
	}
}

func TestCellarList(t *testing.T) {
	c := New(t.TempDir())

	for _, name := range []string{"zig", "media-control", "music-discord-rpc"} {
		if err := c.Save(testKeg(name, "1.0.0")); err != nil {
			t.Fatal(err)
		}
	}

	kegs, err := c.List()
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(kegs) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(kegs))
	}

	// Sorted by name
	want := []string{"media-control", "music-discord-rpc", "zig"}
	for i, keg := range kegs {
		if keg.Name != want[i] {
			t.Errorf("kegs[%d].Name = %q, want %q", i, keg.Name, want[i])
		}
	}
}

func TestCellarListEmpty(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "does-not-exist"))

	kegs, err := c.List()
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(kegs) != 0 {
		t.Errorf("List() returned %d records, want 0", len(kegs))
	}
}
