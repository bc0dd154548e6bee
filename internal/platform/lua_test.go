package platform

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestInjectPlatformTable(t *testing.T) {
	info := &Info{
		OS:       "linux",
		Arch:     "amd64",
		ArchRaw:  "amd64",
		Platform: "ubuntu",
		Family:   FamilyDebian,
		Version:  "22.04",
	}

	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable() unexpected error: %v", err)
	}

	tests := []struct {
		name string
		code string
	}{
		{name: "os", code: `assert(platform.os == "linux")`},
		{name: "arch", code: `assert(platform.arch == "amd64")`},
		{name: "is_linux", code: `assert(platform.is_linux == true)`},
		{name: "is_macos", code: `assert(platform.is_macos == false)`},
		{name: "distro_id", code: `assert(platform.distro.id == "ubuntu")`},
		{name: "distro_family", code: `assert(platform.distro.family == "debian")`},
		{name: "when_true", code: `assert(platform.when(true, "x") == "x")`},
		{name: "when_false", code: `assert(platform.when(false, "x") == nil)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := L.DoString(tt.code); err != nil {
				t.Errorf("lua error: %v", err)
			}
		})
	}
}

func TestInjectPlatformTableNoDistro(t *testing.T) {
	info := &Info{OS: "darwin", Arch: "arm64", ArchRaw: "arm64"}

	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable() unexpected error: %v", err)
	}

	if err := L.DoString(`assert(platform.distro == nil)`); err != nil {
		t.Errorf("expected nil distro on darwin: %v", err)
	}
	if err := L.DoString(`assert(platform.is_apple_silicon == true)`); err != nil {
		t.Errorf("expected apple silicon: %v", err)
	}
}

func TestPlatformTableReadOnly(t *testing.T) {
	info := &Info{OS: "linux", Arch: "amd64", ArchRaw: "amd64"}

	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable() unexpected error: %v", err)
	}

	err := L.DoString(`platform.os = "windows"`)
	if err == nil {
		t.Fatal("expected error writing to read-only platform table")
	}
	if !strings.Contains(err.Error(), "read-only") {
		t.Errorf("unexpected error: %v", err)
	}
}
