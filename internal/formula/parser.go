package formula

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kegworks/keg/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// Parser evaluates Lua formulas with platform detection.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new formula parser with the given platform detector.
// A nil detector skips platform table injection; formulas that reference
// the platform table will then fail to evaluate.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile parses a Lua formula from a file on disk.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Formula, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read formula: %w", err)
	}
	return p.ParseString(ctx, string(data))
}

// ParseString parses a Lua formula from a string.
// This is useful for testing and for formulas fetched from taps.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Formula, error) {
	L := newSandboxedVM()
	defer L.Close()

	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractFormula(L)
}

// ParseError represents a formula parsing error with a friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractFormula extracts the formula from a Lua state.
// It expects a global "formula" table with the recipe structure.
func extractFormula(L *lua.LState) (*Formula, error) {
	formulaVal := L.GetGlobal("formula")
	if formulaVal.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'formula' table",
			Detail:  fmt.Sprintf("expected table, got %s", formulaVal.Type()),
		}
	}

	table := formulaVal.(*lua.LTable)
	f := &Formula{}

	f.Name = getString(table, "name")
	f.Description = getString(table, "description")
	f.Homepage = getString(table, "homepage")
	f.Version = getString(table, "version")
	f.License = getString(table, "license")

	if depsVal := table.RawGetString("dependencies"); depsVal.Type() == lua.LTTable {
		f.Dependencies = extractStrings(depsVal.(*lua.LTable))
	}

	if bottlesVal := table.RawGetString("bottles"); bottlesVal.Type() == lua.LTTable {
		bottles, err := extractBottles(bottlesVal.(*lua.LTable))
		if err != nil {
			return nil, err
		}
		f.Bottles = bottles
	}

	if installVal := table.RawGetString("install"); installVal.Type() == lua.LTTable {
		f.Install = InstallSpec{Bin: getString(installVal.(*lua.LTable), "bin")}
	}

	if serviceVal := table.RawGetString("service"); serviceVal.Type() == lua.LTTable {
		f.Service = extractService(serviceVal.(*lua.LTable))
	}

	if testVal := table.RawGetString("test"); testVal.Type() == lua.LTTable {
		testTable := testVal.(*lua.LTable)
		f.Test = TestSpec{Expect: getString(testTable, "expect")}
		if argsVal := testTable.RawGetString("args"); argsVal.Type() == lua.LTTable {
			f.Test.Args = extractStrings(argsVal.(*lua.LTable))
		}
	}

	if err := f.Validate(); err != nil {
		return nil, &ParseError{
			Message: "formula validation failed",
			Detail:  err.Error(),
		}
	}

	return f, nil
}

// extractBottles extracts the per-architecture bottle table. Keys are
// normalized so a formula may use "intel"/"arm" while lookup always goes
// through the canonical arch names.
func extractBottles(table *lua.LTable) (map[string]Bottle, error) {
	bottles := make(map[string]Bottle)
	var extractErr error

	table.ForEach(func(key, value lua.LValue) {
		if extractErr != nil {
			return
		}
		if key.Type() != lua.LTString || value.Type() != lua.LTTable {
			return
		}

		arch, err := platform.NormalizeArch(key.String())
		if err != nil {
			extractErr = &ParseError{
				Message: "invalid bottle architecture",
				Detail:  fmt.Sprintf("unknown architecture tag %q", key.String()),
			}
			return
		}

		bt := value.(*lua.LTable)
		bottle := Bottle{
			URL:          getString(bt, "url"),
			SHA256:       strings.ToLower(getString(bt, "sha256")),
			SignatureURL: getString(bt, "signature"),
		}

		if bundleVal := bt.RawGetString("bundle"); bundleVal.Type() == lua.LTTable {
			bundleTable := bundleVal.(*lua.LTable)
			bottle.Bundle = &SigstoreBundle{
				URL:      getString(bundleTable, "url"),
				Identity: getString(bundleTable, "identity"),
				Issuer:   getString(bundleTable, "issuer"),
			}
		}

		if _, exists := bottles[arch]; exists {
			extractErr = &ParseError{
				Message: "duplicate bottle architecture",
				Detail:  fmt.Sprintf("architecture %q declared more than once", arch),
			}
			return
		}
		bottles[arch] = bottle
	})

	if extractErr != nil {
		return nil, extractErr
	}
	return bottles, nil
}

// extractService extracts the optional service table.
func extractService(table *lua.LTable) *ServiceSpec {
	spec := &ServiceSpec{
		LogPath:      getString(table, "log_path"),
		ErrorLogPath: getString(table, "error_log_path"),
	}

	if runVal := table.RawGetString("run"); runVal.Type() == lua.LTTable {
		spec.Run = extractStrings(runVal.(*lua.LTable))
	} else if runVal.Type() == lua.LTString {
		// run = "binary" shorthand for run = { "binary" }
		spec.Run = []string{runVal.String()}
	}

	if kaVal := table.RawGetString("keep_alive"); kaVal.Type() == lua.LTBool {
		spec.KeepAlive = bool(kaVal.(lua.LBool))
	}

	if envVal := table.RawGetString("environment"); envVal.Type() == lua.LTTable {
		env := make(map[string]string)
		envVal.(*lua.LTable).ForEach(func(key, value lua.LValue) {
			if key.Type() == lua.LTString && value.Type() == lua.LTString {
				env[key.String()] = value.String()
			}
		})
		if len(env) > 0 {
			spec.Environment = env
		}
	}

	return spec
}

// extractStrings extracts a string array from a Lua table, skipping nil
// values left behind by platform conditionals like
// platform.when(platform.is_linux, "media-control").
func extractStrings(table *lua.LTable) []string {
	var out []string
	table.ForEach(func(key, value lua.LValue) {
		if value.Type() != lua.LTString {
			return
		}
		out = append(out, value.String())
	})
	return out
}

// getString reads a string field from a Lua table, returning "" when the
// field is absent or not a string.
func getString(table *lua.LTable, field string) string {
	if val := table.RawGetString(field); val.Type() == lua.LTString {
		return val.String()
	}
	return ""
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show the friendly
// message with the traceback stripped.
func FormatError(err error, verbose bool) string {
	if parseErr, ok := err.(*ParseError); ok {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
