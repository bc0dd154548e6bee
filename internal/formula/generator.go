package formula

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Generator generates Lua formula source from a Formula struct.
// Used by tap tooling when bumping a formula to a new upstream release.
type Generator struct {
	indent string
}

// NewGenerator creates a new Lua formula generator.
func NewGenerator() *Generator {
	return &Generator{
		indent: "  ", // Two spaces
	}
}

// Generate renders a Formula as formatted, human-readable Lua source.
// The output parses back to an equivalent formula.
func (g *Generator) Generate(f *Formula) (string, error) {
	if err := f.Validate(); err != nil {
		return "", fmt.Errorf("cannot generate invalid formula: %w", err)
	}

	var buf bytes.Buffer

	buf.WriteString("formula = {\n")

	g.writeField(&buf, 1, "name", f.Name)
	g.writeField(&buf, 1, "description", f.Description)
	g.writeField(&buf, 1, "homepage", f.Homepage)
	g.writeField(&buf, 1, "version", f.Version)
	g.writeField(&buf, 1, "license", f.License)

	if len(f.Dependencies) > 0 {
		g.writeIndent(&buf, 1)
		buf.WriteString("dependencies = { ")
		for i, dep := range f.Dependencies {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(quoteLua(dep))
		}
		buf.WriteString(" },\n")
	}

	g.writeBottles(&buf, f.Bottles)

	if f.Install.Bin != "" {
		g.writeIndent(&buf, 1)
		buf.WriteString("install = { bin = " + quoteLua(f.Install.Bin) + " },\n")
	}

	if f.Service != nil {
		g.writeService(&buf, f.Service)
	}

	g.writeTest(&buf, f.Test)

	buf.WriteString("}\n")

	return buf.String(), nil
}

func (g *Generator) writeBottles(buf *bytes.Buffer, bottles map[string]Bottle) {
	g.writeIndent(buf, 1)
	buf.WriteString("bottles = {\n")

	// Deterministic output: sort architectures.
	arches := make([]string, 0, len(bottles))
	for arch := range bottles {
		arches = append(arches, arch)
	}
	sort.Strings(arches)

	for _, arch := range arches {
		bottle := bottles[arch]
		g.writeIndent(buf, 2)
		buf.WriteString(arch + " = {\n")
		g.writeField(buf, 3, "url", bottle.URL)
		g.writeField(buf, 3, "sha256", bottle.SHA256)
		g.writeField(buf, 3, "signature", bottle.SignatureURL)
		if bottle.Bundle != nil {
			g.writeIndent(buf, 3)
			buf.WriteString("bundle = {\n")
			g.writeField(buf, 4, "url", bottle.Bundle.URL)
			g.writeField(buf, 4, "identity", bottle.Bundle.Identity)
			g.writeField(buf, 4, "issuer", bottle.Bundle.Issuer)
			g.writeIndent(buf, 3)
			buf.WriteString("},\n")
		}
		g.writeIndent(buf, 2)
		buf.WriteString("},\n")
	}

	g.writeIndent(buf, 1)
	buf.WriteString("},\n")
}

func (g *Generator) writeService(buf *bytes.Buffer, spec *ServiceSpec) {
	g.writeIndent(buf, 1)
	buf.WriteString("service = {\n")

	g.writeIndent(buf, 2)
	buf.WriteString("run = { ")
	for i, arg := range spec.Run {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(quoteLua(arg))
	}
	buf.WriteString(" },\n")

	g.writeIndent(buf, 2)
	buf.WriteString(fmt.Sprintf("keep_alive = %t,\n", spec.KeepAlive))

	if len(spec.Environment) > 0 {
		g.writeIndent(buf, 2)
		buf.WriteString("environment = {\n")
		keys := make([]string, 0, len(spec.Environment))
		for k := range spec.Environment {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			g.writeIndent(buf, 3)
			buf.WriteString(fmt.Sprintf("%s = %s,\n", k, quoteLua(spec.Environment[k])))
		}
		g.writeIndent(buf, 2)
		buf.WriteString("},\n")
	}

	g.writeField(buf, 2, "log_path", spec.LogPath)
	g.writeField(buf, 2, "error_log_path", spec.ErrorLogPath)

	g.writeIndent(buf, 1)
	buf.WriteString("},\n")
}

func (g *Generator) writeTest(buf *bytes.Buffer, spec TestSpec) {
	if len(spec.Args) == 0 && spec.Expect == "" {
		return
	}

	g.writeIndent(buf, 1)
	buf.WriteString("test = {\n")
	if len(spec.Args) > 0 {
		g.writeIndent(buf, 2)
		buf.WriteString("args = { ")
		for i, arg := range spec.Args {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(quoteLua(arg))
		}
		buf.WriteString(" },\n")
	}
	g.writeField(buf, 2, "expect", spec.Expect)
	g.writeIndent(buf, 1)
	buf.WriteString("},\n")
}

// writeField writes `name = "value",` at the given indent level, skipping
// empty values.
func (g *Generator) writeField(buf *bytes.Buffer, level int, name, value string) {
	if value == "" {
		return
	}
	g.writeIndent(buf, level)
	buf.WriteString(fmt.Sprintf("%s = %s,\n", name, quoteLua(value)))
}

func (g *Generator) writeIndent(buf *bytes.Buffer, level int) {
	for i := 0; i < level; i++ {
		buf.WriteString(g.indent)
	}
}

// quoteLua quotes a string for Lua source, escaping backslashes and quotes.
func quoteLua(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}
