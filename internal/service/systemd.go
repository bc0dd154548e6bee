package service

import (
	"fmt"
	"strings"
)

// renderSystemd renders a unit as a systemd user unit.
func renderSystemd(u *Unit) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "[Unit]\n")
	fmt.Fprintf(&b, "Description=%s (managed by keg)\n", u.Name)
	fmt.Fprintf(&b, "\n")

	fmt.Fprintf(&b, "[Service]\n")
	fmt.Fprintf(&b, "ExecStart=%s\n", systemdCommand(u.Program))
	if u.KeepAlive {
		fmt.Fprintf(&b, "Restart=always\n")
		fmt.Fprintf(&b, "RestartSec=5\n")
	} else {
		fmt.Fprintf(&b, "Restart=no\n")
	}
	for _, k := range sortedKeys(u.Environment) {
		fmt.Fprintf(&b, "Environment=%q\n", k+"="+u.Environment[k])
	}
	fmt.Fprintf(&b, "StandardOutput=append:%s\n", u.StdoutPath)
	fmt.Fprintf(&b, "StandardError=append:%s\n", u.StderrPath)
	fmt.Fprintf(&b, "\n")

	fmt.Fprintf(&b, "[Install]\n")
	fmt.Fprintf(&b, "WantedBy=default.target\n")

	return b.String(), nil
}

// systemdCommand joins an argv into an ExecStart value, quoting arguments
// that contain whitespace.
func systemdCommand(program []string) string {
	parts := make([]string, len(program))
	for i, arg := range program {
		if strings.ContainsAny(arg, " \t") {
			parts[i] = `"` + arg + `"`
		} else {
			parts[i] = arg
		}
	}
	return strings.Join(parts, " ")
}
