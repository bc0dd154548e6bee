package main

import (
	"fmt"
	"os"
	"strings"
)

// kvLogger writes key=value log lines to stderr, so stdout stays clean
// for command output. Debug lines only appear with --verbose.
type kvLogger struct {
	verbose bool
}

func (l *kvLogger) Debug(msg string, keysAndValues ...interface{}) {
	if l.verbose {
		l.log("DEBUG", msg, keysAndValues...)
	}
}

func (l *kvLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log("INFO", msg, keysAndValues...)
}

func (l *kvLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log("WARN", msg, keysAndValues...)
}

func (l *kvLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log("ERROR", msg, keysAndValues...)
}

func (l *kvLogger) log(level, msg string, keysAndValues ...interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", level, msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	fmt.Fprintln(os.Stderr, b.String())
}
