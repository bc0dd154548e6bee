package service

import (
	"strings"
	"testing"
)

func TestRenderLaunchd(t *testing.T) {
	unit := &Unit{
		Name:      "music-discord-rpc",
		Label:     "keg.music-discord-rpc",
		Program:   []string{"/opt/keg/bin/music-discord-rpc", "--daemon"},
		KeepAlive: true,
		Environment: map[string]string{
			"PATH":     "/usr/bin:/bin:/opt/keg/bin",
			"RUST_LOG": "info",
		},
		StdoutPath: "/opt/keg/logs/music-discord-rpc.log",
		StderrPath: "/opt/keg/logs/music-discord-rpc.err.log",
	}

	out, err := renderLaunchd(unit)
	if err != nil {
		t.Fatalf("renderLaunchd() error = %v", err)
	}

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN"`,
		`<plist version="1.0">`,
		"<key>Label</key>",
		"<string>keg.music-discord-rpc</string>",
		"<key>ProgramArguments</key>",
		"<string>/opt/keg/bin/music-discord-rpc</string>",
		"<string>--daemon</string>",
		"<key>RunAtLoad</key>",
		"<key>KeepAlive</key>",
		"<true/>",
		"<key>EnvironmentVariables</key>",
		"<key>RUST_LOG</key>",
		"<string>info</string>",
		"<key>StandardOutPath</key>",
		"<key>StandardErrorPath</key>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("plist missing %q\n%s", want, out)
		}
	}
}

func TestRenderLaunchdKeepAliveFalse(t *testing.T) {
	unit := &Unit{
		Name:       "music-discord-rpc",
		Label:      "keg.music-discord-rpc",
		Program:    []string{"/opt/keg/bin/music-discord-rpc"},
		StdoutPath: "/opt/keg/logs/out.log",
		StderrPath: "/opt/keg/logs/err.log",
	}

	out, err := renderLaunchd(unit)
	if err != nil {
		t.Fatalf("renderLaunchd() error = %v", err)
	}

	// RunAtLoad is always true; KeepAlive follows the unit.
	if !strings.Contains(out, "<key>KeepAlive</key>") {
		t.Fatal("plist missing KeepAlive key")
	}
	if !strings.Contains(out, "<false/>") {
		t.Errorf("KeepAlive should render <false/>\n%s", out)
	}
}
