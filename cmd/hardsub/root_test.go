package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hardsub/hardsub/internal/deps"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()

	want := map[string]bool{
		"transcribe": false,
		"burn":       false,
		"serve":      false,
		"doctor":     false,
	}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRenderTableIncludesHeadersAndCells(t *testing.T) {
	out := renderTable(
		[]string{"Dependency", "Status"},
		[][]string{
			{"ffmpeg", "ok"},
			{"python3", "MISSING"},
		},
	)

	// go-pretty renders headers uppercased.
	for _, want := range []string{"DEPENDENCY", "STATUS", "ffmpeg", "ok", "python3", "MISSING"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctorStateLabels(t *testing.T) {
	if got := doctorState(deps.Status{Available: true}); got != "ok" {
		t.Errorf("available state = %q, want ok", got)
	}
	if got := doctorState(deps.Status{Optional: true}); got != "missing (optional)" {
		t.Errorf("optional state = %q, want missing (optional)", got)
	}
	if got := doctorState(deps.Status{}); got != "MISSING" {
		t.Errorf("required state = %q, want MISSING", got)
	}
}

func TestShouldEchoProgressRejectsNonTerminal(t *testing.T) {
	if shouldEchoProgress(&bytes.Buffer{}) {
		t.Fatal("a bytes.Buffer is not a terminal")
	}
}
