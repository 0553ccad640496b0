package handlers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveMediaPathRelative(t *testing.T) {
	root := t.TempDir()
	got, err := resolveMediaPath(root, "shows/pilot.mkv")
	if err != nil {
		t.Fatalf("resolveMediaPath failed: %v", err)
	}
	want := filepath.Join(root, "shows", "pilot.mkv")
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestResolveMediaPathAbsolutePassthrough(t *testing.T) {
	root := t.TempDir()
	got, err := resolveMediaPath(root, "/elsewhere/movie.mkv")
	if err != nil {
		t.Fatalf("resolveMediaPath failed: %v", err)
	}
	if got != "/elsewhere/movie.mkv" {
		t.Errorf("expected absolute path unchanged, got %q", got)
	}
}

func TestResolveMediaPathRejectsEscape(t *testing.T) {
	root := t.TempDir()
	if _, err := resolveMediaPath(root, "../outside.srt"); !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}
