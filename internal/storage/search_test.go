package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSearchFindsVideosCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shows", "Breaking.Point.S01E01.mkv"), "v")
	writeFile(t, filepath.Join(root, "movies", "breaking_dawn.mp4"), "v")
	writeFile(t, filepath.Join(root, "movies", "unrelated.mp4"), "v")
	writeFile(t, filepath.Join(root, "breaking_notes.txt"), "not a video")

	results, err := Search(root, "BREAKING", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.IsVideo {
			t.Errorf("expected video result, got %+v", r)
		}
		if filepath.IsAbs(r.Path) {
			t.Errorf("expected path relative to root, got %q", r.Path)
		}
	}
}

func TestSearchStopsAtLimit(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"ep1.mkv", "ep2.mkv", "ep3.mkv", "ep4.mkv"} {
		writeFile(t, filepath.Join(root, name), "v")
	}

	results, err := Search(root, "ep", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestSearchSkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".trash", "deleted.mkv"), "v")
	writeFile(t, filepath.Join(root, "keep.mkv"), "v")

	results, err := Search(root, "mkv", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Name != "keep.mkv" {
		t.Fatalf("expected only keep.mkv, got %+v", results)
	}
}

func TestSearchIgnoresDirectoryNames(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "pilot season"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(root, "pilot season", "pilot.mkv"), "v")

	results, err := Search(root, "pilot", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Name != "pilot.mkv" {
		t.Fatalf("expected only the video file, got %+v", results)
	}
}
