package ffmpeg

import (
	"bufio"
	"strings"
	"testing"
	"time"
)

func TestHexToASSReordersChannels(t *testing.T) {
	cases := map[string]string{
		"FFFFFF":  "&HFFFFFF",
		"#FFFFFF": "&HFFFFFF",
		"FF0000":  "&H0000FF", // red moves to the low byte
		"00FF00":  "&H00FF00",
		"0000FF":  "&HFF0000",
		"12AB34":  "&H34AB12",
	}
	for in, want := range cases {
		if got := HexToASS(in); got != want {
			t.Fatalf("HexToASS(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestHexToASSBadInputFallsBackToWhite(t *testing.T) {
	for _, in := range []string{"", "FFF", "#FFFF", "way too long"} {
		if got := HexToASS(in); got != "&HFFFFFF" {
			t.Fatalf("HexToASS(%q): expected white fallback, got %q", in, got)
		}
	}
}

func TestBuildForceStyleDefaults(t *testing.T) {
	got := BuildForceStyle(DefaultStyle())
	want := "FontSize=16,FontName=Arial Bold,PrimaryColour=&HFFFFFF,OutlineColour=&H000000,Outline=3,BorderStyle=1,Alignment=10,MarginV=50"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestEscapeFilterPath(t *testing.T) {
	if got := escapeFilterPath(`C:\media\movie.srt`); got != `C\:/media/movie.srt` {
		t.Fatalf("unexpected escape %q", got)
	}
	if got := escapeFilterPath("/plain/path.srt"); got != "/plain/path.srt" {
		t.Fatalf("expected plain path untouched, got %q", got)
	}
}

func TestBurnOutputPathNaming(t *testing.T) {
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	got := BurnOutputPath("/media/movie.mkv", at)
	want := "/media/movie_captions_2026-03-14T15-09-26.mkv"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if strings.ContainsRune(got[len("/media/"):], ':') {
		t.Fatalf("expected no colons in the filename, got %q", got)
	}
}

func TestScanProgressLinesSplitsCarriageReturns(t *testing.T) {
	input := "frame=1 time=00:00:01.00\rframe=2 time=00:00:02.00\nDone\n"
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanProgressLines)

	var lines []string
	for scanner.Scan() {
		if text := strings.TrimSpace(scanner.Text()); text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "frame=1 time=00:00:01.00" || lines[2] != "Done" {
		t.Fatalf("unexpected split %v", lines)
	}
}
