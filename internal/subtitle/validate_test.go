package subtitle

import (
	"strings"
	"testing"
)

func TestValidateCleanContent(t *testing.T) {
	raw := `1
00:00:01,000 --> 00:00:02,000
First

2
00:00:02,500 --> 00:00:04,000
Second
`
	if issues := Validate(raw, 10.0); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidateFlagsOutOfSequenceIndex(t *testing.T) {
	raw := `1
00:00:01,000 --> 00:00:02,000
First

7
00:00:03,000 --> 00:00:04,000
Second
`
	issues := Validate(raw, 0)
	if len(issues) != 1 || issues[0].Cue != 2 {
		t.Fatalf("expected one issue on cue 2, got %+v", issues)
	}
	if !strings.Contains(issues[0].Message, "out of sequence") {
		t.Fatalf("unexpected message %q", issues[0].Message)
	}
}

func TestValidateFlagsReversedTimes(t *testing.T) {
	raw := `1
00:00:05,000 --> 00:00:03,000
Backwards
`
	issues := Validate(raw, 0)
	if len(issues) != 1 {
		t.Fatalf("expected one issue, got %+v", issues)
	}
	if !strings.Contains(issues[0].Message, "precedes") {
		t.Fatalf("unexpected message %q", issues[0].Message)
	}
}

func TestValidateFlagsOverlap(t *testing.T) {
	raw := `1
00:00:01,000 --> 00:00:03,000
First

2
00:00:02,000 --> 00:00:04,000
Second
`
	issues := Validate(raw, 0)
	if len(issues) != 1 || !strings.Contains(issues[0].Message, "overlaps") {
		t.Fatalf("expected an overlap issue, got %+v", issues)
	}
}

func TestValidateFlagsCuePastDuration(t *testing.T) {
	raw := `1
00:01:00,000 --> 00:01:30,000
Way past the end
`
	issues := Validate(raw, 60.0)
	if len(issues) != 1 || !strings.Contains(issues[0].Message, "past the media duration") {
		t.Fatalf("expected a duration issue, got %+v", issues)
	}
	// within the grace window is fine
	if issues := Validate(raw, 89.5); len(issues) != 0 {
		t.Fatalf("expected grace to absorb probe rounding, got %+v", issues)
	}
}

func TestValidateSkipsDurationCheckWithoutDuration(t *testing.T) {
	raw := `1
01:00:00,000 --> 01:00:05,000
Long movie
`
	if issues := Validate(raw, 0); len(issues) != 0 {
		t.Fatalf("expected no issues without a known duration, got %+v", issues)
	}
}

func TestValidateFlagsTextlessCues(t *testing.T) {
	raw := `1
00:00:01,000 --> 00:00:02,000
First

2
00:00:03,000 --> 00:00:04,000

`
	issues := Validate(raw, 0)
	if len(issues) != 1 || !strings.Contains(issues[0].Message, "no text") {
		t.Fatalf("expected a textless-cue issue, got %+v", issues)
	}
	if issues[0].Cue != 0 {
		t.Fatalf("expected a document-level issue, got %+v", issues[0])
	}
}

func TestValidateEmptyAndUnparseableContent(t *testing.T) {
	if issues := Validate("", 0); len(issues) != 0 {
		t.Fatalf("expected empty content to pass, got %+v", issues)
	}
	issues := Validate("this is not an srt file", 0)
	if len(issues) != 1 || !strings.Contains(issues[0].Message, "no cues") {
		t.Fatalf("expected a no-cues issue, got %+v", issues)
	}
}
