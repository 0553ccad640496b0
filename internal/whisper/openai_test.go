package whisper

import (
	"context"
	"testing"
)

func TestOpenAIRequiresKey(t *testing.T) {
	engine := NewOpenAIEngine("")
	err := engine.Transcribe(context.Background(), Request{AudioPath: "/tmp/x.wav"},
		nil, func(Segment) error { return nil })
	if err == nil {
		t.Fatalf("expected an error without an API key")
	}
}

func TestOpenAIResponseForwardsSegmentsWithoutWords(t *testing.T) {
	resp := &openAIResponse{
		Language: "english",
		Duration: 4.0,
		Segments: []openAISegment{
			{Start: 0, End: 2, Text: " One."},
			{Start: 2, End: 4, Text: " Two."},
		},
	}

	engine := NewOpenAIEngine("key")
	var info Info
	engine.fireInfo(resp, "auto", func(i Info) { info = i })
	if info.Language != "english" || info.Duration != 4.0 {
		t.Fatalf("unexpected info %+v", info)
	}

	var segments []Segment
	if err := engine.forward(resp, 0, func(s Segment) error {
		segments = append(segments, s)
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if len(segments[0].Words) != 0 {
		t.Fatalf("the API reports no word timing; got %+v", segments[0])
	}
}

func TestOpenAIChunkOffsetsSegmentTimes(t *testing.T) {
	resp := &openAIResponse{
		Segments: []openAISegment{
			{Start: 1, End: 3, Text: " later"},
		},
	}

	engine := NewOpenAIEngine("key")
	var seg Segment
	if err := engine.forward(resp, 600, func(s Segment) error {
		seg = s
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Start != 601 || seg.End != 603 {
		t.Fatalf("expected chunk offset applied, got %+v", seg)
	}
}
