package whisper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFF fake audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestWhisperCppTranscribeParsesVerboseJSON(t *testing.T) {
	var gotFormat, gotLanguage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotFormat = r.FormValue("response_format")
		gotLanguage = r.FormValue("language")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"task": "transcribe",
			"language": "en",
			"duration": 5.0,
			"text": " Hello. Bye.",
			"segments": [
				{"start": 0.0, "end": 2.5, "text": " Hello.", "words": [{"start": 0.0, "end": 0.5, "word": " Hello."}]},
				{"start": 2.5, "end": 5.0, "text": " Bye."}
			]
		}`))
	}))
	defer server.Close()

	engine := NewWhisperCppEngine(server.URL)
	var info Info
	var segments []Segment
	err := engine.Transcribe(context.Background(), Request{
		AudioPath:      writeTestAudio(t),
		Language:       "en",
		WordTimestamps: true,
	}, func(i Info) { info = i }, func(s Segment) error {
		segments = append(segments, s)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFormat != "verbose_json" {
		t.Fatalf("expected verbose_json request, got %q", gotFormat)
	}
	if gotLanguage != "en" {
		t.Fatalf("expected language field, got %q", gotLanguage)
	}
	if info.Language != "en" || info.Duration != 5.0 {
		t.Fatalf("unexpected info %+v", info)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if len(segments[0].Words) != 1 {
		t.Fatalf("expected word detail on the first segment, got %+v", segments[0])
	}
	if len(segments[1].Words) != 0 {
		t.Fatalf("expected no word detail on the second segment, got %+v", segments[1])
	}
}

func TestWhisperCppDropsWordsWhenNotRequested(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"language":"en","segments":[{"start":0,"end":1,"text":"x","words":[{"start":0,"end":1,"word":"x"}]}]}`))
	}))
	defer server.Close()

	engine := NewWhisperCppEngine(server.URL)
	var segments []Segment
	err := engine.Transcribe(context.Background(), Request{AudioPath: writeTestAudio(t)},
		nil, func(s Segment) error {
			segments = append(segments, s)
			return nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 1 || len(segments[0].Words) != 0 {
		t.Fatalf("expected words stripped without a request for them, got %+v", segments)
	}
}

func TestWhisperCppNonRetryableErrorFailsFast(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad audio", http.StatusBadRequest)
	}))
	defer server.Close()

	engine := NewWhisperCppEngine(server.URL)
	err := engine.Transcribe(context.Background(), Request{AudioPath: writeTestAudio(t)},
		nil, func(Segment) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("expected a server error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retries on 400, got %d calls", calls)
	}
}

func TestTransientClassification(t *testing.T) {
	if !isTransientNetError(errors.New("dial tcp: connection refused")) {
		t.Fatalf("expected connection refused to be transient")
	}
	if isTransientNetError(errors.New("no such host")) {
		t.Fatalf("expected DNS failure to be permanent")
	}
	if isTransientNetError(nil) {
		t.Fatalf("expected nil to be permanent")
	}
}
