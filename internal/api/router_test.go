package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hardsub/hardsub/internal/monitor"
	"github.com/hardsub/hardsub/internal/whisper"
)

// fakeService satisfies Service and streams canned recognition output.
type fakeService struct {
	info     whisper.Info
	segments []whisper.Segment
	err      error
	gotPath  string
	gotOpts  whisper.TranscribeOptions
}

func (f *fakeService) Transcribe(ctx context.Context, videoPath string, opts whisper.TranscribeOptions, onInfo func(whisper.Info), onSegment func(whisper.Segment) error) error {
	f.gotPath = videoPath
	f.gotOpts = opts
	if f.err != nil {
		return f.err
	}
	if onInfo != nil {
		onInfo(f.info)
	}
	for _, seg := range f.segments {
		if err := onSegment(seg); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeService) DefaultEngine() string { return "faster-whisper" }
func (f *fakeService) EngineNames() []string { return []string{"faster-whisper"} }

func newTestRouter(t *testing.T, svc Service) (*chi.Mux, string, *monitor.Monitor) {
	t.Helper()
	mediaRoot := t.TempDir()
	mon := monitor.New()
	router := NewRouter(svc, mon, Options{
		MediaRoot:    mediaRoot,
		ThumbnailDir: filepath.Join(t.TempDir(), "thumbs"),
		DefaultModel: "small",
		Version:      "test",
	})
	return router, mediaRoot, mon
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func doJSON(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return out
}

// sseEvents parses every data: line of an SSE body.
func sseEvents(t *testing.T, body string) []map[string]interface{} {
	t.Helper()
	var events []map[string]interface{}
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev map[string]interface{}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad event line %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestHealthEndpoint(t *testing.T) {
	router, _, mon := newTestRouter(t, &fakeService{})

	rec := doJSON(t, router, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["busy"] != false || body["version"] != "test" {
		t.Errorf("unexpected health body: %v", body)
	}

	mon.TryAcquire("transcribe")
	defer mon.Release()
	body = decodeBody(t, doJSON(t, router, http.MethodGet, "/api/health", ""))
	if body["busy"] != true || body["job"] != "transcribe" {
		t.Errorf("expected busy health body, got %v", body)
	}
}

func TestEnginesEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeService{})

	rec := doJSON(t, router, http.MethodGet, "/api/engines", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["default"] != "faster-whisper" {
		t.Errorf("unexpected default engine %v", body["default"])
	}
	engines, ok := body["engines"].([]interface{})
	if !ok || len(engines) != 1 || engines[0] != "faster-whisper" {
		t.Errorf("unexpected engines %v", body["engines"])
	}
	models, ok := body["models"].([]interface{})
	if !ok || len(models) == 0 {
		t.Errorf("expected model list, got %v", body["models"])
	}
}

func TestFilesTreeEndpoint(t *testing.T) {
	router, mediaRoot, _ := newTestRouter(t, &fakeService{})
	writeFile(t, filepath.Join(mediaRoot, "movie.mkv"), "v")
	writeFile(t, filepath.Join(mediaRoot, "shows", "pilot.mp4"), "v")

	rec := doJSON(t, router, http.MethodGet, "/api/files/tree", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	entries, ok := body["entries"].([]interface{})
	if !ok || len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %v", body["entries"])
	}

	rec = doJSON(t, router, http.MethodGet, "/api/files/tree/shows", "")
	body = decodeBody(t, rec)
	entries = body["entries"].([]interface{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry under shows, got %v", entries)
	}
	first := entries[0].(map[string]interface{})
	if first["name"] != "pilot.mp4" || first["is_video"] != true {
		t.Errorf("unexpected entry %v", first)
	}
}

func TestFilesSearchEndpoint(t *testing.T) {
	router, mediaRoot, _ := newTestRouter(t, &fakeService{})
	writeFile(t, filepath.Join(mediaRoot, "holiday.mkv"), "v")

	rec := doJSON(t, router, http.MethodGet, "/api/files/search", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without query, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/files/search?q=holi", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	results := body["results"].([]interface{})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %v", results)
	}
}

func TestFilesContentServesVideoBytes(t *testing.T) {
	router, mediaRoot, _ := newTestRouter(t, &fakeService{})
	writeFile(t, filepath.Join(mediaRoot, "movie.mkv"), "binary video bytes")

	rec := doJSON(t, router, http.MethodGet, "/api/files/content/movie.mkv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "binary video bytes" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if rec.Header().Get("Accept-Ranges") != "bytes" {
		t.Error("expected range support for the preview player")
	}

	rec = doJSON(t, router, http.MethodGet, "/api/files/content/movie.txt", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-video, got %d", rec.Code)
	}
}

func TestSRTGetAndSave(t *testing.T) {
	router, mediaRoot, _ := newTestRouter(t, &fakeService{})
	srt := "1\n00:00:01,000 --> 00:00:02,000\nHello.\n\n"
	writeFile(t, filepath.Join(mediaRoot, "movie.srt"), srt)

	rec := doJSON(t, router, http.MethodGet, "/api/srt?path=movie.srt", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["content"] != srt {
		t.Errorf("unexpected content %q", body["content"])
	}
	if body["path"] != filepath.Join(mediaRoot, "movie.srt") {
		t.Errorf("unexpected path %v", body["path"])
	}

	rec = doJSON(t, router, http.MethodGet, "/api/srt", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without path, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/srt?path=missing.srt", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing file, got %d", rec.Code)
	}

	edited := "1\n00:00:01,000 --> 00:00:02,000\nHello, edited.\n\n"
	payload, _ := json.Marshal(map[string]string{"path": "movie.srt", "content": edited})
	rec = doJSON(t, router, http.MethodPost, "/api/srt", string(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body = decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("expected success, got %v", body)
	}
	if issues := body["issues"].([]interface{}); len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
	data, err := os.ReadFile(filepath.Join(mediaRoot, "movie.srt"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != edited {
		t.Errorf("saved content mismatch: %q", data)
	}
}

func TestSRTSaveReportsIssues(t *testing.T) {
	router, mediaRoot, _ := newTestRouter(t, &fakeService{})
	writeFile(t, filepath.Join(mediaRoot, "movie.srt"), "")

	reversed := "1\n00:00:05,000 --> 00:00:02,000\nBackwards.\n\n"
	payload, _ := json.Marshal(map[string]string{"path": "movie.srt", "content": reversed})
	rec := doJSON(t, router, http.MethodPost, "/api/srt", string(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	issues := body["issues"].([]interface{})
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %v", issues)
	}
	issue := issues[0].(map[string]interface{})
	if !strings.Contains(issue["message"].(string), "precedes") {
		t.Errorf("unexpected issue %v", issue)
	}
}

func TestSRTSaveRejectsEscape(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeService{})

	payload, _ := json.Marshal(map[string]string{"path": "../outside.srt", "content": "x"})
	rec := doJSON(t, router, http.MethodPost, "/api/srt", string(payload))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestSubtitlesListing(t *testing.T) {
	router, mediaRoot, _ := newTestRouter(t, &fakeService{})
	writeFile(t, filepath.Join(mediaRoot, "movie.mkv"), "v")
	writeFile(t, filepath.Join(mediaRoot, "movie.srt"), "s")
	writeFile(t, filepath.Join(mediaRoot, "movie.en.srt"), "s")
	writeFile(t, filepath.Join(mediaRoot, "other.srt"), "s")

	rec := doJSON(t, router, http.MethodGet, "/api/subtitles?path=movie.mkv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	subs := body["subtitles"].([]interface{})
	if len(subs) != 2 {
		t.Fatalf("expected 2 subtitles, got %v", subs)
	}
}

func TestTranscribeStreamsSSE(t *testing.T) {
	svc := &fakeService{
		info: whisper.Info{Language: "en", Probability: 0.95, Duration: 4.0},
		segments: []whisper.Segment{
			{Start: 1.0, End: 2.5, Text: " Hello there."},
			{Start: 2.5, End: 4.0, Text: " General Kenobi."},
		},
	}
	router, mediaRoot, _ := newTestRouter(t, svc)
	writeFile(t, filepath.Join(mediaRoot, "movie.mkv"), "v")

	rec := doJSON(t, router, http.MethodPost, "/api/transcribe", `{"path":"movie.mkv"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("unexpected content type %q", ct)
	}
	if rec.Header().Get("X-Run-ID") == "" {
		t.Error("expected X-Run-ID header")
	}

	events := sseEvents(t, rec.Body.String())
	if len(events) != 6 {
		t.Fatalf("expected 6 events, got %d: %v", len(events), events)
	}
	if events[0]["message"] != "Loading model: small" {
		t.Errorf("unexpected first status %v", events[0])
	}
	if events[1]["message"] != "Starting transcription..." {
		t.Errorf("unexpected second status %v", events[1])
	}
	if events[2]["message"] != "Detected language: en (probability 0.95)" {
		t.Errorf("unexpected language status %v", events[2])
	}
	if events[3]["type"] != "segment" || events[3]["time"] != "00:00:02,500" || events[3]["text"] != "Hello there." {
		t.Errorf("unexpected segment event %v", events[3])
	}
	if events[4]["time"] != "00:00:04,000" || events[4]["text"] != "General Kenobi." {
		t.Errorf("unexpected segment event %v", events[4])
	}
	srtPath := filepath.Join(mediaRoot, "movie.srt")
	if events[5]["type"] != "complete" || events[5]["srt_path"] != srtPath {
		t.Errorf("unexpected complete event %v", events[5])
	}

	data, err := os.ReadFile(srtPath)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	want := "1\n00:00:01,000 --> 00:00:02,500\nHello there.\n\n" +
		"2\n00:00:02,500 --> 00:00:04,000\nGeneral Kenobi.\n\n"
	if string(data) != want {
		t.Errorf("unexpected srt file:\n%q\nwant:\n%q", data, want)
	}

	if svc.gotOpts.Engine != "faster-whisper" || svc.gotOpts.Model != "small" {
		t.Errorf("unexpected transcribe options %+v", svc.gotOpts)
	}
	if svc.gotOpts.WordTimestamps {
		t.Error("word timestamps should be off without max_words")
	}
}

func TestTranscribeRequestsWordTimestamps(t *testing.T) {
	svc := &fakeService{}
	router, mediaRoot, _ := newTestRouter(t, svc)
	writeFile(t, filepath.Join(mediaRoot, "movie.mkv"), "v")

	rec := doJSON(t, router, http.MethodPost, "/api/transcribe",
		`{"path":"movie.mkv","max_words":3,"model":"medium","language":"de"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !svc.gotOpts.WordTimestamps {
		t.Error("expected word timestamps with max_words set")
	}
	if svc.gotOpts.Model != "medium" || svc.gotOpts.Language != "de" {
		t.Errorf("unexpected options %+v", svc.gotOpts)
	}
}

func TestTranscribeValidation(t *testing.T) {
	router, mediaRoot, _ := newTestRouter(t, &fakeService{})
	writeFile(t, filepath.Join(mediaRoot, "notes.txt"), "text")

	rec := doJSON(t, router, http.MethodPost, "/api/transcribe", `{"path":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty path, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/api/transcribe", `{"path":"missing.mkv"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing file, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/api/transcribe", `{"path":"notes.txt"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-video, got %d", rec.Code)
	}
}

func TestTranscribeBusySignal(t *testing.T) {
	router, mediaRoot, mon := newTestRouter(t, &fakeService{})
	writeFile(t, filepath.Join(mediaRoot, "movie.mkv"), "v")

	mon.TryAcquire("burn")
	defer mon.Release()

	rec := doJSON(t, router, http.MethodPost, "/api/transcribe", `{"path":"movie.mkv"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while busy, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "another operation is in progress" {
		t.Errorf("unexpected error body %v", body)
	}
}

func TestTranscribeErrorEvent(t *testing.T) {
	svc := &fakeService{err: errors.New("model exploded")}
	router, mediaRoot, _ := newTestRouter(t, svc)
	writeFile(t, filepath.Join(mediaRoot, "movie.mkv"), "v")

	rec := doJSON(t, router, http.MethodPost, "/api/transcribe", `{"path":"movie.mkv"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 (error travels as event), got %d", rec.Code)
	}
	events := sseEvents(t, rec.Body.String())
	last := events[len(events)-1]
	if last["type"] != "error" || !strings.Contains(last["message"].(string), "model exploded") {
		t.Errorf("expected error event, got %v", last)
	}
	for _, ev := range events {
		if ev["type"] == "complete" {
			t.Error("unexpected complete event after failure")
		}
	}
}

func TestBurnValidationAndBusy(t *testing.T) {
	router, mediaRoot, mon := newTestRouter(t, &fakeService{})
	writeFile(t, filepath.Join(mediaRoot, "movie.mkv"), "v")
	writeFile(t, filepath.Join(mediaRoot, "movie.srt"), "s")

	rec := doJSON(t, router, http.MethodPost, "/api/burn", `{"video_path":"movie.mkv"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without srt_path, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/burn",
		`{"video_path":"missing.mkv","srt_path":"movie.srt"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing video, got %d", rec.Code)
	}

	mon.TryAcquire("transcribe")
	defer mon.Release()
	rec = doJSON(t, router, http.MethodPost, "/api/burn",
		`{"video_path":"movie.mkv","srt_path":"movie.srt"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while busy, got %d", rec.Code)
	}
}
