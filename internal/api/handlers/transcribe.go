package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/hardsub/hardsub/internal/monitor"
	"github.com/hardsub/hardsub/internal/storage"
	"github.com/hardsub/hardsub/internal/subtitle"
	"github.com/hardsub/hardsub/internal/whisper"
)

// Transcriber is the slice of the whisper service that transcription
// needs; whisper.Service satisfies it.
type Transcriber interface {
	subtitle.Recognizer
	DefaultEngine() string
}

type TranscribeHandler struct {
	service      Transcriber
	monitor      *monitor.Monitor
	mediaRoot    string
	defaultModel string
}

func NewTranscribeHandler(service Transcriber, mon *monitor.Monitor, mediaRoot, defaultModel string) *TranscribeHandler {
	return &TranscribeHandler{
		service:      service,
		monitor:      mon,
		mediaRoot:    mediaRoot,
		defaultModel: defaultModel,
	}
}

type transcribeRequest struct {
	Path     string `json:"path"`
	Engine   string `json:"engine"`
	Model    string `json:"model"`
	Language string `json:"language"`
	MaxWords int    `json:"max_words"`
}

// Transcribe runs speech recognition over a video and streams the run as
// server-sent events: status lines, one segment event per written cue,
// then complete with the subtitle path. Cues reach the .srt file on disk
// at the same moment they reach the client.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		jsonError(w, "path is required", http.StatusBadRequest)
		return
	}

	videoPath, err := resolveMediaPath(h.mediaRoot, req.Path)
	if err != nil {
		pathError(w, err)
		return
	}
	if _, err := os.Stat(videoPath); err != nil {
		pathError(w, err)
		return
	}
	if !storage.IsVideoFile(videoPath) {
		jsonError(w, "not a video file", http.StatusBadRequest)
		return
	}

	if !h.monitor.TryAcquire("transcribe") {
		jsonError(w, "another operation is in progress", http.StatusConflict)
		return
	}
	defer h.monitor.Release()

	engine := req.Engine
	if engine == "" {
		engine = h.service.DefaultEngine()
	}
	model := req.Model
	if model == "" {
		model = h.defaultModel
	}

	runID := uuid.NewString()
	w.Header().Set("X-Run-ID", runID)

	sse, err := newSSEWriter(w)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("[api] transcribe %s: %s (engine=%s model=%s max_words=%d)",
		runID, videoPath, engine, model, req.MaxWords)

	sse.status("Loading model: " + model)
	sse.status("Starting transcription...")

	srtPath, err := subtitle.Generate(r.Context(), h.service, subtitle.GenerateRequest{
		VideoPath: videoPath,
		Engine:    engine,
		Model:     model,
		Language:  req.Language,
		MaxWords:  req.MaxWords,
	}, subtitle.GenerateEvents{
		OnInfo: func(info whisper.Info) {
			sse.status(fmt.Sprintf("Detected language: %s (probability %.2f)", info.Language, info.Probability))
		},
		OnCue: func(cue subtitle.Cue) {
			sse.segment(subtitle.FormatTimestamp(cue.End), cue.Text)
		},
	})
	if err != nil {
		log.Printf("[api] transcribe %s failed: %v", runID, err)
		sse.sendError(err.Error())
		return
	}

	log.Printf("[api] transcribe %s done: %s", runID, srtPath)
	sse.completeSRT(srtPath)
}
