package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hardsub/hardsub/internal/ffmpeg"
	"github.com/hardsub/hardsub/internal/monitor"
	"github.com/hardsub/hardsub/internal/storage"
)

type BurnHandler struct {
	monitor   *monitor.Monitor
	mediaRoot string
}

func NewBurnHandler(mon *monitor.Monitor, mediaRoot string) *BurnHandler {
	return &BurnHandler{monitor: mon, mediaRoot: mediaRoot}
}

// Style fields are pointers so an absent field falls back to the default
// while an explicit zero (outline 0, margin 0) is honored.
type burnRequest struct {
	VideoPath    string `json:"video_path"`
	SRTPath      string `json:"srt_path"`
	FontSize     *int   `json:"font_size"`
	FontName     string `json:"font_name"`
	TextColor    string `json:"text_color"`
	OutlineColor string `json:"outline_color"`
	Outline      *int   `json:"outline"`
	Alignment    *int   `json:"alignment"`
	MarginV      *int   `json:"margin_v"`
}

func (req *burnRequest) style() ffmpeg.SubtitleStyle {
	style := ffmpeg.DefaultStyle()
	if req.FontSize != nil {
		style.FontSize = *req.FontSize
	}
	if req.FontName != "" {
		style.FontName = req.FontName
	}
	if req.TextColor != "" {
		style.TextColor = req.TextColor
	}
	if req.OutlineColor != "" {
		style.OutlineColor = req.OutlineColor
	}
	if req.Outline != nil {
		style.Outline = *req.Outline
	}
	if req.Alignment != nil {
		style.Alignment = *req.Alignment
	}
	if req.MarginV != nil {
		style.MarginV = *req.MarginV
	}
	return style
}

// Burn renders subtitles into the video and streams the encode as
// server-sent events: the output path up front, one progress event per
// ffmpeg stderr line, then complete or error.
func (h *BurnHandler) Burn(w http.ResponseWriter, r *http.Request) {
	var req burnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.VideoPath == "" || req.SRTPath == "" {
		jsonError(w, "video_path and srt_path are required", http.StatusBadRequest)
		return
	}

	videoPath, err := resolveMediaPath(h.mediaRoot, req.VideoPath)
	if err != nil {
		pathError(w, err)
		return
	}
	srtPath, err := resolveMediaPath(h.mediaRoot, req.SRTPath)
	if err != nil {
		pathError(w, err)
		return
	}
	if _, err := os.Stat(videoPath); err != nil {
		pathError(w, err)
		return
	}
	if _, err := os.Stat(srtPath); err != nil {
		pathError(w, err)
		return
	}
	if !storage.IsVideoFile(videoPath) {
		jsonError(w, "not a video file", http.StatusBadRequest)
		return
	}

	if !h.monitor.TryAcquire("burn") {
		jsonError(w, "another operation is in progress", http.StatusConflict)
		return
	}
	defer h.monitor.Release()

	runID := uuid.NewString()
	w.Header().Set("X-Run-ID", runID)

	sse, err := newSSEWriter(w)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	outputPath := ffmpeg.BurnOutputPath(videoPath, time.Now())
	log.Printf("[api] burn %s: %s + %s -> %s", runID, videoPath, srtPath, outputPath)

	sse.status("Starting ffmpeg...")
	sse.status("Output: " + outputPath)

	_, err = ffmpeg.Burn(r.Context(), ffmpeg.BurnRequest{
		VideoPath:    videoPath,
		SubtitlePath: srtPath,
		OutputPath:   outputPath,
		Style:        req.style(),
	}, func(line string) {
		sse.progress(line)
	})
	if err != nil {
		log.Printf("[api] burn %s failed: %v", runID, err)
		sse.sendError(err.Error())
		return
	}

	log.Printf("[api] burn %s done: %s", runID, outputPath)
	sse.completeOutput(outputPath)
}
