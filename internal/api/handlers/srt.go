package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/hardsub/hardsub/internal/ffmpeg"
	"github.com/hardsub/hardsub/internal/storage"
	"github.com/hardsub/hardsub/internal/subtitle"
)

// SRTHandler exposes read/write access to subtitle files for the editor,
// plus the sibling-subtitle listing for a video.
type SRTHandler struct {
	mediaRoot string
}

func NewSRTHandler(mediaRoot string) *SRTHandler {
	return &SRTHandler{mediaRoot: mediaRoot}
}

// Get returns the raw text of a subtitle file.
func (h *SRTHandler) Get(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		jsonError(w, "query parameter 'path' is required", http.StatusBadRequest)
		return
	}

	fullPath, err := resolveMediaPath(h.mediaRoot, path)
	if err != nil {
		pathError(w, err)
		return
	}
	if !storage.IsSubtitleFile(fullPath) {
		jsonError(w, "not a subtitle file", http.StatusBadRequest)
		return
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		pathError(w, err)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"content": string(data),
		"path":    fullPath,
	}, http.StatusOK)
}

type saveSRTRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Save writes edited subtitle content back to disk. The response carries
// advisory validation issues; they never block the save.
func (h *SRTHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveSRTRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		jsonError(w, "path is required", http.StatusBadRequest)
		return
	}

	fullPath, err := resolveMediaPath(h.mediaRoot, req.Path)
	if err != nil {
		pathError(w, err)
		return
	}
	if !storage.IsSubtitleFile(fullPath) {
		jsonError(w, "not a subtitle file", http.StatusBadRequest)
		return
	}

	if err := os.WriteFile(fullPath, []byte(req.Content), 0o644); err != nil {
		jsonError(w, "failed to write file", http.StatusInternalServerError)
		return
	}

	// A sibling video gives the validator a duration to check cues against.
	var duration float64
	if video := storage.SiblingVideo(fullPath); video != "" {
		if info, err := ffmpeg.Probe(r.Context(), video); err == nil {
			duration = info.Duration
		}
	}
	issues := subtitle.Validate(req.Content, duration)
	if issues == nil {
		issues = []subtitle.Issue{}
	}

	jsonResponse(w, map[string]interface{}{
		"success": true,
		"path":    fullPath,
		"issues":  issues,
	}, http.StatusOK)
}

// ListForVideo returns the subtitle files next to a video that share
// its stem.
func (h *SRTHandler) ListForVideo(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		jsonError(w, "query parameter 'path' is required", http.StatusBadRequest)
		return
	}

	fullPath, err := resolveMediaPath(h.mediaRoot, path)
	if err != nil {
		pathError(w, err)
		return
	}
	if _, err := os.Stat(fullPath); err != nil {
		pathError(w, err)
		return
	}

	subs, err := storage.ListSubtitles(fullPath)
	if err != nil {
		jsonError(w, "failed to list subtitles", http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []*storage.FileEntry{}
	}

	jsonResponse(w, map[string]interface{}{
		"path":      fullPath,
		"subtitles": subs,
	}, http.StatusOK)
}
