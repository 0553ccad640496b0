package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hardsub/hardsub/internal/ffmpeg"
	"github.com/hardsub/hardsub/internal/storage"
)

const maxTreeDepth = 5

type FilesHandler struct {
	mediaRoot string
	thumbDir  string
}

func NewFilesHandler(mediaRoot, thumbDir string) *FilesHandler {
	return &FilesHandler{mediaRoot: mediaRoot, thumbDir: thumbDir}
}

// GetTree lists one directory level by default; ?depth=N descends into
// subdirectories up to N extra levels.
func (h *FilesHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	path := extractPath(r)
	if path == "" {
		path = "."
	}

	depth, _ := strconv.Atoi(r.URL.Query().Get("depth"))
	if depth > 0 {
		if depth > maxTreeDepth {
			depth = maxTreeDepth
		}
		tree, err := storage.BuildTree(h.mediaRoot, path, depth)
		if err != nil {
			pathError(w, err)
			return
		}
		jsonResponse(w, tree, http.StatusOK)
		return
	}

	entries, err := storage.ListDirectory(h.mediaRoot, path)
	if err != nil {
		pathError(w, err)
		return
	}
	if entries == nil {
		entries = []*storage.FileEntry{}
	}

	jsonResponse(w, map[string]interface{}{
		"path":    path,
		"entries": entries,
	}, http.StatusOK)
}

func (h *FilesHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	path := extractPath(r)
	if !storage.IsVideoFile(path) {
		jsonError(w, "not a video file", http.StatusBadRequest)
		return
	}

	fullPath, err := storage.ResolvePath(h.mediaRoot, path)
	if err != nil {
		pathError(w, err)
		return
	}
	if _, err := os.Stat(fullPath); err != nil {
		pathError(w, err)
		return
	}

	info, err := ffmpeg.Probe(r.Context(), fullPath)
	if err != nil {
		jsonError(w, "failed to probe file", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, info, http.StatusOK)
}

func (h *FilesHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path := extractPath(r)
	if !storage.IsVideoFile(path) {
		jsonError(w, "not a video file", http.StatusBadRequest)
		return
	}

	fullPath, err := storage.ResolvePath(h.mediaRoot, path)
	if err != nil {
		pathError(w, err)
		return
	}
	if _, err := os.Stat(fullPath); err != nil {
		pathError(w, err)
		return
	}

	thumbPath, err := ffmpeg.GenerateThumbnail(r.Context(), fullPath, filepath.Join(h.thumbDir, path))
	if err != nil {
		jsonError(w, "failed to generate thumbnail", http.StatusInternalServerError)
		return
	}
	http.ServeFile(w, r, thumbPath)
}

// GetContent serves the raw video bytes for the editor preview player.
// http.ServeFile handles range requests, which the player needs to seek.
func (h *FilesHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	path := extractPath(r)
	if !storage.IsVideoFile(path) {
		jsonError(w, "not a video file", http.StatusBadRequest)
		return
	}

	fullPath, err := storage.ResolvePath(h.mediaRoot, path)
	if err != nil {
		pathError(w, err)
		return
	}
	if _, err := os.Stat(fullPath); err != nil {
		pathError(w, err)
		return
	}
	http.ServeFile(w, r, fullPath)
}

func (h *FilesHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		jsonError(w, "query parameter 'q' is required", http.StatusBadRequest)
		return
	}

	results, err := storage.Search(h.mediaRoot, q, 50)
	if err != nil {
		jsonError(w, "search failed", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []*storage.FileEntry{}
	}

	jsonResponse(w, map[string]interface{}{
		"query":   q,
		"results": results,
	}, http.StatusOK)
}
