package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hardsub/hardsub/internal/storage"
)

// extractPath extracts and URL-decodes the wildcard path from chi router
func extractPath(r *http.Request) string {
	path := chi.URLParam(r, "*")
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return path
	}
	// Clean any double slashes or trailing slashes
	decoded = strings.TrimPrefix(decoded, "/")
	decoded = strings.TrimSuffix(decoded, "/")
	return decoded
}

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// resolveMediaPath turns a request-supplied path into an absolute one.
// Relative paths resolve inside mediaRoot and cannot escape it; absolute
// paths are accepted as-is, matching the tool's single-user heritage.
func resolveMediaPath(mediaRoot, p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return storage.ResolvePath(mediaRoot, p)
}

// pathError maps filesystem errors onto API status codes.
func pathError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, os.ErrPermission):
		jsonError(w, "invalid path", http.StatusForbidden)
	case errors.Is(err, os.ErrNotExist):
		jsonError(w, "file not found", http.StatusNotFound)
	default:
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
