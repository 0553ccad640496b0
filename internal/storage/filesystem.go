package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileEntry describes a single file or directory in the media tree.
// Path is relative to the media root for browse results and absolute
// for subtitle lookups next to a video file.
type FileEntry struct {
	Name       string       `json:"name"`
	Path       string       `json:"path"`
	IsDir      bool         `json:"is_dir"`
	Size       int64        `json:"size,omitempty"`
	Modified   time.Time    `json:"modified"`
	IsVideo    bool         `json:"is_video,omitempty"`
	IsSubtitle bool         `json:"is_subtitle,omitempty"`
	Children   []*FileEntry `json:"children,omitempty"`
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
	".wmv": true, ".flv": true, ".webm": true, ".m4v": true,
	".ts": true, ".mpg": true, ".mpeg": true,
}

var subtitleExtensions = map[string]bool{
	".srt": true, ".vtt": true, ".ass": true, ".ssa": true, ".sub": true,
}

func IsVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

func IsSubtitleFile(name string) bool {
	return subtitleExtensions[strings.ToLower(filepath.Ext(name))]
}

// ResolvePath joins relativePath onto basePath and verifies the result
// stays inside basePath. Returns os.ErrPermission on traversal attempts.
func ResolvePath(basePath, relativePath string) (string, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", fmt.Errorf("resolving base path: %w", err)
	}
	absFull, err := filepath.Abs(filepath.Join(absBase, relativePath))
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(os.PathSeparator)) {
		return "", os.ErrPermission
	}
	return absFull, nil
}

// ListDirectory returns the entries one level below basePath/relativePath:
// subdirectories plus video and subtitle files. Hidden files and unrelated
// file types are skipped. Directories sort before files, both by name.
func ListDirectory(basePath, relativePath string) ([]*FileEntry, error) {
	fullPath, err := ResolvePath(basePath, relativePath)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, err
	}

	var result []*FileEntry
	for _, entry := range entries {
		name := entry.Name()
		// Skip hidden files
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !entry.IsDir() && !IsVideoFile(name) && !IsSubtitleFile(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		fe := &FileEntry{
			Name:     name,
			Path:     filepath.Join(relativePath, name),
			IsDir:    entry.IsDir(),
			Modified: info.ModTime(),
		}
		if !entry.IsDir() {
			fe.Size = info.Size()
			fe.IsVideo = IsVideoFile(name)
			fe.IsSubtitle = IsSubtitleFile(name)
		}
		result = append(result, fe)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].IsDir != result[j].IsDir {
			return result[i].IsDir
		}
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

// BuildTree lists basePath/relativePath recursively down to depth levels.
// Subdirectories that fail to list are included without children.
func BuildTree(basePath, relativePath string, depth int) (*FileEntry, error) {
	entries, err := ListDirectory(basePath, relativePath)
	if err != nil {
		return nil, err
	}

	if depth > 0 {
		for _, entry := range entries {
			if entry.IsDir {
				subtree, err := BuildTree(basePath, entry.Path, depth-1)
				if err != nil {
					continue
				}
				entry.Children = subtree.Children
			}
		}
	}

	name := filepath.Base(relativePath)
	if relativePath == "" || relativePath == "." {
		name = "root"
	}
	return &FileEntry{
		Name:     name,
		Path:     relativePath,
		IsDir:    true,
		Children: entries,
	}, nil
}

// SiblingVideo returns the absolute path of a video file next to
// subtitlePath that shares its stem, or "" when none exists. Language
// suffixes are handled: movie.en.srt matches movie.mkv.
func SiblingVideo(subtitlePath string) string {
	abs, err := filepath.Abs(subtitlePath)
	if err != nil {
		return ""
	}
	dir := filepath.Dir(abs)
	stem := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	candidates := []string{stem}
	if i := strings.LastIndex(stem, "."); i > 0 {
		candidates = append(candidates, stem[:i])
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, cand := range candidates {
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !IsVideoFile(name) {
				continue
			}
			if strings.TrimSuffix(name, filepath.Ext(name)) == cand {
				return filepath.Join(dir, name)
			}
		}
	}
	return ""
}

// ListSubtitles returns subtitle files sitting next to videoPath whose
// names share the video's stem, e.g. movie.srt and movie.en.srt for
// movie.mkv. Paths in the result are absolute.
func ListSubtitles(videoPath string) ([]*FileEntry, error) {
	abs, err := filepath.Abs(videoPath)
	if err != nil {
		return nil, fmt.Errorf("resolving video path: %w", err)
	}
	dir := filepath.Dir(abs)
	stem := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var result []*FileEntry
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsSubtitleFile(name) {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if base != stem && !strings.HasPrefix(base, stem+".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		result = append(result, &FileEntry{
			Name:       name,
			Path:       filepath.Join(dir, name),
			Size:       info.Size(),
			Modified:   info.ModTime(),
			IsSubtitle: true,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}
