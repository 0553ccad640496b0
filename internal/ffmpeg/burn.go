package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// SubtitleStyle configures how burned captions are rendered. Colors are
// RRGGBB hex, with or without a leading '#'.
type SubtitleStyle struct {
	FontSize     int    `json:"font_size"`
	FontName     string `json:"font_name"`
	TextColor    string `json:"text_color"`
	OutlineColor string `json:"outline_color"`
	Outline      int    `json:"outline"`
	Alignment    int    `json:"alignment"`
	MarginV      int    `json:"margin_v"`
}

// DefaultStyle is the house look: white bold text with a heavy black outline,
// lifted off the bottom edge.
func DefaultStyle() SubtitleStyle {
	return SubtitleStyle{
		FontSize:     16,
		FontName:     "Arial Bold",
		TextColor:    "FFFFFF",
		OutlineColor: "000000",
		Outline:      3,
		Alignment:    10,
		MarginV:      50,
	}
}

// BurnRequest describes one subtitle burn.
type BurnRequest struct {
	VideoPath    string
	SubtitlePath string
	OutputPath   string // empty = "<stem>_captions_<timestamp><ext>" beside the input
	Style        SubtitleStyle
}

// HexToASS converts an RRGGBB hex color to the ASS &HBBGGRR form libass
// expects (the byte order flips). Unusable input falls back to white.
func HexToASS(hexColor string) string {
	h := strings.TrimPrefix(strings.TrimSpace(hexColor), "#")
	if len(h) != 6 {
		return "&HFFFFFF"
	}
	r, g, b := h[0:2], h[2:4], h[4:6]
	return "&H" + b + g + r
}

// BuildForceStyle renders the libass force_style string for a burn.
func BuildForceStyle(s SubtitleStyle) string {
	return fmt.Sprintf(
		"FontSize=%d,FontName=%s,PrimaryColour=%s,OutlineColour=%s,Outline=%d,BorderStyle=1,Alignment=%d,MarginV=%d",
		s.FontSize, s.FontName, HexToASS(s.TextColor), HexToASS(s.OutlineColor),
		s.Outline, s.Alignment, s.MarginV,
	)
}

// escapeFilterPath makes a filesystem path safe inside the subtitles filter:
// forward slashes only, colons escaped (the filter parser treats ':' as an
// option separator).
func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.ReplaceAll(p, ":", `\:`)
}

// BurnOutputPath names the burned file beside the input. Colons never appear
// in the timestamp; they break Windows and SMB mounts.
func BurnOutputPath(videoPath string, now time.Time) string {
	ext := filepath.Ext(videoPath)
	stem := strings.TrimSuffix(videoPath, ext)
	return fmt.Sprintf("%s_captions_%s%s", stem, now.Format("2006-01-02T15-04-05"), ext)
}

// Burn re-encodes the video with captions rendered into the picture and the
// audio stream copied through. Every ffmpeg stderr line is forwarded to
// onProgress as it appears. Returns the output path.
func Burn(ctx context.Context, req BurnRequest, onProgress func(line string)) (string, error) {
	if _, err := os.Stat(req.VideoPath); err != nil {
		return "", fmt.Errorf("video file: %w", err)
	}
	if _, err := os.Stat(req.SubtitlePath); err != nil {
		return "", fmt.Errorf("subtitle file: %w", err)
	}

	outPath := req.OutputPath
	if outPath == "" {
		outPath = BurnOutputPath(req.VideoPath, time.Now())
	}

	filter := fmt.Sprintf("subtitles=%s:force_style='%s'",
		escapeFilterPath(req.SubtitlePath), BuildForceStyle(req.Style))

	args := []string{"-y"}
	encoder := "libx264"
	caps := GetCapabilities()
	if caps != nil && caps.HWAccel != "none" {
		encoder = caps.Encoder
		if caps.HWAccel == "vaapi" {
			args = append(args, "-vaapi_device", caps.Device)
			// software frames from the subtitles filter have to be uploaded;
			// the other hardware encoders take system-memory frames directly
			filter += ",format=nv12,hwupload"
		}
	}
	args = append(args,
		"-i", req.VideoPath,
		"-vf", filter,
		"-c:v", encoder,
		"-c:a", "copy",
		outPath,
	)

	log.Printf("[ffmpeg] burn: encoder=%s output=%s", encoder, outPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start ffmpeg: %w", err)
	}

	// ffmpeg separates progress updates with carriage returns
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanProgressLines)

	var tail []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tail = append(tail, line)
		if len(tail) > 20 {
			tail = tail[1:]
		}
		if onProgress != nil {
			onProgress(line)
		}
	}

	if err := cmd.Wait(); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("ffmpeg failed: %w: %s", err, strings.Join(tail, "\n"))
	}
	return outPath, nil
}

// scanProgressLines splits on \n or \r so in-place progress updates stream
// as separate lines.
func scanProgressLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
