package subtitle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hardsub/hardsub/internal/whisper"
)

// Recognizer is the slice of whisper.Service that generation needs.
type Recognizer interface {
	Transcribe(ctx context.Context, videoPath string, opts whisper.TranscribeOptions, onInfo func(whisper.Info), onSegment func(whisper.Segment) error) error
}

// GenerateRequest drives one video-to-SRT transcription run.
type GenerateRequest struct {
	VideoPath  string
	OutputPath string // empty = beside the video with a .srt extension
	Engine     string // empty = service default
	Model      string
	Language   string
	MaxWords   int // 0 = whole segments
}

// GenerateEvents receives streaming progress. Either callback may be nil.
type GenerateEvents struct {
	OnInfo func(whisper.Info)
	OnCue  func(Cue)
}

// OutputPathFor returns the default subtitle path for a video.
func OutputPathFor(videoPath string) string {
	ext := filepath.Ext(videoPath)
	return strings.TrimSuffix(videoPath, ext) + ".srt"
}

// Generate transcribes a video and writes numbered cues to the subtitle file
// as recognition produces them, so a long run has a growing, valid SRT on
// disk the whole time. Word timestamps are requested only when a word limit
// makes them useful. Returns the subtitle path.
func Generate(ctx context.Context, rec Recognizer, req GenerateRequest, ev GenerateEvents) (string, error) {
	outPath := req.OutputPath
	if outPath == "" {
		outPath = OutputPathFor(req.VideoPath)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create subtitle file: %w", err)
	}

	syn := NewSynthesizer(req.MaxWords)
	runErr := rec.Transcribe(ctx, req.VideoPath, whisper.TranscribeOptions{
		Engine:         req.Engine,
		Model:          req.Model,
		Language:       req.Language,
		WordTimestamps: req.MaxWords > 0,
	}, ev.OnInfo, func(seg whisper.Segment) error {
		for _, cue := range syn.Segment(seg) {
			if err := WriteCue(out, cue); err != nil {
				return fmt.Errorf("write cue: %w", err)
			}
			if ev.OnCue != nil {
				ev.OnCue(cue)
			}
		}
		return nil
	})

	closeErr := out.Close()
	if runErr != nil {
		// the partial file stays on disk for inspection
		return "", runErr
	}
	if closeErr != nil {
		return "", fmt.Errorf("close subtitle file: %w", closeErr)
	}
	return outPath, nil
}
