package whisper

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

//go:embed assets/transcribe.py
var fwScript []byte

// FasterWhisperEngine runs faster-whisper through an embedded python helper
// that streams one JSON object per line, so segments reach the caller while
// the model is still working.
type FasterWhisperEngine struct {
	pythonBin string

	// newCommand is swapped out in tests
	newCommand func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// NewFasterWhisperEngine creates the local faster-whisper engine. pythonBin
// defaults to "python3".
func NewFasterWhisperEngine(pythonBin string) *FasterWhisperEngine {
	if pythonBin == "" {
		pythonBin = "python3"
	}
	return &FasterWhisperEngine{
		pythonBin:  pythonBin,
		newCommand: exec.CommandContext,
	}
}

func (e *FasterWhisperEngine) Name() string {
	return "faster-whisper"
}

func (e *FasterWhisperEngine) Transcribe(ctx context.Context, req Request, onInfo func(Info), onSegment func(Segment) error) error {
	scriptPath := filepath.Join(os.TempDir(), "hardsub_transcribe.py")
	if err := os.WriteFile(scriptPath, fwScript, 0o755); err != nil {
		return fmt.Errorf("write helper script: %w", err)
	}
	defer os.Remove(scriptPath)

	args := []string{scriptPath, req.AudioPath, "--model", req.Model}
	if req.Language != "" && req.Language != "auto" {
		args = append(args, "--language", req.Language)
	}
	if req.WordTimestamps {
		args = append(args, "--word-timestamps")
	}

	cmd := e.newCommand(ctx, e.pythonBin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Printf("[whisper] running %s %s", e.pythonBin, strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", e.pythonBin, err)
	}

	streamErr := consumeEvents(stdout, onInfo, onSegment)
	if streamErr != nil {
		// abort the helper before collecting its exit status
		cmd.Process.Kill()
		cmd.Wait()
		return streamErr
	}

	if err := cmd.Wait(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("faster-whisper failed: %s", msg)
	}
	return nil
}

// fwEvent is one line of helper output.
type fwEvent struct {
	Type        string  `json:"type"`
	Language    string  `json:"language"`
	Probability float64 `json:"language_probability"`
	Duration    float64 `json:"duration"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Text        string  `json:"text"`
	Words       []Word  `json:"words"`
	Message     string  `json:"message"`
}

// consumeEvents reads the helper's JSON-lines stream and forwards events.
func consumeEvents(r io.Reader, onInfo func(Info), onSegment func(Segment) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev fwEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			log.Printf("[whisper] skipping unparseable helper line: %s", line)
			continue
		}
		switch ev.Type {
		case "info":
			if onInfo != nil {
				onInfo(Info{Language: ev.Language, Probability: ev.Probability, Duration: ev.Duration})
			}
		case "segment":
			seg := Segment{Start: ev.Start, End: ev.End, Text: ev.Text, Words: ev.Words}
			if err := onSegment(seg); err != nil {
				return err
			}
		case "error":
			return fmt.Errorf("faster-whisper: %s", ev.Message)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read helper output: %w", err)
	}
	return nil
}
