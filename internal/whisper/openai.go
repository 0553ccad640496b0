package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const openAITranscriptionURL = "https://api.openai.com/v1/audio/transcriptions"
const maxOpenAIFileSize = 25 * 1024 * 1024 // 25MB upload limit

// OpenAIEngine uses the OpenAI transcription API. The API reports segment
// times only, so word-limited runs through this engine fall back to
// whole-segment cues.
type OpenAIEngine struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

func NewOpenAIEngine(apiKey string) *OpenAIEngine {
	return &OpenAIEngine{
		apiKey: apiKey,
		apiURL: openAITranscriptionURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

func (e *OpenAIEngine) Name() string {
	return "openai"
}

func (e *OpenAIEngine) Transcribe(ctx context.Context, req Request, onInfo func(Info), onSegment func(Segment) error) error {
	if e.apiKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}

	// Re-encode to MP3: a 16kHz WAV blows through the upload limit in
	// about 13 minutes of audio.
	mp3Path, err := convertToMP3(ctx, req.AudioPath)
	if err != nil {
		return fmt.Errorf("convert audio: %w", err)
	}
	defer os.Remove(mp3Path)

	info, err := os.Stat(mp3Path)
	if err != nil {
		return err
	}

	if info.Size() > maxOpenAIFileSize {
		return e.transcribeChunked(ctx, req, mp3Path, onInfo, onSegment)
	}

	resp, err := e.send(ctx, mp3Path, req.Language)
	if err != nil {
		return err
	}
	e.fireInfo(resp, req.Language, onInfo)
	return e.forward(resp, 0, onSegment)
}

// transcribeChunked splits a large file into 10-minute pieces and offsets
// each piece's segment times by its position in the original audio.
func (e *OpenAIEngine) transcribeChunked(ctx context.Context, req Request, mp3Path string, onInfo func(Info), onSegment func(Segment) error) error {
	const chunkSeconds = 600

	chunkDir, err := os.MkdirTemp("", "hardsub-chunks-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(chunkDir)

	chunkPattern := filepath.Join(chunkDir, "chunk_%03d.mp3")
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-i", mp3Path,
		"-f", "segment",
		"-segment_time", fmt.Sprintf("%d", chunkSeconds),
		"-c:a", "libmp3lame",
		"-q:a", "4",
		"-y",
		chunkPattern,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg split: %s: %w", string(output), err)
	}

	entries, err := os.ReadDir(chunkDir)
	if err != nil {
		return err
	}
	var chunks []string
	for _, ent := range entries {
		if strings.HasSuffix(ent.Name(), ".mp3") {
			chunks = append(chunks, filepath.Join(chunkDir, ent.Name()))
		}
	}
	sort.Strings(chunks)
	if len(chunks) == 0 {
		return fmt.Errorf("no audio chunks generated")
	}

	for i, chunk := range chunks {
		resp, err := e.send(ctx, chunk, req.Language)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		if i == 0 {
			e.fireInfo(resp, req.Language, onInfo)
		}
		if err := e.forward(resp, float64(i*chunkSeconds), onSegment); err != nil {
			return err
		}
	}
	return nil
}

// fireInfo fires the info callback once per run.
func (e *OpenAIEngine) fireInfo(resp *openAIResponse, fallbackLang string, onInfo func(Info)) {
	if onInfo == nil {
		return
	}
	lang := resp.Language
	if lang == "" {
		lang = fallbackLang
	}
	onInfo(Info{Language: lang, Duration: resp.Duration})
}

func (e *OpenAIEngine) forward(resp *openAIResponse, offset float64, onSegment func(Segment) error) error {
	for _, s := range resp.Segments {
		seg := Segment{Start: s.Start + offset, End: s.End + offset, Text: s.Text}
		if err := onSegment(seg); err != nil {
			return err
		}
	}
	return nil
}

func (e *OpenAIEngine) send(ctx context.Context, audioPath, language string) (*openAIResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	audioFile, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer audioFile.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, audioFile); err != nil {
		return nil, err
	}

	writer.WriteField("model", "whisper-1")
	writer.WriteField("response_format", "verbose_json")
	if language != "" && language != "auto" {
		writer.WriteField("language", language)
	}
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", e.apiURL, &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	log.Printf("[whisper] sending request to OpenAI API")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse OpenAI response: %w", err)
	}
	return &parsed, nil
}

// openAIResponse is the verbose_json transcription shape.
type openAIResponse struct {
	Task     string          `json:"task"`
	Language string          `json:"language"`
	Duration float64         `json:"duration"`
	Text     string          `json:"text"`
	Segments []openAISegment `json:"segments"`
}

type openAISegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// convertToMP3 re-encodes the extracted WAV for upload (~130kbps VBR).
func convertToMP3(ctx context.Context, audioPath string) (string, error) {
	tmpFile, err := os.CreateTemp("", "hardsub-audio-*.mp3")
	if err != nil {
		return "", err
	}
	tmpFile.Close()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-i", audioPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "4",
		"-y",
		tmpFile.Name(),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("ffmpeg: %s: %w", string(output), err)
	}

	return tmpFile.Name(), nil
}
