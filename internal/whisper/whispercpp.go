package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// errTransient marks server failures worth retrying (the local whisper-server
// may still be loading its model when the first request arrives).
var errTransient = errors.New("transient whisper server error")

// WhisperCppEngine talks to the whisper.cpp HTTP server (whisper-server).
// The server holds one loaded model, so Request.Model is ignored here.
type WhisperCppEngine struct {
	baseURL    string
	httpClient *http.Client
}

// NewWhisperCppEngine creates a client for the whisper.cpp server
func NewWhisperCppEngine(baseURL string) *WhisperCppEngine {
	return &WhisperCppEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Minute, // transcription can be very long
		},
	}
}

func (e *WhisperCppEngine) Name() string {
	return "whispercpp"
}

func (e *WhisperCppEngine) Transcribe(ctx context.Context, req Request, onInfo func(Info), onSegment func(Segment) error) error {
	resp, err := e.sendWithRetry(ctx, req)
	if err != nil {
		return err
	}

	lang := resp.Language
	if lang == "" {
		lang = req.Language
	}
	if onInfo != nil {
		onInfo(Info{Language: lang, Duration: resp.Duration})
	}

	for _, s := range resp.Segments {
		seg := Segment{Start: s.Start, End: s.End, Text: s.Text}
		if req.WordTimestamps {
			seg.Words = s.Words
		}
		if err := onSegment(seg); err != nil {
			return err
		}
	}
	return nil
}

func (e *WhisperCppEngine) sendWithRetry(ctx context.Context, req Request) (*whisperCppResponse, error) {
	const maxRetries = 3
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("[whisper] retry %d/%d after %v", attempt, maxRetries, backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := e.send(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, errTransient) && !isTransientNetError(err) {
			return nil, err
		}
		log.Printf("[whisper] transient error (attempt %d/%d): %v", attempt+1, maxRetries+1, err)
	}

	return nil, fmt.Errorf("whisper server failed after %d attempts: %w", maxRetries+1, lastErr)
}

func (e *WhisperCppEngine) send(ctx context.Context, req Request) (*whisperCppResponse, error) {
	body, contentType, err := buildInferenceForm(req)
	if err != nil {
		return nil, err
	}

	url := e.baseURL + "/inference"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	log.Printf("[whisper] sending request to %s (audio: %s)", url, req.AudioPath)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whisper server request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == 502 || resp.StatusCode == 503 || resp.StatusCode == 504 {
			return nil, fmt.Errorf("whisper server status %d: %s: %w", resp.StatusCode, string(respBody), errTransient)
		}
		return nil, fmt.Errorf("whisper server error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed whisperCppResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse whisper server response: %w", err)
	}
	return &parsed, nil
}

// buildInferenceForm assembles the multipart body once so retries can replay it.
func buildInferenceForm(req Request) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	audioFile, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	defer audioFile.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(req.AudioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audioFile); err != nil {
		return nil, "", fmt.Errorf("copy audio data: %w", err)
	}

	writer.WriteField("response_format", "verbose_json")
	writer.WriteField("temperature", "0.0")
	if req.Language != "" && req.Language != "auto" {
		writer.WriteField("language", req.Language)
	}
	if req.WordTimestamps {
		writer.WriteField("timestamp_granularities[]", "word")
	}
	writer.Close()

	return buf.Bytes(), writer.FormDataContentType(), nil
}

// whisperCppResponse is the verbose_json shape of whisper-server.
type whisperCppResponse struct {
	Task     string  `json:"task"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
		Words []Word  `json:"words"`
	} `json:"segments"`
}

// isTransientNetError checks if an HTTP transport error is worth retrying
func isTransientNetError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "timeout")
}
