package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var errStreamingUnsupported = errors.New("streaming unsupported")

// sseWriter streams JSON events over a server-sent-events response.
// Once created, errors can only travel to the client as error events;
// the 200 header is already on the wire.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) send(event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

type statusEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type segmentEvent struct {
	Type string `json:"type"`
	Time string `json:"time"`
	Text string `json:"text"`
}

type progressEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type completeEvent struct {
	Type       string `json:"type"`
	SRTPath    string `json:"srt_path,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
}

func (s *sseWriter) status(message string) error {
	return s.send(statusEvent{Type: "status", Message: message})
}

// segment reports one written cue; timestamp is the cue end time in
// SRT form, matching the live console echo of the CLI.
func (s *sseWriter) segment(timestamp, text string) error {
	return s.send(segmentEvent{Type: "segment", Time: timestamp, Text: text})
}

func (s *sseWriter) progress(line string) error {
	return s.send(progressEvent{Type: "progress", Message: line})
}

func (s *sseWriter) sendError(message string) error {
	return s.send(errorEvent{Type: "error", Message: message})
}

func (s *sseWriter) completeSRT(path string) error {
	return s.send(completeEvent{Type: "complete", SRTPath: path})
}

func (s *sseWriter) completeOutput(path string) error {
	return s.send(completeEvent{Type: "complete", OutputPath: path})
}
