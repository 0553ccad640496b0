package whisper

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/samber/lo"
)

// Service owns the registered transcription engines and the shared audio
// preparation step (extract WAV, sanity-check it, hand it to the engine).
type Service struct {
	engines       map[string]Transcriber
	defaultEngine string
}

// Options configures which engines the service registers.
type Options struct {
	DefaultEngine string // engine used when a request names none
	PythonBin     string // for faster-whisper
	WhisperCppURL string // registers the whispercpp engine when set
	OpenAIKey     string // registers the openai engine when set
}

// NewService creates a whisper service with the available engines.
func NewService(opts Options) *Service {
	s := &Service{
		engines: make(map[string]Transcriber),
	}

	// faster-whisper is always registered; doctor verifies python is usable
	fw := NewFasterWhisperEngine(opts.PythonBin)
	s.engines[fw.Name()] = fw
	log.Printf("[whisper] registered %s engine", fw.Name())

	if opts.WhisperCppURL != "" {
		wc := NewWhisperCppEngine(opts.WhisperCppURL)
		s.engines[wc.Name()] = wc
		log.Printf("[whisper] registered %s engine at %s", wc.Name(), opts.WhisperCppURL)
	}

	if opts.OpenAIKey != "" {
		oa := NewOpenAIEngine(opts.OpenAIKey)
		s.engines[oa.Name()] = oa
		log.Printf("[whisper] registered %s engine", oa.Name())
	}

	s.defaultEngine = opts.DefaultEngine
	if s.defaultEngine == "" {
		s.defaultEngine = fw.Name()
	}
	if _, ok := s.engines[s.defaultEngine]; !ok {
		log.Printf("[whisper] default engine %q not registered, using %s", s.defaultEngine, fw.Name())
		s.defaultEngine = fw.Name()
	}
	return s
}

// RegisterEngine adds or replaces an engine.
func (s *Service) RegisterEngine(engine Transcriber) {
	s.engines[engine.Name()] = engine
	log.Printf("[whisper] registered %s engine", engine.Name())
}

// EngineNames returns the registered engine names, sorted.
func (s *Service) EngineNames() []string {
	names := lo.Keys(s.engines)
	sort.Strings(names)
	return names
}

// DefaultEngine returns the engine used when a request names none.
func (s *Service) DefaultEngine() string {
	return s.defaultEngine
}

// TranscribeOptions selects the engine and tuning for one run.
type TranscribeOptions struct {
	Engine         string
	Model          string
	Language       string
	WordTimestamps bool
}

// Transcribe extracts audio from videoPath and streams recognized segments
// through the callbacks. onInfo fires once before the first segment.
func (s *Service) Transcribe(ctx context.Context, videoPath string, opts TranscribeOptions, onInfo func(Info), onSegment func(Segment) error) error {
	name := opts.Engine
	if name == "" {
		name = s.defaultEngine
	}
	engine, ok := s.engines[name]
	if !ok {
		return fmt.Errorf("unknown whisper engine: %s (available: %v)", name, s.EngineNames())
	}

	model := opts.Model
	if model == "" {
		model = "small"
	}
	if name == "faster-whisper" && !ValidModel(model) {
		return fmt.Errorf("unknown model: %s (available: %v)", model, Models)
	}

	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("video file: %w", err)
	}

	log.Printf("[whisper] starting transcription: engine=%s file=%s model=%s language=%s",
		name, videoPath, model, opts.Language)

	audioPath, err := ExtractAudio(ctx, videoPath)
	if err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	defer os.Remove(audioPath)

	if peak, perr := audioPeak(audioPath); perr != nil {
		log.Printf("[whisper] audio check skipped: %v", perr)
	} else if peak < silenceFloor {
		log.Printf("[whisper] warning: audio track appears silent (peak %.5f)", peak)
	}

	return engine.Transcribe(ctx, Request{
		AudioPath:      audioPath,
		Language:       opts.Language,
		Model:          model,
		WordTimestamps: opts.WordTimestamps,
	}, onInfo, onSegment)
}
