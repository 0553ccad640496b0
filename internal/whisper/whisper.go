package whisper

import "context"

// Word is a single recognized word with its own time span. Engines that
// provide word timestamps keep each token's leading whitespace intact.
type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"word"`
}

// Segment is one recognized utterance. Words is empty when the engine was not
// asked for (or cannot produce) word-level timestamps.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Info describes the detected (or forced) language of a transcription run.
// Probability is 0 when the engine does not report one.
type Info struct {
	Language    string  `json:"language"`
	Probability float64 `json:"language_probability"`
	Duration    float64 `json:"duration"`
}

// Request is the input for a transcription. AudioPath points at a prepared
// WAV (16kHz mono); the service extracts it from the source video.
type Request struct {
	AudioPath      string // absolute path to the extracted audio
	Language       string // "", "auto", or an ISO code like "en", "ko"
	Model          string // model size for local engines ("small", "large-v3", ...)
	WordTimestamps bool   // request per-word timing
}

// Transcriber is the common interface for all whisper engines. Segments are
// delivered in order as the engine produces them; onInfo fires once, before
// the first segment. Returning an error from onSegment aborts the run.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request, onInfo func(Info), onSegment func(Segment) error) error
	// Name returns the engine name
	Name() string
}

// Models lists the recognized whisper model sizes for local engines.
var Models = []string{"tiny", "base", "small", "medium", "large-v2", "large-v3"}

// ValidModel reports whether name is a known local model size.
func ValidModel(name string) bool {
	for _, m := range Models {
		if m == name {
			return true
		}
	}
	return false
}
