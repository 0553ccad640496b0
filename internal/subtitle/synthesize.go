package subtitle

import (
	"strings"

	"github.com/hardsub/hardsub/internal/whisper"
)

// Cue is a single numbered subtitle entry.
type Cue struct {
	Index int     `json:"index"`
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
	Text  string  `json:"text"`
}

// Synthesizer turns recognized segments into numbered cues. One counter runs
// across the whole transcription, so cue numbering stays contiguous even when
// segments alternate between whole-segment and word-windowed output.
type Synthesizer struct {
	maxWords int
	next     int
}

// NewSynthesizer creates a synthesizer. maxWords <= 0 means one cue per
// segment; otherwise segments that carry word timestamps are split into
// windows of up to maxWords words.
func NewSynthesizer(maxWords int) *Synthesizer {
	return &Synthesizer{maxWords: maxWords, next: 1}
}

// Segment converts one recognized segment into its cues and advances the
// counter. The policy is chosen per segment: a segment without word detail
// falls back to a single whole-segment cue even in a word-limited run.
// Times are copied from the recognizer untouched.
func (s *Synthesizer) Segment(seg whisper.Segment) []Cue {
	if s.maxWords > 0 && len(seg.Words) > 0 {
		return s.windowed(seg.Words)
	}
	cue := Cue{
		Index: s.next,
		Start: seg.Start,
		End:   seg.End,
		Text:  strings.TrimSpace(seg.Text),
	}
	s.next++
	return []Cue{cue}
}

// windowed emits consecutive windows of up to maxWords words. Word tokens
// keep their own leading whitespace, so the join is plain concatenation; only
// the edges of the finished cue are trimmed.
func (s *Synthesizer) windowed(words []whisper.Word) []Cue {
	cues := make([]Cue, 0, (len(words)+s.maxWords-1)/s.maxWords)
	for i := 0; i < len(words); i += s.maxWords {
		end := i + s.maxWords
		if end > len(words) {
			end = len(words)
		}
		chunk := words[i:end]

		var text strings.Builder
		for _, w := range chunk {
			text.WriteString(w.Text)
		}

		cues = append(cues, Cue{
			Index: s.next,
			Start: chunk[0].Start,
			End:   chunk[len(chunk)-1].End,
			Text:  strings.TrimSpace(text.String()),
		})
		s.next++
	}
	return cues
}

// Synthesize converts a complete segment list in one call.
func Synthesize(segments []whisper.Segment, maxWords int) []Cue {
	syn := NewSynthesizer(maxWords)
	var cues []Cue
	for _, seg := range segments {
		cues = append(cues, syn.Segment(seg)...)
	}
	return cues
}
