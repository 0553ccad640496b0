package subtitle

import (
	"fmt"
	"strings"
)

// Issue is one advisory problem found in SRT content. Cue is the 1-based
// position in the file, 0 for document-level issues.
type Issue struct {
	Cue     int    `json:"cue"`
	Message string `json:"message"`
}

// durationGrace absorbs container/probe rounding before a cue counts as
// running past the end of the media.
const durationGrace = 1.0

// Validate scans SRT content for problems worth surfacing in an editor:
// renumbered indices, reversed or overlapping times, cues past the media
// duration. Issues never block a save. mediaDuration <= 0 skips the bounds
// check.
func Validate(content string, mediaDuration float64) []Issue {
	var issues []Issue

	cues := ParseSRT(content)
	if len(cues) == 0 {
		if strings.TrimSpace(content) != "" {
			issues = append(issues, Issue{Cue: 0, Message: "no cues found"})
		}
		return issues
	}

	// Blocks whose text was empty are dropped by the parser; count them by
	// comparing timing lines against surviving cues.
	if timings := timestampRe.FindAllString(content, -1); len(timings) > len(cues) {
		issues = append(issues, Issue{Cue: 0, Message: fmt.Sprintf("%d cue(s) have no text", len(timings)-len(cues))})
	}

	for i, cue := range cues {
		pos := i + 1
		if cue.Index != pos {
			issues = append(issues, Issue{Cue: pos, Message: fmt.Sprintf("index %d out of sequence (expected %d)", cue.Index, pos)})
		}
		if cue.End < cue.Start {
			issues = append(issues, Issue{Cue: pos, Message: fmt.Sprintf("end %s precedes start %s", FormatTimestamp(cue.End), FormatTimestamp(cue.Start))})
		}
		if i > 0 && cue.Start < cues[i-1].End {
			issues = append(issues, Issue{Cue: pos, Message: "overlaps previous cue"})
		}
		if mediaDuration > 0 && cue.End > mediaDuration+durationGrace {
			issues = append(issues, Issue{Cue: pos, Message: fmt.Sprintf("ends at %s, past the media duration %s", FormatTimestamp(cue.End), FormatTimestamp(mediaDuration))})
		}
	}
	return issues
}
