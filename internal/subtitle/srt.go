package subtitle

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var timestampRe = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}[.,]\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}[.,]\d{3})`)

// WriteCue writes one SRT block: index line, timing line, text, blank line.
func WriteCue(w io.Writer, cue Cue) error {
	_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
		cue.Index, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), cue.Text)
	return err
}

// WriteSRT writes cues as an SRT document in order.
func WriteSRT(w io.Writer, cues []Cue) error {
	for _, cue := range cues {
		if err := WriteCue(w, cue); err != nil {
			return err
		}
	}
	return nil
}

// FormatSRT renders cues as an SRT string.
func FormatSRT(cues []Cue) string {
	var sb strings.Builder
	for _, cue := range cues {
		WriteCue(&sb, cue)
	}
	return sb.String()
}

// ParseSRT parses SRT content into cues. Tolerates CRLF line endings, a BOM,
// multi-line cue text, and "." millisecond separators. The file's own index
// lines are kept; blocks missing one are numbered by position. Cues that end
// up with no text are dropped.
func ParseSRT(content string) []Cue {
	content = strings.TrimPrefix(content, "\ufeff")
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var cues []Cue
	var current *Cue
	pendingIndex := -1

	flush := func() {
		if current != nil && current.Text != "" {
			cues = append(cues, *current)
		}
		current = nil
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		if line == "" {
			flush()
			pendingIndex = -1
			continue
		}

		if matches := timestampRe.FindStringSubmatch(line); len(matches) == 3 {
			flush()
			idx := pendingIndex
			pendingIndex = -1
			if idx < 0 {
				idx = len(cues) + 1
			}
			start, _ := ParseTimestamp(matches[1])
			end, _ := ParseTimestamp(matches[2])
			current = &Cue{Index: idx, Start: start, End: end}
			continue
		}

		// A bare number before a timing line is the cue index
		if n, err := strconv.Atoi(line); err == nil && current == nil {
			pendingIndex = n
			continue
		}

		if current != nil {
			if current.Text != "" {
				current.Text += "\n"
			}
			current.Text += line
		}
	}
	flush()

	return cues
}
