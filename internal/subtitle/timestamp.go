package subtitle

import (
	"fmt"
	"math"
	"strings"
)

// FormatTimestamp renders seconds as an SRT timestamp (HH:MM:SS,mmm). Every
// field truncates toward zero, never rounds: 1.2349s is ",234" and 59.999s
// stays ",999". Milliseconds come from the fractional part alone. Negative
// and non-finite inputs clamp to zero.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	whole := int(seconds)
	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := whole % 60
	millis := int((seconds - float64(whole)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp reads an SRT timestamp back into seconds. Accepts "," or "."
// before the milliseconds so VTT-flavored files survive the editor.
func ParseTimestamp(ts string) (float64, error) {
	ts = strings.Replace(strings.TrimSpace(ts), ",", ".", 1)
	var h, m, s, ms int
	n, err := fmt.Sscanf(ts, "%d:%d:%d.%d", &h, &m, &s, &ms)
	if err != nil || n < 4 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}
	return float64(h*3600+m*60+s) + float64(ms)/1000.0, nil
}
