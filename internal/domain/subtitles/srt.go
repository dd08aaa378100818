package subtitles

import (
	"fmt"
	"math"
	"strings"

	"github.com/forPelevin/reelforge/internal/types"
)

// FormatSRT renders cues as SubRip. Times are rounded to milliseconds and a
// cue never starts before the previous one ends.
func FormatSRT(cues []types.Cue) string {
	var b strings.Builder
	prevEnd := int64(0)
	n := 0
	for _, c := range cues {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		start := toMillis(c.Start)
		end := toMillis(c.End)
		if start < prevEnd {
			start = prevEnd
		}
		if end <= start {
			end = start + 1
		}
		prevEnd = end
		n++
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", n, srtTime(start), srtTime(end), text)
	}
	return b.String()
}

func toMillis(sec float64) int64 {
	if sec < 0 || math.IsNaN(sec) {
		return 0
	}
	return int64(math.Round(sec * 1000))
}

func srtTime(ms int64) string {
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
