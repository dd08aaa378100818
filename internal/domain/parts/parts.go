// Package parts plans how a long video is cut into fixed-length parts.
package parts

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const DefaultLength = 120 * time.Second

type Segment struct {
	Index  int // 1-based
	Start  time.Duration
	Length time.Duration
}

// Plan covers [0, total) with consecutive segments of at most length. The
// last segment holds the remainder. A video no longer than length yields no
// segments.
func Plan(total, length time.Duration) []Segment {
	if length <= 0 {
		length = DefaultLength
	}
	if total <= length {
		return nil
	}
	n := int(total / length)
	if total%length > 0 {
		n++
	}
	out := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		start := time.Duration(i) * length
		l := length
		if rest := total - start; rest < l {
			l = rest
		}
		out = append(out, Segment{Index: i + 1, Start: start, Length: l})
	}
	return out
}

// FileName returns "<base>_part<N><ext>" next to videoPath.
func FileName(videoPath string, s Segment) string {
	ext := filepath.Ext(videoPath)
	base := strings.TrimSuffix(filepath.Base(videoPath), ext)
	return filepath.Join(filepath.Dir(videoPath), fmt.Sprintf("%s_part%d%s", base, s.Index, ext))
}
