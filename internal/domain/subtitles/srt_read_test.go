package subtitles

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/reelforge/internal/types"
)

// parseSRT reads SubRip text back into cues.
func parseSRT(s string) ([]types.Cue, error) {
	var out []types.Cue
	sc := bufio.NewScanner(strings.NewReader(strings.ReplaceAll(s, "\r\n", "\n")))
	state := 0
	var cur types.Cue
	var text []string
	flush := func() {
		if state == 2 {
			cur.Text = strings.Join(text, "\n")
			out = append(out, cur)
		}
		state, cur, text = 0, types.Cue{}, nil
	}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch state {
		case 0:
			if line == "" {
				continue
			}
			if _, err := strconv.Atoi(line); err != nil {
				return nil, fmt.Errorf("srt: expected index, got %q", line)
			}
			state = 1
		case 1:
			start, end, ok := strings.Cut(line, "-->")
			if !ok {
				return nil, fmt.Errorf("srt: expected timing, got %q", line)
			}
			st, err := parseSRTTime(strings.TrimSpace(start))
			if err != nil {
				return nil, err
			}
			en, err := parseSRTTime(strings.TrimSpace(end))
			if err != nil {
				return nil, err
			}
			cur.Start, cur.End = st, en
			state = 2
		case 2:
			if line == "" {
				flush()
				continue
			}
			text = append(text, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

func parseSRTTime(s string) (float64, error) {
	var h, m, sec, ms int
	if _, err := fmt.Sscanf(s, "%d:%d:%d,%d", &h, &m, &sec, &ms); err != nil {
		return 0, fmt.Errorf("srt: bad time %q: %w", s, err)
	}
	return float64(h*3600+m*60+sec) + float64(ms)/1000, nil
}
