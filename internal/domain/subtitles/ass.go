package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/reelforge/internal/types"
)

type ASSOptions struct {
	// Karaoke adds per-word \k timing inside each cue.
	Karaoke bool
	Font    string
	Size    int
}

// RenderASS renders cues as a portrait ASS script for burning into video.
func RenderASS(cues []types.Cue, opts ASSOptions) string {
	var b strings.Builder
	b.WriteString(assHeader(opts))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, c := range cues {
		text := sanitizeASS(c.Text)
		if text == "" {
			continue
		}
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(dur(c.Start)))
		b.WriteString(",")
		b.WriteString(assTime(dur(c.End)))
		b.WriteString(",Caption,,0,0,0,,")
		if opts.Karaoke {
			b.WriteString(karaoke(text, dur(c.End-c.Start)))
		} else {
			b.WriteString(text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// karaoke spreads d over the words of text by rune length.
func karaoke(text string, d time.Duration) string {
	words := strings.Fields(text)
	total := 0
	for _, w := range words {
		total += len([]rune(w))
	}
	if total == 0 {
		return text
	}
	var b strings.Builder
	for i, w := range words {
		share := time.Duration(float64(d) * float64(len([]rune(w))) / float64(total))
		durCS := int(share / (10 * time.Millisecond))
		if durCS < 1 {
			durCS = 1
		}
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(fmt.Sprintf("{\\k%d}%s", durCS, w))
	}
	return b.String()
}

func assHeader(opts ASSOptions) string {
	font := opts.Font
	if font == "" {
		font = "Arial"
	}
	size := opts.Size
	if size <= 0 {
		size = 84
	}
	return strings.TrimSpace(fmt.Sprintf(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1080
PlayResY: 1920
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Caption, %s, %d, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,6,2,5, 60,60,0,1
`, font, size))
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
