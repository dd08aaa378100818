package timeline

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/forPelevin/reelforge/internal/types"
)

const (
	DefaultGap        = 1.0
	DefaultChunkWords = 4
)

// Resolver returns the synthesized audio for a text. Implementations are
// expected to memoize: the composer calls it for every unresolved item it
// visits, on every pass.
type Resolver interface {
	Resolve(ctx context.Context, text string) (types.Audio, error)
}

type Policy struct {
	// Gap is the silence in seconds after intro, title and narration items.
	// Author tags are always followed directly by their narration.
	Gap float64
	// ChunkWords is the caption chunk size for titles and narrations.
	ChunkWords int
	// RefundUnusedTitleDuration gives back the title's budget when a post is
	// dropped because none of its comments fit.
	RefundUnusedTitleDuration bool
}

func DefaultPolicy() Policy {
	return Policy{Gap: DefaultGap, ChunkWords: DefaultChunkWords}
}

func (p Policy) normalized() Policy {
	if p.Gap < 0 || math.IsNaN(p.Gap) || math.IsInf(p.Gap, 0) {
		p.Gap = 0
	}
	if p.ChunkWords <= 0 {
		p.ChunkWords = DefaultChunkWords
	}
	return p
}

func (p Policy) gapAfter(k types.ItemKind) float64 {
	if k == types.KindAuthorTag {
		return 0
	}
	return p.Gap
}

// Composer lays narration items out on a single timeline. It holds no
// per-run state; every operation threads its own cursor.
type Composer struct {
	policy Policy
	res    Resolver
}

func New(p Policy, res Resolver) *Composer {
	return &Composer{policy: p.normalized(), res: res}
}

func (c *Composer) Policy() Policy { return c.policy }

// Layout is the result of one pass over a flat item sequence.
type Layout struct {
	Cues       []types.Cue
	Placements []types.Placement
	Duration   float64
}

// EstimateTotalDuration returns the length of the full, unfiltered script.
func (c *Composer) EstimateTotalDuration(ctx context.Context, s Script) (float64, error) {
	_, total, err := fold(ctx, c, s.Items(), struct{}{}, func(acc struct{}, _ float64, _ types.Item) struct{} {
		return acc
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// BuildCues returns the caption cues of the script and the final cursor,
// which always equals EstimateTotalDuration for the same script.
func (c *Composer) BuildCues(ctx context.Context, s Script) ([]types.Cue, float64, error) {
	l, err := c.Layout(ctx, s.Items())
	if err != nil {
		return nil, 0, err
	}
	return l.Cues, l.Duration, nil
}

// Layout builds cues and audio placements for any item sequence.
func (c *Composer) Layout(ctx context.Context, items []types.Item) (Layout, error) {
	l, total, err := fold(ctx, c, items, Layout{}, func(l Layout, at float64, it types.Item) Layout {
		l.Cues = append(l.Cues, c.cuesFor(at, it)...)
		if it.Audio.Duration > 0 {
			l.Placements = append(l.Placements, types.Placement{
				Path:     it.Audio.Path,
				Start:    at,
				Duration: it.Audio.Duration,
			})
		}
		return l
	})
	if err != nil {
		return Layout{}, err
	}
	l.Duration = total
	return l, nil
}

// Resolve returns a copy of s with every item's audio resolved, so later
// passes over the copy make no resolver calls.
func (c *Composer) Resolve(ctx context.Context, s Script) (Script, error) {
	out := s.Clone()
	var err error
	if out.Intro.Audio, err = c.audio(ctx, out.Intro); err != nil {
		return Script{}, err
	}
	for i := range out.Posts {
		p := &out.Posts[i]
		if p.Title.Audio, err = c.audio(ctx, p.Title); err != nil {
			return Script{}, err
		}
		for j := range p.Comments {
			cm := &p.Comments[j]
			if cm.Author.Audio, err = c.audio(ctx, cm.Author); err != nil {
				return Script{}, err
			}
			if cm.Narration.Audio, err = c.audio(ctx, cm.Narration); err != nil {
				return Script{}, err
			}
		}
	}
	return out, nil
}

// ResolveItems is Resolve for a flat sequence.
func (c *Composer) ResolveItems(ctx context.Context, items []types.Item) ([]types.Item, error) {
	out := make([]types.Item, len(items))
	for i, it := range items {
		a, err := c.audio(ctx, it)
		if err != nil {
			return nil, err
		}
		it.Audio = a
		out[i] = it
	}
	return out, nil
}

// fold walks items in order, handing each one (with resolved audio) and the
// cursor position before it to fn. It returns the final accumulator and the
// cursor after the last item.
func fold[A any](ctx context.Context, c *Composer, items []types.Item, acc A, fn func(A, float64, types.Item) A) (A, float64, error) {
	cursor := 0.0
	for _, it := range items {
		a, err := c.audio(ctx, it)
		if err != nil {
			return acc, cursor, err
		}
		it.Audio = a
		acc = fn(acc, cursor, it)
		cursor = advance(cursor, a.Duration, c.policy.gapAfter(it.Kind))
	}
	return acc, cursor, nil
}

func advance(cursor, d, gap float64) float64 {
	return cursor + d + gap
}

func (c *Composer) audio(ctx context.Context, it types.Item) (types.Audio, error) {
	if it.Audio.Resolved() {
		if err := checkDuration(it.Audio.Duration); err != nil {
			return types.Audio{}, &DurationResolutionError{Kind: it.Kind, Text: it.Text, Err: err}
		}
		return it.Audio, nil
	}
	if len(strings.Fields(it.Text)) == 0 {
		// Wordless text has nothing to speak and only advances by its gap.
		return types.Audio{}, nil
	}
	if c.res == nil {
		return types.Audio{}, &DurationResolutionError{Kind: it.Kind, Text: it.Text, Err: errNoResolver}
	}
	a, err := c.res.Resolve(ctx, it.Text)
	if err != nil {
		return types.Audio{}, &DurationResolutionError{Kind: it.Kind, Text: it.Text, Err: err}
	}
	if err := checkDuration(a.Duration); err != nil {
		return types.Audio{}, &DurationResolutionError{Kind: it.Kind, Text: it.Text, Err: err}
	}
	return a, nil
}

func checkDuration(d float64) error {
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return fmt.Errorf("invalid duration %v", d)
	}
	return nil
}

func (c *Composer) cuesFor(at float64, it types.Item) []types.Cue {
	d := it.Audio.Duration
	if d <= 0 {
		return nil
	}
	end := at + d
	if it.Kind != types.KindTitle && it.Kind != types.KindNarration {
		return []types.Cue{{Text: strings.TrimSpace(it.Text), Start: at, End: end}}
	}

	chunks := SplitWords(it.Text, c.policy.ChunkWords)
	if len(chunks) == 0 {
		return []types.Cue{{Text: "", Start: at, End: end}}
	}
	chunkDur := d / float64(len(chunks))
	out := make([]types.Cue, 0, len(chunks))
	for i, chunk := range chunks {
		start := at + float64(i)*chunkDur
		stop := at + float64(i+1)*chunkDur
		if i == len(chunks)-1 {
			stop = end
		}
		out = append(out, types.Cue{Text: chunk, Start: start, End: stop})
	}
	return out
}

// SplitWords groups the whitespace-separated words of text into chunks of at
// most n words.
func SplitWords(text string, n int) []string {
	if n <= 0 {
		n = DefaultChunkWords
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	out := make([]string, 0, (len(words)+n-1)/n)
	for i := 0; i < len(words); i += n {
		j := i + n
		if j > len(words) {
			j = len(words)
		}
		out = append(out, strings.Join(words[i:j], " "))
	}
	return out
}
