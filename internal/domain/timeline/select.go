package timeline

import (
	"context"

	"github.com/forPelevin/reelforge/internal/types"
)

// Selection is the subset of a script that fits a target duration. Every item
// in Script carries resolved audio.
type Selection struct {
	Script   Script
	Duration float64
}

// Empty reports whether no post was selected.
func (s Selection) Empty() bool { return len(s.Script.Posts) == 0 }

// SelectForDuration greedily keeps posts and comments, in input order, whose
// narration fits within target seconds. A post is kept only if at least one
// of its comments fits. Comments that do not fit are skipped and later ones
// are still considered. Posts are never reordered.
//
// If the intro and its gap alone exceed target, the selection is empty and
// Duration is the intro length. An empty selection is returned together with
// ErrEmptySelection.
func (c *Composer) SelectForDuration(ctx context.Context, s Script, target float64) (Selection, error) {
	intro, err := c.audio(ctx, s.Intro)
	if err != nil {
		return Selection{}, err
	}
	sel := Script{Intro: withAudio(s.Intro, intro)}

	cursor := advance(0, intro.Duration, c.policy.gapAfter(types.KindIntro))
	if cursor > target {
		return Selection{Script: sel, Duration: intro.Duration}, ErrEmptySelection
	}

	for _, p := range s.Posts {
		if cursor >= target {
			break
		}
		title, err := c.audio(ctx, p.Title)
		if err != nil {
			return Selection{}, err
		}
		afterTitle := advance(cursor, title.Duration, c.policy.gapAfter(types.KindTitle))
		if afterTitle > target {
			continue
		}
		beforeTitle := cursor
		cursor = afterTitle

		kept := PostScript{Post: p.Post, Title: withAudio(p.Title, title)}
		for _, cm := range p.Comments {
			if cursor >= target {
				break
			}
			author, err := c.audio(ctx, cm.Author)
			if err != nil {
				return Selection{}, err
			}
			narr, err := c.audio(ctx, cm.Narration)
			if err != nil {
				return Selection{}, err
			}
			after := advance(cursor, author.Duration, c.policy.gapAfter(types.KindAuthorTag))
			after = advance(after, narr.Duration, c.policy.gapAfter(types.KindNarration))
			if after > target {
				continue
			}
			kept.Comments = append(kept.Comments, CommentScript{
				Comment:   cm.Comment,
				Author:    withAudio(cm.Author, author),
				Narration: withAudio(cm.Narration, narr),
			})
			cursor = after
		}

		if len(kept.Comments) == 0 {
			if c.policy.RefundUnusedTitleDuration {
				cursor = beforeTitle
			}
			continue
		}
		sel.Posts = append(sel.Posts, kept)
	}

	out := Selection{Script: sel, Duration: cursor}
	if out.Empty() {
		return out, ErrEmptySelection
	}
	return out, nil
}

func withAudio(it types.Item, a types.Audio) types.Item {
	it.Audio = a
	return it
}
