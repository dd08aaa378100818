package timeline

import (
	"strings"

	"github.com/forPelevin/reelforge/internal/types"
)

const (
	DefaultIntroText = "Reddit Asks"
	DefaultAuthorTag = "User says"
)

// Script is the narration hierarchy: one intro, then posts in order, each with
// its title and (author tag, narration) pairs.
type Script struct {
	Intro types.Item
	Posts []PostScript
}

type PostScript struct {
	Post     types.Post
	Title    types.Item
	Comments []CommentScript
}

type CommentScript struct {
	Comment   types.Comment
	Author    types.Item
	Narration types.Item
}

// Items flattens the script in timeline order.
func (s Script) Items() []types.Item {
	n := 1
	for _, p := range s.Posts {
		n += 1 + 2*len(p.Comments)
	}
	out := make([]types.Item, 0, n)
	out = append(out, s.Intro)
	for _, p := range s.Posts {
		out = append(out, p.Title)
		for _, c := range p.Comments {
			out = append(out, c.Author, c.Narration)
		}
	}
	return out
}

// Clone returns a deep copy; posts and comment slices are never shared.
func (s Script) Clone() Script {
	out := Script{Intro: s.Intro}
	if s.Posts == nil {
		return out
	}
	out.Posts = make([]PostScript, len(s.Posts))
	for i, p := range s.Posts {
		out.Posts[i] = p
		if p.Comments != nil {
			out.Posts[i].Comments = make([]CommentScript, len(p.Comments))
			copy(out.Posts[i].Comments, p.Comments)
		}
	}
	return out
}

// ForumPosts maps the script back to forum records, keeping only the comments
// that made it into the script.
func (s Script) ForumPosts() []types.Post {
	out := make([]types.Post, 0, len(s.Posts))
	for _, p := range s.Posts {
		post := p.Post
		post.TopComments = make([]types.Comment, 0, len(p.Comments))
		for _, c := range p.Comments {
			post.TopComments = append(post.TopComments, c.Comment)
		}
		out = append(out, post)
	}
	return out
}

type ScriptOptions struct {
	IntroText string
	AuthorTag string
}

// BuildScript turns forum posts into narration items. Comments that already
// carry an audio file and duration become pre-resolved items.
func BuildScript(posts []types.Post, opts ScriptOptions) Script {
	intro := strings.TrimSpace(opts.IntroText)
	if intro == "" {
		intro = DefaultIntroText
	}
	tag := strings.TrimSpace(opts.AuthorTag)
	if tag == "" {
		tag = DefaultAuthorTag
	}

	s := Script{
		Intro: types.Item{Kind: types.KindIntro, Text: intro},
		Posts: make([]PostScript, 0, len(posts)),
	}
	for _, p := range posts {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			title = "Post"
		}
		ps := PostScript{
			Post:     p,
			Title:    types.Item{Kind: types.KindTitle, Text: title},
			Comments: make([]CommentScript, 0, len(p.TopComments)),
		}
		for _, c := range p.TopComments {
			if len(strings.Fields(c.Body)) == 0 {
				continue
			}
			narr := types.Item{Kind: types.KindNarration, Text: strings.TrimSpace(c.Body)}
			if c.AudioFile != "" && c.AudioDuration != nil && *c.AudioDuration >= 0 {
				narr.Audio = types.Audio{Path: c.AudioFile, Duration: *c.AudioDuration}
			}
			ps.Comments = append(ps.Comments, CommentScript{
				Comment:   c,
				Author:    types.Item{Kind: types.KindAuthorTag, Text: tag},
				Narration: narr,
			})
		}
		s.Posts = append(s.Posts, ps)
	}
	return s
}

// StoryItems lays a titled story out as a title followed by one narration
// item per paragraph.
func StoryItems(title, content string) []types.Item {
	var out []types.Item
	if t := strings.TrimSpace(title); t != "" {
		out = append(out, types.Item{Kind: types.KindTitle, Text: t})
	}
	for _, para := range splitParagraphs(content) {
		out = append(out, types.Item{Kind: types.KindNarration, Text: para})
	}
	return out
}

func splitParagraphs(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, block := range strings.Split(s, "\n\n") {
		block = strings.Join(strings.Fields(block), " ")
		if block != "" {
			out = append(out, block)
		}
	}
	return out
}
