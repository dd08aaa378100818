package usecase

import (
	"context"
	"errors"

	"github.com/forPelevin/reelforge/internal/domain/timeline"
	"github.com/forPelevin/reelforge/internal/types"
)

type PostEstimate struct {
	ID       string
	Title    string
	Comments int
	// Duration is the time the post adds to the timeline, gaps included.
	Duration float64
}

type Estimate struct {
	Intro float64
	Posts []PostEstimate
	// Total is the length of a video using every post and comment.
	Total float64
}

// Estimate synthesizes what is missing and reports how long each post would
// run.
func (u Usecase) Estimate(ctx context.Context, posts []types.Post, opts timeline.ScriptOptions, p timeline.Policy) (Estimate, error) {
	comp, err := u.composer(p)
	if err != nil {
		return Estimate{}, err
	}
	script, err := comp.Resolve(ctx, timeline.BuildScript(posts, opts))
	if err != nil {
		return Estimate{}, err
	}

	prev, err := comp.EstimateTotalDuration(ctx, timeline.Script{Intro: script.Intro})
	if err != nil {
		return Estimate{}, err
	}
	est := Estimate{Intro: prev, Posts: make([]PostEstimate, 0, len(script.Posts))}
	for i, ps := range script.Posts {
		cur, err := comp.EstimateTotalDuration(ctx, timeline.Script{Intro: script.Intro, Posts: script.Posts[:i+1]})
		if err != nil {
			return Estimate{}, err
		}
		est.Posts = append(est.Posts, PostEstimate{
			ID:       ps.Post.ID,
			Title:    ps.Post.Title,
			Comments: len(ps.Comments),
			Duration: cur - prev,
		})
		prev = cur
	}
	est.Total = prev
	return est, nil
}

// Fetch pulls curated posts from the content source.
func (u Usecase) Fetch(ctx context.Context, q types.ForumQuery) ([]types.Post, error) {
	if u.d.Source == nil {
		return nil, errors.New("usecase: no content source configured")
	}
	posts, err := u.d.Source.TopPosts(ctx, q)
	if err != nil {
		return nil, err
	}
	comments := 0
	for _, p := range posts {
		comments += len(p.TopComments)
	}
	u.d.Logger.Info("posts fetched", "subreddit", q.Subreddit, "posts", len(posts), "comments", comments)
	return posts, nil
}
