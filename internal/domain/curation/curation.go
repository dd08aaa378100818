// Package curation applies the forum selection rules: a recency window,
// minimum scores and top-N comments per post.
package curation

import (
	"sort"
	"strings"
	"time"

	"github.com/forPelevin/reelforge/internal/types"
)

const (
	DefaultPostsLimit      = 10
	DefaultMinPostScore    = 50
	DefaultCommentsPerPost = 5
	DefaultMinCommentScore = 10
	DefaultWindow          = 24 * time.Hour
)

// Normalize fills zero fields of q with the defaults.
func Normalize(q types.ForumQuery) types.ForumQuery {
	if q.PostsLimit <= 0 {
		q.PostsLimit = DefaultPostsLimit
	}
	if q.MinPostScore < 0 {
		q.MinPostScore = 0
	}
	if q.CommentsPerPost <= 0 {
		q.CommentsPerPost = DefaultCommentsPerPost
	}
	if q.MinCommentScore < 0 {
		q.MinCommentScore = 0
	}
	if q.Window <= 0 {
		q.Window = DefaultWindow
	}
	return q
}

// FilterPosts keeps posts created within the window before now that reach the
// minimum score, in input order, up to the posts limit. Posts with an
// unreadable timestamp are dropped.
func FilterPosts(posts []types.Post, q types.ForumQuery, now time.Time) []types.Post {
	q = Normalize(q)
	cutoff := now.Add(-q.Window)
	out := make([]types.Post, 0, q.PostsLimit)
	for _, p := range posts {
		created, ok := ParseCreated(p.CreatedUTC)
		if !ok || created.Before(cutoff) {
			continue
		}
		if p.Score < q.MinPostScore {
			continue
		}
		out = append(out, p)
		if len(out) >= q.PostsLimit {
			break
		}
	}
	return out
}

// SelectComments drops removed and low-score comments, cleans their bodies
// for narration and returns the top ones by score. Equal scores keep input
// order.
func SelectComments(comments []types.Comment, q types.ForumQuery) []types.Comment {
	q = Normalize(q)
	out := make([]types.Comment, 0, len(comments))
	for _, c := range comments {
		if c.Score < q.MinCommentScore || isRemoved(c) {
			continue
		}
		c.Body = CleanText(c.Body)
		if c.Body == "" {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > q.CommentsPerPost {
		out = out[:q.CommentsPerPost]
	}
	return out
}

func isRemoved(c types.Comment) bool {
	switch strings.TrimSpace(c.Body) {
	case "", "[removed]", "[deleted]":
		return true
	}
	return c.Author == "AutoModerator"
}

var createdLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// ParseCreated reads a post timestamp. Timestamps without a zone are UTC.
func ParseCreated(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
