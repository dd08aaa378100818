package curation

import (
	"testing"
	"time"

	"github.com/forPelevin/reelforge/internal/types"
)

func TestFilterPosts_WindowScoreAndLimit(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	posts := []types.Post{
		{ID: "old", Score: 900, CreatedUTC: "2026-02-28T12:00:00Z"},
		{ID: "low", Score: 10, CreatedUTC: "2026-03-02T10:00:00Z"},
		{ID: "a", Score: 100, CreatedUTC: "2026-03-02T09:00:00"},
		{ID: "bad", Score: 100, CreatedUTC: "yesterday"},
		{ID: "b", Score: 60, CreatedUTC: "2026-03-01T13:00:00Z"},
		{ID: "c", Score: 70, CreatedUTC: "2026-03-02T11:00:00Z"},
	}
	got := FilterPosts(posts, types.ForumQuery{PostsLimit: 2, MinPostScore: 50}, now)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected posts: %+v", got)
	}
}

func TestSelectComments(t *testing.T) {
	comments := []types.Comment{
		{ID: "1", Body: "first", Score: 20},
		{ID: "2", Body: "[deleted]", Score: 500},
		{ID: "3", Body: "**bold** take", Score: 80},
		{ID: "4", Body: "too low", Score: 2},
		{ID: "5", Body: "tie", Score: 20},
		{ID: "6", Body: "bot", Author: "AutoModerator", Score: 100},
		{ID: "7", Body: "last", Score: 15},
	}
	got := SelectComments(comments, types.ForumQuery{CommentsPerPost: 3, MinCommentScore: 10})
	if len(got) != 3 {
		t.Fatalf("comments=%d want 3: %+v", len(got), got)
	}
	ids := got[0].ID + got[1].ID + got[2].ID
	if ids != "315" {
		t.Fatalf("order=%s want 315", ids)
	}
	if got[0].Body != "bold take" {
		t.Fatalf("body not cleaned: %q", got[0].Body)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"see [this link](https://x.y/z) now", "see this link now"},
		{"go to https://example.com/a?b=c please", "go to please"},
		{"&gt; quoted line\nreply &amp; more", "quoted line reply & more"},
		{"~~struck~~ and `code`", "struck and code"},
		{"great story\n\nEdit: thanks for the gold!", "great story"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Fatalf("CleanText(%q)=%q want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Defaults(t *testing.T) {
	q := Normalize(types.ForumQuery{})
	if q.PostsLimit != DefaultPostsLimit || q.CommentsPerPost != DefaultCommentsPerPost || q.Window != DefaultWindow {
		t.Fatalf("unexpected defaults: %+v", q)
	}
}
