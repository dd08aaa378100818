package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/reelforge/internal/config"
	"github.com/forPelevin/reelforge/internal/types"
)

func TestBuildRunOutDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := buildRunOutDir("out", "/tmp/data/Top Posts_Comments.20260212.json", now)
	base := filepath.Base(got)
	if filepath.Dir(got) != "out" {
		t.Fatalf("unexpected parent dir: %s", got)
	}
	if !strings.HasPrefix(base, "top-posts-comments-20260212-20260212-103045Z-") {
		t.Fatalf("unexpected run dir format: %s", base)
	}
	if len(base) != len("top-posts-comments-20260212-20260212-103045Z-")+6 {
		t.Fatalf("unexpected run dir suffix length: %s", base)
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestPostsFiles_RoundTripAndLatest(t *testing.T) {
	dir := t.TempDir()
	dur := 2.5
	posts := []types.Post{{
		ID:    "p1",
		Title: "What is it?",
		TopComments: []types.Comment{
			{ID: "c1", Author: "u", Body: "This.", AudioFile: "c1.mp3", AudioDuration: &dur},
		},
	}}
	older, err := WritePosts(dir, nil, time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("WritePosts: %v", err)
	}
	newer, err := WritePosts(dir, posts, time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("WritePosts: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "zzz.json"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	latest, err := LatestPostsFile(dir)
	if err != nil || latest != newer {
		t.Fatalf("latest = %q, %v; want %q", latest, err, newer)
	}
	got, err := ReadPosts(latest)
	if err != nil {
		t.Fatalf("ReadPosts: %v", err)
	}
	if len(got) != 1 || got[0].TopComments[0].AudioDuration == nil || *got[0].TopComments[0].AudioDuration != 2.5 {
		t.Fatalf("unexpected posts: %+v", got)
	}
	empty, err := ReadPosts(older)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty file = %v, %v", empty, err)
	}
}

func TestLatestPostsFile_None(t *testing.T) {
	_, err := LatestPostsFile(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "reelforge fetch") {
		t.Fatalf("err = %v", err)
	}
}

func TestRenderConfigValidate(t *testing.T) {
	app := config.Default()
	app.TTS.Voice = "en-us"
	valid := RenderConfig{App: &app, Target: 70, Speed: 1.1}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	tests := []struct {
		name string
		cfg  func() RenderConfig
		want string
	}{
		{"missing posts", func() RenderConfig { c := valid; c.PostsFile = filepath.Join(t.TempDir(), "nope.json"); return c }, "stat posts"},
		{"target", func() RenderConfig { c := valid; c.Target = 0; return c }, "target must be > 0"},
		{"speed", func() RenderConfig { c := valid; c.Speed = -1; return c }, "speed must be > 0"},
		{"publish without key", func() RenderConfig { c := valid; c.Publish = true; return c }, "OPENROUTER_API_KEY is required"},
		{"publish over http", func() RenderConfig {
			a := app
			a.LLM.APIKey = "k"
			a.LLM.BaseURL = "http://openrouter.ai"
			c := valid
			c.App, c.Publish = &a, true
			return c
		}, "https is required"},
		{"publish privacy", func() RenderConfig {
			a := app
			a.LLM.APIKey = "k"
			c := valid
			c.App, c.Publish, c.Privacy = &a, true, "friends"
			return c
		}, "invalid privacy"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg().Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestConfigMapping(t *testing.T) {
	app := config.Default()
	app.Timeline.RefundUnusedTitle = true
	app.Timeline.GapSeconds = 0.5
	p := policy(&app)
	if p.Gap != 0.5 || p.ChunkWords != 4 || !p.RefundUnusedTitleDuration {
		t.Fatalf("policy = %+v", p)
	}
	q := forumQuery(&app)
	if q.Subreddit != "AskReddit" || q.Window != 24*time.Hour || q.CommentsPerPost != 5 {
		t.Fatalf("query = %+v", q)
	}
	if _, voice := newSynthesizer(&app); voice.Engine != "espeak" {
		t.Fatalf("voice = %+v", voice)
	}
	app.TTS.Engine = "kokoro"
	if _, voice := newSynthesizer(&app); voice.Engine != "kokoro" {
		t.Fatalf("voice = %+v", voice)
	}
}

type splitMedia struct {
	total time.Duration
	outs  []string
}

func (m *splitMedia) ProbeDuration(context.Context, string) (time.Duration, error) {
	return m.total, nil
}

func (m *splitMedia) MixNarration(context.Context, []types.Placement, time.Duration, string) error {
	return nil
}

func (m *splitMedia) RenderVideo(context.Context, types.RenderRequest) error { return nil }

func (m *splitMedia) SpeedUp(context.Context, string, string, float64) error { return nil }

func (m *splitMedia) SplitVideo(_ context.Context, _ string, _, _ time.Duration, out string) error {
	m.outs = append(m.outs, filepath.Base(out))
	return nil
}

func TestSplit(t *testing.T) {
	m := &splitMedia{total: 250 * time.Second}
	got, err := split(context.Background(), m, "/videos/final.mp4", 120*time.Second)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	want := []string{"final_part1.mp4", "final_part2.mp4", "final_part3.mp4"}
	if strings.Join(m.outs, ",") != strings.Join(want, ",") || len(got) != 3 {
		t.Fatalf("parts = %v", m.outs)
	}

	short := &splitMedia{total: 90 * time.Second}
	if got, err := split(context.Background(), short, "/videos/final.mp4", 120*time.Second); err != nil || len(got) != 0 {
		t.Fatalf("short video parts = %v, %v", got, err)
	}
}
