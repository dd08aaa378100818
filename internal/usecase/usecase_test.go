package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/reelforge/internal/audiocache"
	"github.com/forPelevin/reelforge/internal/domain/timeline"
	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/types"
)

// fakeResolver returns fixed durations per text; unknown texts last 1s.
type fakeResolver struct {
	durations map[string]float64
	calls     int
}

func (f *fakeResolver) Resolve(_ context.Context, text string) (types.Audio, error) {
	f.calls++
	d, ok := f.durations[text]
	if !ok {
		d = 1
	}
	return types.Audio{Path: "audio/" + text + ".wav", Duration: d}, nil
}

type fakeMedia struct {
	probe    map[string]time.Duration
	mixes    []time.Duration
	mixed    [][]types.Placement
	renders  []types.RenderRequest
	speedups []string
	splits   []string
}

func (f *fakeMedia) ProbeDuration(_ context.Context, path string) (time.Duration, error) {
	if d, ok := f.probe[filepath.Base(path)]; ok {
		return d, nil
	}
	return 0, errors.New("no such media: " + path)
}

func (f *fakeMedia) MixNarration(_ context.Context, p []types.Placement, total time.Duration, _ string) error {
	f.mixed = append(f.mixed, p)
	f.mixes = append(f.mixes, total)
	return nil
}

func (f *fakeMedia) RenderVideo(_ context.Context, req types.RenderRequest) error {
	f.renders = append(f.renders, req)
	return nil
}

func (f *fakeMedia) SpeedUp(_ context.Context, in, out string, _ float64) error {
	f.speedups = append(f.speedups, filepath.Base(in)+"->"+filepath.Base(out))
	return nil
}

func (f *fakeMedia) SplitVideo(_ context.Context, _ string, _, _ time.Duration, out string) error {
	f.splits = append(f.splits, filepath.Base(out))
	return nil
}

type fakeMeta struct{ content string }

func (f *fakeMeta) GenerateMetadata(_ context.Context, content string) (types.VideoMetadata, error) {
	f.content = content
	return types.VideoMetadata{Title: "Best answers", Tags: []string{"reddit"}}, nil
}

type fakePublisher struct {
	video string
	opts  types.PublishOptions
}

func (f *fakePublisher) Upload(_ context.Context, video string, _ types.VideoMetadata, opts types.PublishOptions) (string, error) {
	f.video, f.opts = video, opts
	return "yt123", nil
}

type fakeObjects struct {
	uploads []string
	signs   int
}

func (f *fakeObjects) Upload(_ context.Context, _, key string) error {
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeObjects) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	f.signs++
	return "https://signed.example/" + key, nil
}

type fakeVideos struct{ recs map[string]types.VideoRecord }

func (f *fakeVideos) SaveVideo(_ context.Context, rec types.VideoRecord) error {
	f.recs[rec.RequestID] = rec
	return nil
}

func (f *fakeVideos) GetVideo(_ context.Context, id string) (types.VideoRecord, error) {
	rec, ok := f.recs[id]
	if !ok {
		return types.VideoRecord{}, ports.ErrNotFound
	}
	return rec, nil
}

// Timeline with the default 1s gap:
// intro 1 (->2), T1 2 (->5), tag 1 (->6), c1 3 (->10), tag 1 (->11), c2 3 (->15).
func testPosts() []types.Post {
	return []types.Post{{
		ID:    "p1",
		Title: "T1",
		TopComments: []types.Comment{
			{ID: "k1", Body: "c1"},
			{ID: "k2", Body: "c2"},
		},
	}}
}

func testResolver() *fakeResolver {
	return &fakeResolver{durations: map[string]float64{
		"Reddit Asks": 1,
		"T1":          2,
		"User says":   1,
		"c1":          3,
		"c2":          3,
		"T2":          2,
		"c3":          3,
	}}
}

func backgroundDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"notes.txt", "loop.MP4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	return dir
}

func newTestUsecase(d Deps) Usecase {
	d.Rand = rand.New(rand.NewPCG(1, 2))
	d.Now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return New(d)
}

func TestRender_SelectsWritesSubtitlesAndSpeedsUp(t *testing.T) {
	t.Parallel()
	out := t.TempDir()
	media := &fakeMedia{probe: map[string]time.Duration{"loop.MP4": 100 * time.Second}}
	uc := newTestUsecase(Deps{Media: media, Resolver: testResolver()})

	res, err := uc.Render(context.Background(), RenderInput{
		Source:     "posts.json",
		Posts:      testPosts(),
		Policy:     timeline.DefaultPolicy(),
		Target:     10,
		Speed:      1.25,
		Background: backgroundDir(t),
		OutDir:     out,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	m := res.Manifest
	if m.MaxDurationSec != 15 || m.TargetSec != 10 {
		t.Fatalf("unexpected durations: max=%v target=%v", m.MaxDurationSec, m.TargetSec)
	}
	if m.DurationSec != 8 {
		t.Fatalf("duration after speed-up = %v, want 8", m.DurationSec)
	}
	if len(m.Posts) != 1 || len(m.Posts[0].Comments) != 1 || m.Posts[0].Comments[0] != "k1" {
		t.Fatalf("unexpected selection: %+v", m.Posts)
	}
	if m.Video != "video.mp4" || m.Subtitles != "subtitles.ass" || m.SubtitlesSRT != "subtitles.srt" {
		t.Fatalf("unexpected files: %+v", m)
	}
	if filepath.Base(m.Background) != "loop.MP4" {
		t.Fatalf("background = %s", m.Background)
	}

	if len(media.renders) != 1 {
		t.Fatalf("renders = %d", len(media.renders))
	}
	req := media.renders[0]
	if req.Duration != 10*time.Second || filepath.Base(req.Output) != "video_raw.mp4" {
		t.Fatalf("unexpected render request: %+v", req)
	}
	if req.BackgroundOffset < 0 || req.BackgroundOffset >= 90*time.Second {
		t.Fatalf("offset out of range: %s", req.BackgroundOffset)
	}
	if len(media.speedups) != 1 || media.speedups[0] != "video_raw.mp4->video.mp4" {
		t.Fatalf("unexpected speedups: %v", media.speedups)
	}
	if len(media.mixed) != 1 || len(media.mixed[0]) != 4 || media.mixes[0] != 10*time.Second {
		t.Fatalf("unexpected mix: %+v total=%v", media.mixed, media.mixes)
	}
	if media.mixed[0][3].Start != 6 {
		t.Fatalf("comment placed at %v, want 6", media.mixed[0][3].Start)
	}

	srt, err := os.ReadFile(filepath.Join(out, "subtitles.srt"))
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.Contains(string(srt), "00:00:06,000 --> 00:00:09,000\nc1") {
		t.Fatalf("srt missing comment cue:\n%s", srt)
	}
	if _, err := os.Stat(filepath.Join(out, "subtitles.ass")); err != nil {
		t.Fatalf("ass missing: %v", err)
	}
}

type silentTTS struct{ texts []string }

func (f *silentTTS) Synthesize(_ context.Context, text string, _ types.Voice, _ string) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *silentTTS) Extension() string { return ".wav" }

type fixedProbe struct{ d time.Duration }

func (f fixedProbe) ProbeDuration(context.Context, string) (time.Duration, error) { return f.d, nil }

func TestRender_EmptyCommentBodyIsSkipped(t *testing.T) {
	t.Parallel()
	tts := &silentTTS{}
	cache := audiocache.New(audiocache.Options{
		Dir:     t.TempDir(),
		TTS:     tts,
		Probe:   fixedProbe{d: 2 * time.Second},
		Backend: audiocache.NewMemoryBackend(),
	})
	media := &fakeMedia{probe: map[string]time.Duration{"loop.MP4": 100 * time.Second}}
	uc := newTestUsecase(Deps{Media: media, Resolver: cache})

	res, err := uc.Render(context.Background(), RenderInput{
		Source: "posts.json",
		Posts: []types.Post{{
			ID:    "p1",
			Title: "Question",
			TopComments: []types.Comment{
				{ID: "k1", Body: ""},
				{ID: "k2", Body: "answer"},
			},
		}},
		Policy:     timeline.DefaultPolicy(),
		Target:     100,
		Speed:      1,
		Background: backgroundDir(t),
		OutDir:     t.TempDir(),
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	posts := res.Manifest.Posts
	if len(posts) != 1 || len(posts[0].Comments) != 1 || posts[0].Comments[0] != "k2" {
		t.Fatalf("unexpected selection: %+v", posts)
	}
	for _, text := range tts.texts {
		if strings.TrimSpace(text) == "" {
			t.Fatalf("synthesized empty text: %q", tts.texts)
		}
	}
}

func TestRender_FallsBackWhenNothingFits(t *testing.T) {
	t.Parallel()
	media := &fakeMedia{probe: map[string]time.Duration{"loop.MP4": 5 * time.Second}}
	uc := newTestUsecase(Deps{Media: media, Resolver: testResolver()})

	res, err := uc.Render(context.Background(), RenderInput{
		Posts:      testPosts(),
		Policy:     timeline.DefaultPolicy(),
		Target:     3,
		Fallback:   10,
		Background: backgroundDir(t),
		OutDir:     t.TempDir(),
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if res.Manifest.TargetSec != 10 || res.Manifest.SpeedFactor != 1 {
		t.Fatalf("unexpected manifest: %+v", res.Manifest)
	}
	if len(media.speedups) != 0 {
		t.Fatalf("speed 0 must not speed up: %v", media.speedups)
	}
	if media.renders[0].BackgroundOffset != 0 {
		t.Fatalf("short background must loop from start, got %s", media.renders[0].BackgroundOffset)
	}
}

func TestRender_EmptySelection(t *testing.T) {
	t.Parallel()
	media := &fakeMedia{}
	uc := newTestUsecase(Deps{Media: media, Resolver: testResolver()})

	_, err := uc.Render(context.Background(), RenderInput{
		Posts:      testPosts(),
		Policy:     timeline.DefaultPolicy(),
		Target:     3,
		Background: backgroundDir(t),
		OutDir:     t.TempDir(),
	})
	if !errors.Is(err, timeline.ErrEmptySelection) {
		t.Fatalf("err=%v want ErrEmptySelection", err)
	}
	if len(media.renders) != 0 {
		t.Fatalf("nothing should render")
	}
}

func TestRender_Publishes(t *testing.T) {
	t.Parallel()
	media := &fakeMedia{probe: map[string]time.Duration{"loop.MP4": 60 * time.Second}}
	meta := &fakeMeta{}
	pub := &fakePublisher{}
	uc := newTestUsecase(Deps{Media: media, Resolver: testResolver(), Metadata: meta, Publisher: pub})

	res, err := uc.Render(context.Background(), RenderInput{
		Posts:      testPosts(),
		Policy:     timeline.DefaultPolicy(),
		Target:     60,
		Speed:      1,
		Background: backgroundDir(t),
		OutDir:     t.TempDir(),
		Publish:    true,
		Publishing: types.PublishOptions{Category: "24", Privacy: "private"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if res.Manifest.VideoID != "yt123" || res.Manifest.Metadata == nil || res.Manifest.Metadata.Title != "Best answers" {
		t.Fatalf("unexpected manifest: %+v", res.Manifest)
	}
	if filepath.Base(pub.video) != "video.mp4" || pub.opts.Privacy != "private" {
		t.Fatalf("unexpected upload: %s %+v", pub.video, pub.opts)
	}
	if meta.content != "T1\n\nc1\n\nc2" {
		t.Fatalf("metadata content = %q", meta.content)
	}
}

func TestEstimate_PerPostDurations(t *testing.T) {
	t.Parallel()
	res := testResolver()
	uc := newTestUsecase(Deps{Resolver: res})
	posts := append(testPosts(), types.Post{ID: "p2", Title: "T2", TopComments: []types.Comment{{ID: "k3", Body: "c3"}}})

	est, err := uc.Estimate(context.Background(), posts, timeline.ScriptOptions{}, timeline.DefaultPolicy())
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if est.Intro != 2 || est.Total != 23 {
		t.Fatalf("intro=%v total=%v", est.Intro, est.Total)
	}
	if len(est.Posts) != 2 || est.Posts[0].Duration != 13 || est.Posts[1].Duration != 8 || est.Posts[0].Comments != 2 {
		t.Fatalf("unexpected posts: %+v", est.Posts)
	}
}

func TestStory_SplitsUploadsAndRecords(t *testing.T) {
	t.Parallel()
	media := &fakeMedia{probe: map[string]time.Duration{
		"loop.MP4":       30 * time.Second,
		"full_video.mp4": 250 * time.Second,
	}}
	objects := &fakeObjects{}
	videos := &fakeVideos{recs: map[string]types.VideoRecord{}}
	uc := newTestUsecase(Deps{Media: media, Resolver: testResolver(), Objects: objects, Videos: videos})

	res, err := uc.Story(context.Background(), StoryInput{
		RequestID:  "req-1",
		Title:      "A long night",
		Content:    "First paragraph.\n\nSecond paragraph.",
		Policy:     timeline.DefaultPolicy(),
		Background: backgroundDir(t),
		OutDir:     t.TempDir(),
	})
	if err != nil {
		t.Fatalf("story: %v", err)
	}
	if res.Duration != 250 || res.FullVideoKey != "videos/req-1/full_video.mp4" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.FullVideoURL != "https://signed.example/videos/req-1/full_video.mp4" {
		t.Fatalf("full url = %s", res.FullVideoURL)
	}
	if len(res.Parts) != 3 || res.Parts[2].Key != "videos/req-1/parts/full_video_part3.mp4" {
		t.Fatalf("unexpected parts: %+v", res.Parts)
	}
	if len(objects.uploads) != 4 || len(media.splits) != 3 {
		t.Fatalf("uploads=%v splits=%v", objects.uploads, media.splits)
	}
	if len(media.mixed[0]) != 3 {
		t.Fatalf("title and two paragraphs expected, got %d placements", len(media.mixed[0]))
	}

	rec, ok := videos.recs["req-1"]
	if !ok || rec.Content != "First paragraph.\n\nSecond paragraph." || len(rec.Parts) != 3 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := uc.GetVideo(context.Background(), "req-1", time.Minute)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "A long night" || got.FullVideoURL == "" || len(got.Parts) != 3 || got.Parts[0].URL == "" {
		t.Fatalf("unexpected lookup: %+v", got)
	}
	if _, err := uc.GetVideo(context.Background(), "missing", 0); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestStory_LocalWithoutObjectStore(t *testing.T) {
	t.Parallel()
	out := t.TempDir()
	media := &fakeMedia{probe: map[string]time.Duration{
		"loop.MP4":       30 * time.Second,
		"full_video.mp4": 40 * time.Second,
	}}
	uc := newTestUsecase(Deps{Media: media, Resolver: testResolver()})

	res, err := uc.Story(context.Background(), StoryInput{
		RequestID:  "req-2",
		Title:      "Short",
		Content:    "Only one paragraph.",
		Background: backgroundDir(t),
		OutDir:     out,
	})
	if err != nil {
		t.Fatalf("story: %v", err)
	}
	if res.FullVideoURL != filepath.Join(out, "full_video.mp4") {
		t.Fatalf("url = %s", res.FullVideoURL)
	}
	if res.Parts == nil || len(res.Parts) != 0 || len(media.splits) != 0 {
		t.Fatalf("short video must not split: %+v", res.Parts)
	}
}

func TestStory_RejectsEmptyInput(t *testing.T) {
	t.Parallel()
	uc := newTestUsecase(Deps{Media: &fakeMedia{}, Resolver: testResolver()})
	_, err := uc.Story(context.Background(), StoryInput{RequestID: "x", Title: "  ", Content: "body"})
	if !errors.Is(err, ErrInvalidStory) {
		t.Fatalf("err=%v want ErrInvalidStory", err)
	}
}

func TestStory_RejectsOversizedContent(t *testing.T) {
	t.Parallel()
	media := &fakeMedia{}
	uc := newTestUsecase(Deps{Media: media, Resolver: testResolver()})
	_, err := uc.Story(context.Background(), StoryInput{
		RequestID: "x",
		Title:     "t",
		Content:   strings.Repeat("a", maxStoryContent+1),
	})
	if !errors.Is(err, ErrInvalidStory) {
		t.Fatalf("err=%v want ErrInvalidStory", err)
	}
	if len(media.renders) != 0 {
		t.Fatalf("rendered %d videos for rejected input", len(media.renders))
	}
}

func TestPickBackground(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(3, 4))
	dir := backgroundDir(t)

	got, err := pickBackground(dir, rng)
	if err != nil || filepath.Base(got) != "loop.MP4" {
		t.Fatalf("pick = %q, %v", got, err)
	}
	file := filepath.Join(dir, "notes.txt")
	if got, err := pickBackground(file, rng); err != nil || got != file {
		t.Fatalf("explicit file = %q, %v", got, err)
	}
	if _, err := pickBackground(t.TempDir(), rng); err == nil {
		t.Fatalf("expected error for empty dir")
	}
	if _, err := pickBackground("", rng); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestBackgroundOffset(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(5, 6))
	if got := backgroundOffset(10*time.Second, 20*time.Second, rng); got != 0 {
		t.Fatalf("short background offset = %s", got)
	}
	for i := 0; i < 100; i++ {
		got := backgroundOffset(100*time.Second, 30*time.Second, rng)
		if got < 0 || got >= 70*time.Second || got%time.Second != 0 {
			t.Fatalf("offset %s out of range", got)
		}
	}
}
