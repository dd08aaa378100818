package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/forPelevin/reelforge/internal/domain/subtitles"
	"github.com/forPelevin/reelforge/internal/domain/timeline"
	"github.com/forPelevin/reelforge/internal/types"
)

type RenderInput struct {
	// Source is the posts file the run was built from, kept for the manifest.
	Source string
	Posts  []types.Post
	Script timeline.ScriptOptions
	Policy timeline.Policy

	// Target is the requested length in seconds. When nothing fits, the
	// selection is retried once with Fallback if it is larger.
	Target   float64
	Fallback float64

	// Speed is applied to the rendered video; 1 or less than 0 skips it.
	Speed      float64
	Background string
	OutDir     string
	Subtitles  subtitles.ASSOptions

	Publish    bool
	Publishing types.PublishOptions
}

type Result struct {
	Manifest types.Manifest
}

// Render builds the narrated video for the posts that fit in.Target and,
// when asked, publishes it.
func (u Usecase) Render(ctx context.Context, in RenderInput) (Result, error) {
	if u.d.Media == nil {
		return Result{}, errors.New("usecase: no media tool configured")
	}
	comp, err := u.composer(in.Policy)
	if err != nil {
		return Result{}, err
	}
	log := u.d.Logger

	script, err := comp.Resolve(ctx, timeline.BuildScript(in.Posts, in.Script))
	if err != nil {
		return Result{}, fmt.Errorf("synthesize narration: %w", err)
	}
	maxDur, err := comp.EstimateTotalDuration(ctx, script)
	if err != nil {
		return Result{}, err
	}
	log.Info("narration ready", "posts", len(script.Posts), "max_duration_sec", maxDur)

	target := in.Target
	sel, err := comp.SelectForDuration(ctx, script, target)
	if errors.Is(err, timeline.ErrEmptySelection) && in.Fallback > target {
		log.Warn("nothing fits target, retrying with fallback",
			"target_sec", target,
			"fallback_sec", in.Fallback,
		)
		target = in.Fallback
		sel, err = comp.SelectForDuration(ctx, script, target)
	}
	if err != nil {
		return Result{}, fmt.Errorf("select content for %.1fs: %w", target, err)
	}
	log.Info("content selected", "posts", len(sel.Script.Posts), "duration_sec", sel.Duration, "target_sec", target)

	layout, err := comp.Layout(ctx, sel.Script.Items())
	if err != nil {
		return Result{}, err
	}

	assPath, srtPath, err := writeSubtitles(in.OutDir, layout.Cues, in.Subtitles)
	if err != nil {
		return Result{}, err
	}

	final := filepath.Join(in.OutDir, "video.mp4")
	speed := in.Speed
	rendered := final
	if speed > 0 && speed != 1 {
		rendered = filepath.Join(in.OutDir, "video_raw.mp4")
	} else {
		speed = 1
	}
	bg, err := u.renderNarrated(ctx, layout, in.Background, assPath, in.OutDir, rendered)
	if err != nil {
		return Result{}, err
	}
	if rendered != final {
		log.Info("speeding up video", "factor", speed)
		if err := u.d.Media.SpeedUp(ctx, rendered, final, speed); err != nil {
			return Result{}, err
		}
	}

	m := types.Manifest{
		Input:          in.Source,
		Video:          relTo(in.OutDir, final),
		Subtitles:      relTo(in.OutDir, assPath),
		SubtitlesSRT:   relTo(in.OutDir, srtPath),
		Background:     bg,
		TargetSec:      target,
		MaxDurationSec: maxDur,
		DurationSec:    layout.Duration / speed,
		SpeedFactor:    speed,
		Posts:          manifestPosts(sel.Script),
	}

	if in.Publish {
		meta, id, err := u.publish(ctx, final, MetadataContent(sel.Script), in.Publishing)
		if err != nil {
			return Result{Manifest: m}, err
		}
		m.Metadata = &meta
		m.VideoID = id
	}
	return Result{Manifest: m}, nil
}

func (u Usecase) publish(ctx context.Context, video, content string, opts types.PublishOptions) (types.VideoMetadata, string, error) {
	if u.d.Metadata == nil || u.d.Publisher == nil {
		return types.VideoMetadata{}, "", errors.New("usecase: publishing is not configured")
	}
	meta, err := u.d.Metadata.GenerateMetadata(ctx, content)
	if err != nil {
		return types.VideoMetadata{}, "", fmt.Errorf("generate metadata: %w", err)
	}
	u.d.Logger.Info("metadata generated", "title", meta.Title, "tags", len(meta.Tags))
	id, err := u.d.Publisher.Upload(ctx, video, meta, opts)
	if err != nil {
		return meta, "", err
	}
	u.d.Logger.Info("video published", "video_id", id, "privacy", opts.Privacy)
	return meta, id, nil
}

// Publish uploads an already rendered video with the given metadata.
func (u Usecase) Publish(ctx context.Context, video string, meta types.VideoMetadata, opts types.PublishOptions) (string, error) {
	if u.d.Publisher == nil {
		return "", errors.New("usecase: publishing is not configured")
	}
	return u.d.Publisher.Upload(ctx, video, meta, opts)
}

// MetadataContent is the text the metadata writer sees for a selection:
// every title and comment body in timeline order.
func MetadataContent(s timeline.Script) string {
	var parts []string
	for _, p := range s.Posts {
		parts = append(parts, p.Title.Text)
		for _, c := range p.Comments {
			parts = append(parts, c.Narration.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func manifestPosts(s timeline.Script) []types.ManifestPost {
	out := make([]types.ManifestPost, 0, len(s.Posts))
	for _, p := range s.ForumPosts() {
		mp := types.ManifestPost{ID: p.ID, Title: p.Title, Comments: make([]string, 0, len(p.TopComments))}
		for _, c := range p.TopComments {
			mp.Comments = append(mp.Comments, c.ID)
		}
		out = append(out, mp)
	}
	return out
}
