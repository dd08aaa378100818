package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/forPelevin/reelforge/internal/domain/parts"
	"github.com/forPelevin/reelforge/internal/domain/subtitles"
	"github.com/forPelevin/reelforge/internal/domain/timeline"
	"github.com/forPelevin/reelforge/internal/types"
)

// ErrInvalidStory marks input the caller has to fix.
var ErrInvalidStory = errors.New("invalid story")

var ErrMissingStoryFields = fmt.Errorf("%w: title and content are required", ErrInvalidStory)

const (
	DefaultURLTTL   = time.Hour
	maxStoryContent = 20000
)

type StoryInput struct {
	RequestID  string
	Title      string
	Content    string
	Policy     timeline.Policy
	Background string
	// OutDir receives this request's files.
	OutDir     string
	Subtitles  subtitles.ASSOptions
	PartLength time.Duration
	URLTTL     time.Duration
}

type StoryResult struct {
	RequestID    string            `json:"request_id"`
	Title        string            `json:"title,omitempty"`
	Duration     float64           `json:"duration"`
	CreatedAt    time.Time         `json:"created_at"`
	FullVideoKey string            `json:"full_video_key"`
	FullVideoURL string            `json:"full_video_url"`
	Parts        []types.VideoPart `json:"parts"`
}

// Story narrates a title and its content over a background video, splits
// long results into parts, uploads every file and records the request.
// Without an object store the URLs are local paths; without a video store
// nothing is recorded.
func (u Usecase) Story(ctx context.Context, in StoryInput) (StoryResult, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" || in.Content == "" {
		return StoryResult{}, ErrMissingStoryFields
	}
	if len(in.Content) > maxStoryContent {
		return StoryResult{}, fmt.Errorf("%w: content longer than %d bytes", ErrInvalidStory, maxStoryContent)
	}
	if in.RequestID == "" {
		return StoryResult{}, errors.New("story: request id is required")
	}
	if u.d.Media == nil {
		return StoryResult{}, errors.New("usecase: no media tool configured")
	}
	comp, err := u.composer(in.Policy)
	if err != nil {
		return StoryResult{}, err
	}
	log := u.d.Logger.With("request_id", in.RequestID)

	layout, err := comp.Layout(ctx, timeline.StoryItems(in.Title, in.Content))
	if err != nil {
		return StoryResult{}, fmt.Errorf("synthesize story: %w", err)
	}
	assPath, _, err := writeSubtitles(in.OutDir, layout.Cues, in.Subtitles)
	if err != nil {
		return StoryResult{}, err
	}
	full := filepath.Join(in.OutDir, "full_video.mp4")
	if _, err := u.renderNarrated(ctx, layout, in.Background, assPath, in.OutDir, full); err != nil {
		return StoryResult{}, err
	}

	d, err := u.d.Media.ProbeDuration(ctx, full)
	if err != nil {
		return StoryResult{}, fmt.Errorf("probe story video: %w", err)
	}
	res := StoryResult{
		RequestID:    in.RequestID,
		Title:        in.Title,
		Duration:     d.Seconds(),
		CreatedAt:    u.d.Now().UTC(),
		FullVideoKey: storyKey(in.RequestID, filepath.Base(full)),
		Parts:        []types.VideoPart{},
	}
	if res.FullVideoURL, err = u.store(ctx, full, res.FullVideoKey, in.URLTTL); err != nil {
		return StoryResult{}, err
	}

	for _, seg := range parts.Plan(d, in.PartLength) {
		out := parts.FileName(full, seg)
		if err := u.d.Media.SplitVideo(ctx, full, seg.Start, seg.Length, out); err != nil {
			return StoryResult{}, err
		}
		p := types.VideoPart{Key: storyPartKey(in.RequestID, filepath.Base(out))}
		if p.URL, err = u.store(ctx, out, p.Key, in.URLTTL); err != nil {
			return StoryResult{}, err
		}
		res.Parts = append(res.Parts, p)
	}
	log.Info("story video ready", "duration_sec", res.Duration, "parts", len(res.Parts))

	if u.d.Videos != nil {
		err := u.d.Videos.SaveVideo(ctx, types.VideoRecord{
			RequestID:    res.RequestID,
			Title:        in.Title,
			Content:      in.Content,
			Duration:     res.Duration,
			CreatedAt:    res.CreatedAt,
			FullVideoKey: res.FullVideoKey,
			Parts:        res.Parts,
		})
		if err != nil {
			return StoryResult{}, fmt.Errorf("record video: %w", err)
		}
	}
	return res, nil
}

// GetVideo returns a recorded story with freshly signed URLs.
func (u Usecase) GetVideo(ctx context.Context, requestID string, ttl time.Duration) (StoryResult, error) {
	if u.d.Videos == nil {
		return StoryResult{}, errors.New("usecase: no video store configured")
	}
	rec, err := u.d.Videos.GetVideo(ctx, requestID)
	if err != nil {
		return StoryResult{}, err
	}
	res := StoryResult{
		RequestID:    rec.RequestID,
		Title:        rec.Title,
		Duration:     rec.Duration,
		CreatedAt:    rec.CreatedAt,
		FullVideoKey: rec.FullVideoKey,
		Parts:        make([]types.VideoPart, 0, len(rec.Parts)),
	}
	if u.d.Objects == nil {
		res.Parts = append(res.Parts, rec.Parts...)
		return res, nil
	}
	if res.FullVideoURL, err = u.d.Objects.SignedURL(ctx, rec.FullVideoKey, urlTTL(ttl)); err != nil {
		return StoryResult{}, err
	}
	for _, p := range rec.Parts {
		if p.URL, err = u.d.Objects.SignedURL(ctx, p.Key, urlTTL(ttl)); err != nil {
			return StoryResult{}, err
		}
		res.Parts = append(res.Parts, p)
	}
	return res, nil
}

// store uploads local under key and returns a signed URL, or the local path
// when no object store is configured.
func (u Usecase) store(ctx context.Context, local, key string, ttl time.Duration) (string, error) {
	if u.d.Objects == nil {
		return local, nil
	}
	if err := u.d.Objects.Upload(ctx, local, key); err != nil {
		return "", err
	}
	return u.d.Objects.SignedURL(ctx, key, urlTTL(ttl))
}

func urlTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultURLTTL
	}
	return ttl
}

func storyKey(requestID, name string) string {
	return path.Join("videos", requestID, name)
}

func storyPartKey(requestID, name string) string {
	return path.Join("videos", requestID, "parts", name)
}
