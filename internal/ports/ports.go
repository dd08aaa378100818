package ports

import (
	"context"
	"errors"
	"time"

	"github.com/forPelevin/reelforge/internal/types"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

type ContentSource interface {
	TopPosts(ctx context.Context, q types.ForumQuery) ([]types.Post, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice types.Voice, outPath string) error
	// Extension is the file extension of produced clips, with the dot.
	Extension() string
}

type MediaTool interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	MixNarration(ctx context.Context, placements []types.Placement, total time.Duration, outPath string) error
	RenderVideo(ctx context.Context, req types.RenderRequest) error
	SpeedUp(ctx context.Context, inPath, outPath string, factor float64) error
	SplitVideo(ctx context.Context, inPath string, start, length time.Duration, outPath string) error
}

type MetadataWriter interface {
	GenerateMetadata(ctx context.Context, content string) (types.VideoMetadata, error)
}

type Publisher interface {
	Upload(ctx context.Context, videoPath string, meta types.VideoMetadata, opts types.PublishOptions) (string, error)
}

type ObjectStore interface {
	Upload(ctx context.Context, localPath, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type VideoStore interface {
	SaveVideo(ctx context.Context, rec types.VideoRecord) error
	GetVideo(ctx context.Context, requestID string) (types.VideoRecord, error)
}
