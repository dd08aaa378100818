package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/forPelevin/reelforge/internal/config"
	"github.com/forPelevin/reelforge/internal/domain/subtitles"
	"github.com/forPelevin/reelforge/internal/domain/timeline"
	"github.com/forPelevin/reelforge/internal/metastore"
	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/ports/adapters/espeak"
	"github.com/forPelevin/reelforge/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/reelforge/internal/ports/adapters/gcs"
	"github.com/forPelevin/reelforge/internal/ports/adapters/kokoro"
	"github.com/forPelevin/reelforge/internal/ports/adapters/openrouter"
	"github.com/forPelevin/reelforge/internal/ports/adapters/reddit"
	"github.com/forPelevin/reelforge/internal/ports/adapters/youtube"
	"github.com/forPelevin/reelforge/internal/types"
)

func newMedia(app *config.Config) *ffmpeg.Adapter {
	return ffmpeg.New(app.Render.FFmpegPath, app.Render.FFprobePath)
}

func newSynthesizer(app *config.Config) (ports.Synthesizer, types.Voice) {
	voice := types.Voice{
		Engine: app.TTS.Engine,
		Name:   app.TTS.Voice,
		Lang:   app.TTS.Lang,
		Speed:  app.TTS.Speed,
	}
	if app.TTS.Engine == "kokoro" {
		return kokoro.New(app.TTS.BaseURL, app.TTS.APIKey, app.TTS.Model), voice
	}
	return espeak.New(app.TTS.EspeakBin), voice
}

func newSource(app *config.Config, log *slog.Logger) *reddit.Adapter {
	pause := time.Duration(app.Reddit.PauseMillis) * time.Millisecond
	if pause == 0 {
		pause = -1
	}
	return reddit.New(reddit.Options{
		ClientID:     app.Reddit.ClientID,
		ClientSecret: app.Reddit.ClientSecret,
		UserAgent:    app.Reddit.UserAgent,
		Pause:        pause,
		Logger:       log,
	})
}

func newMetadataWriter(app *config.Config) *openrouter.Adapter {
	return openrouter.New(app.LLM.APIKey, app.LLM.Model, app.LLM.BaseURL)
}

func newPublisher(ctx context.Context, app *config.Config, log *slog.Logger) (*youtube.Adapter, error) {
	return youtube.New(ctx, youtube.Options{
		ClientSecretsFile: app.YouTube.ClientSecretsFile,
		TokenFile:         app.YouTube.TokenFile,
		Prompt:            os.Stderr,
		Input:             os.Stdin,
		Logger:            log,
	})
}

// newObjectStore returns nil when no bucket is configured.
func newObjectStore(ctx context.Context, app *config.Config) (*gcs.Adapter, error) {
	if app.Storage.Bucket == "" {
		return nil, nil
	}
	opts := gcs.Options{
		Bucket:         app.Storage.Bucket,
		GoogleAccessID: app.Storage.GoogleAccessID,
	}
	if app.Storage.PrivateKeyFile != "" {
		key, err := os.ReadFile(app.Storage.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read signing key: %w", err)
		}
		opts.PrivateKey = key
	}
	return gcs.New(ctx, opts)
}

func openVideoStore(app *config.Config) (*metastore.Store, error) {
	return metastore.Open(app.Paths.DBPath)
}

func policy(app *config.Config) timeline.Policy {
	return timeline.Policy{
		Gap:                       app.Timeline.GapSeconds,
		ChunkWords:                app.Timeline.ChunkWords,
		RefundUnusedTitleDuration: app.Timeline.RefundUnusedTitle,
	}
}

func scriptOptions(app *config.Config) timeline.ScriptOptions {
	return timeline.ScriptOptions{
		IntroText: app.Timeline.IntroText,
		AuthorTag: app.Timeline.AuthorTag,
	}
}

func assOptions(app *config.Config) subtitles.ASSOptions {
	return subtitles.ASSOptions{Karaoke: app.Render.Karaoke}
}

func forumQuery(app *config.Config) types.ForumQuery {
	return types.ForumQuery{
		Subreddit:       app.Reddit.Subreddit,
		PostsLimit:      app.Reddit.PostsLimit,
		MinPostScore:    app.Reddit.MinPostScore,
		CommentsPerPost: app.Reddit.CommentsPerPost,
		MinCommentScore: app.Reddit.MinCommentScore,
		Window:          time.Duration(app.Reddit.WindowHours) * time.Hour,
	}
}

// ensure adapters implement ports
var (
	_ ports.ContentSource  = (*reddit.Adapter)(nil)
	_ ports.Synthesizer    = (*espeak.Adapter)(nil)
	_ ports.Synthesizer    = (*kokoro.Adapter)(nil)
	_ ports.MediaTool      = (*ffmpeg.Adapter)(nil)
	_ ports.MetadataWriter = (*openrouter.Adapter)(nil)
	_ ports.Publisher      = (*youtube.Adapter)(nil)
	_ ports.ObjectStore    = (*gcs.Adapter)(nil)
	_ ports.VideoStore     = (*metastore.Store)(nil)
)
