package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/reelforge/internal/audiocache"
	"github.com/forPelevin/reelforge/internal/config"
	"github.com/forPelevin/reelforge/internal/logging"
	"github.com/forPelevin/reelforge/internal/ports/adapters/openrouter"
	"github.com/forPelevin/reelforge/internal/ports/adapters/youtube"
	"github.com/forPelevin/reelforge/internal/types"
	"github.com/forPelevin/reelforge/internal/usecase"
)

type RenderConfig struct {
	App *config.Config

	// PostsFile is the fetched posts JSON; empty picks the newest file in
	// the data dir.
	PostsFile  string
	Target     float64
	Speed      float64
	Background string

	Publish  bool
	Privacy  string
	Category string

	Logger *slog.Logger
}

func (c RenderConfig) Validate() error {
	if c.App == nil {
		return errors.New("config is missing")
	}
	if err := c.App.Validate(); err != nil {
		return err
	}
	if c.PostsFile != "" {
		if _, err := os.Stat(c.PostsFile); err != nil {
			return fmt.Errorf("stat posts: %w", err)
		}
	}
	if c.Target <= 0 {
		return fmt.Errorf("target must be > 0")
	}
	if c.Speed <= 0 {
		return fmt.Errorf("speed must be > 0")
	}
	if !c.Publish {
		return nil
	}
	if err := c.App.ValidatePublish(); err != nil {
		return err
	}
	if _, err := youtube.ValidatePrivacy(c.Privacy); err != nil {
		return err
	}
	return openrouter.ValidateBaseURL(
		c.App.LLM.BaseURL,
		c.App.LLM.AllowedHosts,
	)
}

// Render runs the forum pipeline and writes manifest.json into a fresh run
// directory under the configured output dir.
func Render(ctx context.Context, cfg RenderConfig) (types.Manifest, error) {
	app := cfg.App
	log := logging.OrDiscard(cfg.Logger)

	postsFile := cfg.PostsFile
	if postsFile == "" {
		var err error
		if postsFile, err = LatestPostsFile(app.Paths.DataDir); err != nil {
			return types.Manifest{}, err
		}
	}
	posts, err := ReadPosts(postsFile)
	if err != nil {
		return types.Manifest{}, err
	}
	log.Info("posts loaded", "file", postsFile, "posts", len(posts))

	media := newMedia(app)
	cache, unlock, err := openAudioCache(ctx, app, media, log)
	if err != nil {
		return types.Manifest{}, err
	}
	defer func() { _ = unlock() }()

	deps := usecase.Deps{
		Media:    media,
		Resolver: cache,
		Logger:   log,
	}
	if cfg.Publish {
		deps.Metadata = newMetadataWriter(app)
		if deps.Publisher, err = newPublisher(ctx, app, log); err != nil {
			return types.Manifest{}, err
		}
	}
	uc := usecase.New(deps)

	runOutDir := buildRunOutDir(app.Paths.OutDir, postsFile, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return types.Manifest{}, err
	}
	log.Info("output run dir", "dir", runOutDir)

	background := cfg.Background
	if background == "" {
		background = app.Paths.BackgroundDir
	}
	res, err := uc.Render(ctx, usecase.RenderInput{
		Source:     postsFile,
		Posts:      posts,
		Script:     scriptOptions(app),
		Policy:     policy(app),
		Target:     cfg.Target,
		Fallback:   app.Timeline.FallbackSeconds,
		Speed:      cfg.Speed,
		Background: background,
		OutDir:     runOutDir,
		Subtitles:  assOptions(app),
		Publish:    cfg.Publish,
		Publishing: types.PublishOptions{Category: cfg.Category, Privacy: cfg.Privacy},
	})
	hits, misses := cache.Stats()
	log.Info("audio cache", "hits", hits, "misses", misses)
	if err != nil {
		// publish failures happen after the video exists
		if res.Manifest.Video != "" {
			_ = writeJSON(filepath.Join(runOutDir, "manifest.json"), res.Manifest)
		}
		return res.Manifest, err
	}

	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := writeJSON(manifestPath, res.Manifest); err != nil {
		return res.Manifest, err
	}
	log.Info("manifest written",
		"posts", len(res.Manifest.Posts),
		"duration_sec", res.Manifest.DurationSec,
		"path", manifestPath,
	)
	return res.Manifest, nil
}

// openAudioCache locks the cache dir for this process and returns the
// cache with its unlock func.
func openAudioCache(ctx context.Context, app *config.Config, probe audiocache.Prober, log *slog.Logger) (*audiocache.Cache, func() error, error) {
	dir := filepath.Join(app.Paths.CacheDir, "audio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	unlock, err := audiocache.Lock(ctx, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("lock audio cache: %w", err)
	}
	tts, voice := newSynthesizer(app)
	log.Info("audio cache", "dir", dir, "engine", voice.Engine, "voice", voice.Name)
	return audiocache.New(audiocache.Options{
		Dir:    dir,
		Voice:  voice,
		TTS:    tts,
		Probe:  probe,
		Logger: log,
	}), unlock, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, b, 0o644)
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "run"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
