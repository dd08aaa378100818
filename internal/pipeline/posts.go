package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/forPelevin/reelforge/internal/config"
	"github.com/forPelevin/reelforge/internal/logging"
	"github.com/forPelevin/reelforge/internal/types"
	"github.com/forPelevin/reelforge/internal/usecase"
)

const postsFilePrefix = "top_posts_comments_"

// Fetch pulls curated posts and writes them to a new file in the data dir.
func Fetch(ctx context.Context, app *config.Config, log *slog.Logger) (string, error) {
	log = logging.OrDiscard(log)
	if err := app.ValidateFetch(); err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	uc := usecase.New(usecase.Deps{Source: newSource(app, log), Logger: log})
	posts, err := uc.Fetch(ctx, forumQuery(app))
	if err != nil {
		return "", err
	}
	path, err := WritePosts(app.Paths.DataDir, posts, time.Now())
	if err != nil {
		return "", err
	}
	log.Info("posts saved", "path", path)
	return path, nil
}

// Estimate reports per-post and total narration length for a posts file,
// synthesizing whatever the cache does not hold yet.
func Estimate(ctx context.Context, app *config.Config, postsFile string, log *slog.Logger) (usecase.Estimate, string, error) {
	log = logging.OrDiscard(log)
	if err := app.Validate(); err != nil {
		return usecase.Estimate{}, "", fmt.Errorf("config: %w", err)
	}
	if postsFile == "" {
		var err error
		if postsFile, err = LatestPostsFile(app.Paths.DataDir); err != nil {
			return usecase.Estimate{}, "", err
		}
	}
	posts, err := ReadPosts(postsFile)
	if err != nil {
		return usecase.Estimate{}, "", err
	}
	media := newMedia(app)
	cache, unlock, err := openAudioCache(ctx, app, media, log)
	if err != nil {
		return usecase.Estimate{}, "", err
	}
	defer func() { _ = unlock() }()

	uc := usecase.New(usecase.Deps{Media: media, Resolver: cache, Logger: log})
	est, err := uc.Estimate(ctx, posts, scriptOptions(app), policy(app))
	return est, postsFile, err
}

func WritePosts(dir string, posts []types.Post, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, postsFilePrefix+now.Format("20060102_150405")+".json")
	if posts == nil {
		posts = []types.Post{}
	}
	if err := writeJSON(path, posts); err != nil {
		return "", err
	}
	return path, nil
}

func ReadPosts(path string) ([]types.Post, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var posts []types.Post
	if err := json.Unmarshal(b, &posts); err != nil {
		return nil, fmt.Errorf("decode posts %s: %w", filepath.Base(path), err)
	}
	return posts, nil
}

// LatestPostsFile returns the newest fetched posts file in dir. File names
// carry a sortable timestamp.
func LatestPostsFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("list posts: %w", err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasPrefix(n, postsFilePrefix) && strings.HasSuffix(n, ".json") {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no %s*.json files in %s (run `reelforge fetch` first)", postsFilePrefix, dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
