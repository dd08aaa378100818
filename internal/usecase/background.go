package usecase

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var videoExts = map[string]bool{".mp4": true, ".mkv": true, ".avi": true, ".mov": true}

// pickBackground returns path itself when it is a file, or a random video
// from it when it is a directory.
func pickBackground(path string, rng *rand.Rand) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("background: no video or directory given")
	}
	st, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("background: %w", err)
	}
	if !st.IsDir() {
		return path, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("background: %w", err)
	}
	var videos []string
	for _, e := range entries {
		if e.IsDir() || !videoExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		videos = append(videos, filepath.Join(path, e.Name()))
	}
	if len(videos) == 0 {
		return "", fmt.Errorf("background: no videos in %s", path)
	}
	sort.Strings(videos)
	return videos[rng.IntN(len(videos))], nil
}

// backgroundOffset picks a random start so [offset, offset+need) fits in a
// background of length have. Shorter backgrounds loop from the start.
func backgroundOffset(have, need time.Duration, rng *rand.Rand) time.Duration {
	slack := have - need
	if slack <= time.Second {
		return 0
	}
	return time.Duration(rng.Int64N(int64(slack/time.Second))) * time.Second
}
