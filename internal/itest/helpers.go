//go:build integration

package itest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

type probeResult struct {
	Duration float64
	Width    int
	Height   int
}

// probeVideo reads the container duration and the first video stream size.
func probeVideo(path string) (probeResult, error) {
	b, err := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:format=duration",
		"-of", "json",
		path,
	).CombinedOutput()
	if err != nil {
		return probeResult{}, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	var raw struct {
		Streams []struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return probeResult{}, fmt.Errorf("decode ffprobe output: %w", err)
	}
	sec, err := strconv.ParseFloat(raw.Format.Duration, 64)
	if err != nil {
		return probeResult{}, fmt.Errorf("parse duration %q: %w", raw.Format.Duration, err)
	}
	res := probeResult{Duration: sec}
	if len(raw.Streams) > 0 {
		res.Width, res.Height = raw.Streams[0].Width, raw.Streams[0].Height
	}
	return res, nil
}

// findRepoRoot walks up from the working directory to the checkout root.
func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(wd, "cmd", "reelforge", "main.go")); err == nil {
			return wd, nil
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return "", errors.New("could not locate repo root")
		}
		wd = parent
	}
}
