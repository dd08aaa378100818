// Package config loads reelforge settings from an optional TOML file and the
// environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains local directories and files.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	OutDir        string `toml:"out_dir"`
	CacheDir      string `toml:"cache_dir"`
	BackgroundDir string `toml:"background_dir"`
	DBPath        string `toml:"db_path"`
}

// Reddit contains app credentials and curation thresholds.
type Reddit struct {
	ClientID        string `toml:"client_id"`
	ClientSecret    string `toml:"client_secret"`
	UserAgent       string `toml:"user_agent"`
	Subreddit       string `toml:"subreddit"`
	PostsLimit      int    `toml:"posts_limit"`
	MinPostScore    int    `toml:"min_post_score"`
	CommentsPerPost int    `toml:"comments_per_post"`
	MinCommentScore int    `toml:"min_comment_score"`
	WindowHours     int    `toml:"window_hours"`
	PauseMillis     int    `toml:"pause_ms"`
}

// TTS selects the speech engine and voice.
type TTS struct {
	Engine    string  `toml:"engine"` // espeak or kokoro
	Voice     string  `toml:"voice"`
	Lang      string  `toml:"lang"`
	Speed     float64 `toml:"speed"`
	BaseURL   string  `toml:"base_url"`
	APIKey    string  `toml:"api_key"`
	Model     string  `toml:"model"`
	EspeakBin string  `toml:"espeak_bin"`
}

// Timeline holds the composer policy and selection targets.
type Timeline struct {
	GapSeconds        float64 `toml:"gap_seconds"`
	ChunkWords        int     `toml:"chunk_words"`
	RefundUnusedTitle bool    `toml:"refund_unused_title"`
	TargetSeconds     float64 `toml:"target_seconds"`
	FallbackSeconds   float64 `toml:"fallback_seconds"`
	IntroText         string  `toml:"intro_text"`
	AuthorTag         string  `toml:"author_tag"`
}

// Render contains encoder settings.
type Render struct {
	FFmpegPath  string  `toml:"ffmpeg_path"`
	FFprobePath string  `toml:"ffprobe_path"`
	SpeedFactor float64 `toml:"speed_factor"`
	Karaoke     bool    `toml:"karaoke"`
	PartSeconds int     `toml:"part_seconds"`
}

// LLM contains the OpenRouter connection used for video metadata.
type LLM struct {
	APIKey       string   `toml:"api_key"`
	Model        string   `toml:"model"`
	BaseURL      string   `toml:"base_url"`
	AllowedHosts []string `toml:"allowed_hosts"`
}

// YouTube contains upload credentials and defaults.
type YouTube struct {
	ClientSecretsFile string `toml:"client_secrets_file"`
	TokenFile         string `toml:"token_file"`
	Category          string `toml:"category"`
	Privacy           string `toml:"privacy"`
}

// Storage contains object storage settings for the story pipeline.
type Storage struct {
	Bucket             string `toml:"bucket"`
	GoogleAccessID     string `toml:"google_access_id"`
	PrivateKeyFile     string `toml:"private_key_file"`
	SignedURLTTLMinute int    `toml:"signed_url_ttl_minutes"`
}

// Server contains HTTP bind settings.
type Server struct {
	Bind         string   `toml:"bind"`
	AllowOrigins []string `toml:"allow_origins"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for reelforge.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Reddit   Reddit   `toml:"reddit"`
	TTS      TTS      `toml:"tts"`
	Timeline Timeline `toml:"timeline"`
	Render   Render   `toml:"render"`
	LLM      LLM      `toml:"llm"`
	YouTube  YouTube  `toml:"youtube"`
	Storage  Storage  `toml:"storage"`
	Server   Server   `toml:"server"`
	Logging  Logging  `toml:"logging"`
}

// Load parses path when it exists, applies environment overrides and
// normalizes the result. A missing file is not an error. The returned config
// is not validated; commands validate the sections they use.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return &cfg, nil
}

// SampleConfig returns a commented config file with every default.
func SampleConfig() string {
	return sampleConfig
}
