package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"REDDIT_CLIENT_ID", "REDDIT_CLIENT_SECRET", "REDDIT_USER_AGENT",
	"REELFORGE_TTS_ENGINE", "KOKORO_BASE_URL", "KOKORO_API_KEY",
	"OPENROUTER_API_KEY", "OPENROUTER_MODEL", "OPENROUTER_BASE_URL", "OPENROUTER_ALLOWED_HOSTS",
	"YOUTUBE_CLIENT_SECRETS", "GCS_BUCKET",
	"REELFORGE_LOG_LEVEL", "REELFORGE_LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reelforge.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "AskReddit", cfg.Reddit.Subreddit)
	assert.Equal(t, "espeak", cfg.TTS.Engine)
	assert.Equal(t, "en-us", cfg.TTS.Voice)
	assert.InDelta(t, 1.0, cfg.Timeline.GapSeconds, 0)
	assert.Equal(t, 4, cfg.Timeline.ChunkWords)
	assert.False(t, cfg.Timeline.RefundUnusedTitle)
	assert.InDelta(t, 70.0, cfg.Timeline.FallbackSeconds, 0)
	assert.InDelta(t, 1.10, cfg.Render.SpeedFactor, 1e-9)
	assert.Equal(t, 120, cfg.Render.PartSeconds)
	assert.Equal(t, "24", cfg.YouTube.Category)
}

func TestLoad_SampleMatchesDefaults(t *testing.T) {
	clearEnv(t)
	fromSample, err := Load(writeConfig(t, SampleConfig()))
	require.NoError(t, err)
	fromDefaults, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, fromDefaults, fromSample)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("OPENROUTER_ALLOWED_HOSTS", " proxy.internal , ,other.example")
	t.Setenv("REELFORGE_TTS_ENGINE", "Kokoro")

	path := writeConfig(t, `
[reddit]
subreddit = "r/NoStupidQuestions"

[timeline]
target_seconds = 45
refund_unused_title = true

[youtube]
privacy = " Unlisted "
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "NoStupidQuestions", cfg.Reddit.Subreddit)
	assert.InDelta(t, 45.0, cfg.Timeline.TargetSeconds, 0)
	assert.True(t, cfg.Timeline.RefundUnusedTitle)
	assert.Equal(t, "unlisted", cfg.YouTube.Privacy)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, []string{"proxy.internal", "other.example"}, cfg.LLM.AllowedHosts)
	assert.Equal(t, "kokoro", cfg.TTS.Engine)
	assert.Equal(t, "af_bella", cfg.TTS.Voice)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "[timeline]\ntarget = 10\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"engine", func(c *Config) { c.TTS.Engine = "say" }, "tts.engine"},
		{"speed", func(c *Config) { c.TTS.Speed = 9 }, "tts.speed"},
		{"chunk words", func(c *Config) { c.Timeline.ChunkWords = 0 }, "timeline.chunk_words"},
		{"negative gap", func(c *Config) { c.Timeline.GapSeconds = -1 }, "timeline.gap_seconds"},
		{"target", func(c *Config) { c.Timeline.TargetSeconds = 0 }, "timeline.target_seconds"},
		{"speed factor", func(c *Config) { c.Render.SpeedFactor = 0 }, "render.speed_factor"},
		{"privacy", func(c *Config) { c.YouTube.Privacy = "friends" }, "youtube.privacy"},
		{"posts", func(c *Config) { c.Reddit.PostsLimit = 0 }, "reddit.posts_limit"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.normalize()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateFetchAndPublish(t *testing.T) {
	cfg := Default()
	cfg.normalize()
	assert.ErrorContains(t, cfg.ValidateFetch(), "REDDIT_CLIENT_ID")
	assert.ErrorContains(t, cfg.ValidatePublish(), "OPENROUTER_API_KEY is required")

	cfg.Reddit.ClientID, cfg.Reddit.ClientSecret = "id", "secret"
	cfg.LLM.APIKey = "key"
	assert.NoError(t, cfg.ValidateFetch())
	assert.NoError(t, cfg.ValidatePublish())
}

func TestSampleConfigIsValidTOML(t *testing.T) {
	var cfg Config
	require.NoError(t, toml.Unmarshal([]byte(SampleConfig()), &cfg))
	assert.Equal(t, "AskReddit", cfg.Reddit.Subreddit)
}
