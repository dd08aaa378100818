package config

import (
	"os"
	"strings"
)

func (c *Config) applyEnv() {
	setString(&c.Reddit.ClientID, "REDDIT_CLIENT_ID")
	setString(&c.Reddit.ClientSecret, "REDDIT_CLIENT_SECRET")
	setString(&c.Reddit.UserAgent, "REDDIT_USER_AGENT")
	setString(&c.TTS.Engine, "REELFORGE_TTS_ENGINE")
	setString(&c.TTS.BaseURL, "KOKORO_BASE_URL")
	setString(&c.TTS.APIKey, "KOKORO_API_KEY")
	setString(&c.LLM.APIKey, "OPENROUTER_API_KEY")
	setString(&c.LLM.Model, "OPENROUTER_MODEL")
	setString(&c.LLM.BaseURL, "OPENROUTER_BASE_URL")
	if v, ok := os.LookupEnv("OPENROUTER_ALLOWED_HOSTS"); ok {
		c.LLM.AllowedHosts = strings.Split(v, ",")
	}
	setString(&c.YouTube.ClientSecretsFile, "YOUTUBE_CLIENT_SECRETS")
	setString(&c.Storage.Bucket, "GCS_BUCKET")
	setString(&c.Logging.Level, "REELFORGE_LOG_LEVEL")
	setString(&c.Logging.Format, "REELFORGE_LOG_FORMAT")
}

// setString overrides dst with a non-empty environment value.
func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func (c *Config) normalize() {
	c.TTS.Engine = strings.ToLower(strings.TrimSpace(c.TTS.Engine))
	if c.TTS.Voice == "" {
		if c.TTS.Engine == "kokoro" {
			c.TTS.Voice = defaultKokoroVoice
		} else {
			c.TTS.Voice = defaultEspeakVoice
		}
	}
	if c.TTS.Speed <= 0 {
		c.TTS.Speed = 1.0
	}

	c.Reddit.Subreddit = strings.TrimPrefix(strings.TrimSpace(c.Reddit.Subreddit), "r/")
	if c.Reddit.Subreddit == "" {
		c.Reddit.Subreddit = defaultSubreddit
	}

	hosts := c.LLM.AllowedHosts[:0:0]
	for _, h := range c.LLM.AllowedHosts {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	c.LLM.AllowedHosts = hosts

	c.YouTube.Privacy = strings.ToLower(strings.TrimSpace(c.YouTube.Privacy))
	if c.YouTube.Category == "" {
		c.YouTube.Category = defaultYouTubeCategory
	}
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}
