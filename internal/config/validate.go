package config

import (
	"errors"
	"fmt"
)

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateTimeline(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateReddit(); err != nil {
		return err
	}
	switch c.YouTube.Privacy {
	case "public", "private", "unlisted":
	default:
		return fmt.Errorf("youtube.privacy must be public, private or unlisted, got %q", c.YouTube.Privacy)
	}
	return nil
}

// ValidateFetch additionally requires Reddit credentials.
func (c *Config) ValidateFetch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Reddit.ClientID == "" || c.Reddit.ClientSecret == "" {
		return errors.New("reddit credentials are required (set REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET)")
	}
	return nil
}

// ValidatePublish additionally requires the LLM key and YouTube secrets.
func (c *Config) ValidatePublish() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.LLM.APIKey == "" {
		return errors.New("OPENROUTER_API_KEY is required (set it in .env)")
	}
	if c.YouTube.ClientSecretsFile == "" {
		return errors.New("youtube.client_secrets_file is required")
	}
	return nil
}

func (c *Config) validateTTS() error {
	switch c.TTS.Engine {
	case "espeak", "kokoro":
	default:
		return fmt.Errorf("tts.engine must be espeak or kokoro, got %q", c.TTS.Engine)
	}
	if c.TTS.Speed < 0.25 || c.TTS.Speed > 4 {
		return fmt.Errorf("tts.speed must be between 0.25 and 4, got %v", c.TTS.Speed)
	}
	return nil
}

func (c *Config) validateTimeline() error {
	t := c.Timeline
	if t.GapSeconds < 0 {
		return errors.New("timeline.gap_seconds must be >= 0")
	}
	if t.ChunkWords < 1 {
		return errors.New("timeline.chunk_words must be >= 1")
	}
	if t.TargetSeconds <= 0 {
		return errors.New("timeline.target_seconds must be > 0")
	}
	if t.FallbackSeconds < 0 {
		return errors.New("timeline.fallback_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.SpeedFactor <= 0 {
		return errors.New("render.speed_factor must be > 0")
	}
	if c.Render.PartSeconds <= 0 {
		return errors.New("render.part_seconds must be > 0")
	}
	return nil
}

func (c *Config) validateReddit() error {
	r := c.Reddit
	if r.PostsLimit < 1 {
		return errors.New("reddit.posts_limit must be >= 1")
	}
	if r.CommentsPerPost < 1 {
		return errors.New("reddit.comments_per_post must be >= 1")
	}
	if r.WindowHours < 1 {
		return errors.New("reddit.window_hours must be >= 1")
	}
	return nil
}
