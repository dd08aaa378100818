package kokoro

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/forPelevin/reelforge/internal/types"
)

const (
	DefaultBaseURL = "http://localhost:8880/v1"
	DefaultVoice   = "af_bella"
	DefaultModel   = "kokoro"

	requestTimeout = 2 * time.Minute
)

// Adapter talks to a Kokoro server through its OpenAI-compatible speech
// endpoint.
type Adapter struct {
	client *openai.Client
	model  string
}

func New(baseURL, apiKey, model string) *Adapter {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	return &Adapter{client: openai.NewClientWithConfig(cfg), model: model}
}

func (a *Adapter) Extension() string { return ".wav" }

func (a *Adapter) Synthesize(ctx context.Context, text string, voice types.Voice, outPath string) error {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := a.client.CreateSpeech(reqCtx, speechRequest(a.model, text, voice))
	if err != nil {
		return fmt.Errorf("kokoro speech: %w", err)
	}
	defer resp.Close()

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp); err != nil {
		_ = f.Close()
		_ = os.Remove(outPath)
		return fmt.Errorf("kokoro read audio: %w", err)
	}
	return f.Close()
}

func speechRequest(model, text string, voice types.Voice) openai.CreateSpeechRequest {
	name := voice.Name
	if name == "" {
		name = DefaultVoice
	}
	speed := voice.Speed
	if speed <= 0 {
		speed = 1
	}
	return openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(model),
		Input:          text,
		Voice:          openai.SpeechVoice(name),
		ResponseFormat: openai.SpeechResponseFormatWav,
		Speed:          speed,
	}
}
