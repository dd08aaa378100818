package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/forPelevin/reelforge/internal/types"
)

const (
	requestTimeout = 90 * time.Second
	defaultModel   = "z-ai/glm-4.5-air:free"

	maxContentRunes = 6000
)

type Adapter struct {
	key    string
	model  string
	client *openai.Client
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = defaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = apiBaseURL(baseURL)
	cfg.HTTPClient = &http.Client{Timeout: 5 * time.Minute}
	return &Adapter{key: apiKey, model: model, client: openai.NewClientWithConfig(cfg)}
}

// GenerateMetadata asks the model for a title, keywords, tags and a
// description. Unparseable replies fall back to metadata derived from the
// content itself; transport and API failures are returned.
func (a *Adapter) GenerateMetadata(ctx context.Context, content string) (types.VideoMetadata, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return types.VideoMetadata{}, errors.New("openrouter: empty video content")
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a helpful assistant that returns JSON responses."},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(truncate(content, maxContentRunes))},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		MaxTokens:      512,
		Temperature:    0.7,
	})
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return types.VideoMetadata{}, fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return types.VideoMetadata{}, fmt.Errorf("openrouter: %s", truncate(redactSecrets(err.Error(), a.key), 400))
	}
	if len(resp.Choices) == 0 {
		return FallbackMetadata(content), nil
	}
	meta, err := parseMetadata(resp.Choices[0].Message.Content)
	if err != nil {
		return FallbackMetadata(content), nil
	}
	return meta, nil
}

func buildPrompt(content string) string {
	return "You are a YouTube content optimization expert. Based on the following video content, " +
		"generate a proper video title, title keywords, additional keywords and a description. " +
		"Return strictly valid JSON (no markdown, no code fences) with the keys " +
		`"title" (a proper YouTube title under 100 characters), ` +
		`"title_keywords" (comma-separated string), ` +
		`"keywords" (comma-separated string for tags) and ` +
		`"description".` +
		"\n\nVideo content:\n" + content
}

// keywordList accepts either a comma-separated string or a JSON array.
type keywordList []string

func (k *keywordList) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*k = cleanKeywords(arr)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*k = cleanKeywords(strings.Split(s, ","))
	return nil
}

func parseMetadata(content string) (types.VideoMetadata, error) {
	clean, err := extractJSONObject(content)
	if err != nil {
		return types.VideoMetadata{}, err
	}
	var out struct {
		Title         string      `json:"title"`
		TitleKeywords keywordList `json:"title_keywords"`
		Keywords      keywordList `json:"keywords"`
		Tags          keywordList `json:"tags"`
		Description   string      `json:"description"`
	}
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return types.VideoMetadata{}, err
	}
	title := sanitizeYouTube(out.Title)
	if title == "" {
		return types.VideoMetadata{}, errors.New("openrouter: reply has no title")
	}
	tags := out.Keywords
	if len(tags) == 0 {
		tags = out.Tags
	}
	return types.VideoMetadata{
		Title:         truncate(title, maxTitleRunes),
		TitleKeywords: out.TitleKeywords,
		Tags:          limitTags(tags),
		Description:   truncate(sanitizeYouTube(out.Description), maxDescriptionRunes),
	}, nil
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("openrouter: empty content")
	}

	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}

	return "", fmt.Errorf("openrouter: could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
