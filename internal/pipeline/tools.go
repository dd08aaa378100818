package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/forPelevin/reelforge/internal/config"
	"github.com/forPelevin/reelforge/internal/domain/parts"
	"github.com/forPelevin/reelforge/internal/logging"
	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/ports/adapters/openrouter"
	"github.com/forPelevin/reelforge/internal/ports/adapters/youtube"
	"github.com/forPelevin/reelforge/internal/types"
	"github.com/forPelevin/reelforge/internal/usecase"
)

func SpeedUp(ctx context.Context, app *config.Config, in, out string, factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("factor must be > 0")
	}
	if _, err := os.Stat(in); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	return newMedia(app).SpeedUp(ctx, in, out, factor)
}

// Split cuts in into consecutive parts of at most length, next to the
// input. Videos that already fit return no parts.
func Split(ctx context.Context, app *config.Config, in string, length time.Duration) ([]string, error) {
	if _, err := os.Stat(in); err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	return split(ctx, newMedia(app), in, length)
}

func split(ctx context.Context, media ports.MediaTool, in string, length time.Duration) ([]string, error) {
	total, err := media.ProbeDuration(ctx, in)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, seg := range parts.Plan(total, length) {
		p := parts.FileName(in, seg)
		if err := media.SplitVideo(ctx, in, seg.Start, seg.Length, p); err != nil {
			return out, err
		}
		out = append(out, p)
	}
	return out, nil
}

type PublishInput struct {
	Video string
	Meta  types.VideoMetadata
	// Content, when set and Meta has no title, is sent to the LLM to
	// generate the metadata.
	Content  string
	Category string
	Privacy  string
}

func Publish(ctx context.Context, app *config.Config, in PublishInput, log *slog.Logger) (string, types.VideoMetadata, error) {
	log = logging.OrDiscard(log)
	if _, err := os.Stat(in.Video); err != nil {
		return "", types.VideoMetadata{}, fmt.Errorf("stat video: %w", err)
	}
	if _, err := youtube.ValidatePrivacy(in.Privacy); err != nil {
		return "", types.VideoMetadata{}, err
	}
	meta := in.Meta
	if strings.TrimSpace(meta.Title) == "" {
		if strings.TrimSpace(in.Content) == "" {
			return "", meta, errors.New("a title or content to generate one from is required")
		}
		if err := app.ValidatePublish(); err != nil {
			return "", meta, fmt.Errorf("config: %w", err)
		}
		if err := openrouter.ValidateBaseURL(app.LLM.BaseURL, app.LLM.AllowedHosts); err != nil {
			return "", meta, err
		}
		var err error
		if meta, err = newMetadataWriter(app).GenerateMetadata(ctx, in.Content); err != nil {
			return "", meta, err
		}
	}

	pub, err := newPublisher(ctx, app, log)
	if err != nil {
		return "", meta, err
	}
	uc := usecase.New(usecase.Deps{Publisher: pub, Logger: log})
	id, err := uc.Publish(ctx, in.Video, meta, types.PublishOptions{Category: in.Category, Privacy: in.Privacy})
	return id, meta, err
}
