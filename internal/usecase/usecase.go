package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forPelevin/reelforge/internal/domain/subtitles"
	"github.com/forPelevin/reelforge/internal/domain/timeline"
	"github.com/forPelevin/reelforge/internal/logging"
	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/types"
)

// Deps are the collaborators of every flow. Only the ones a flow touches
// need to be set: render needs Media and Resolver, publishing adds Metadata
// and Publisher, the story flow optionally uses Objects and Videos.
type Deps struct {
	Source    ports.ContentSource
	Media     ports.MediaTool
	Resolver  timeline.Resolver
	Metadata  ports.MetadataWriter
	Publisher ports.Publisher
	Objects   ports.ObjectStore
	Videos    ports.VideoStore
	Logger    *slog.Logger

	// Rand picks backgrounds and background offsets.
	Rand *rand.Rand
	Now  func() time.Time
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	d.Logger = logging.OrDiscard(d.Logger)
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return Usecase{d: d}
}

func (u Usecase) composer(p timeline.Policy) (*timeline.Composer, error) {
	if u.d.Resolver == nil {
		return nil, errors.New("usecase: no audio resolver configured")
	}
	return timeline.New(p, u.d.Resolver), nil
}

// writeSubtitles writes the ASS file that ffmpeg burns in and an SRT copy
// of the same cues.
func writeSubtitles(dir string, cues []types.Cue, opts subtitles.ASSOptions) (assPath, srtPath string, err error) {
	assPath = filepath.Join(dir, "subtitles.ass")
	srtPath = filepath.Join(dir, "subtitles.srt")
	if err := writeFile(assPath, []byte(subtitles.RenderASS(cues, opts))); err != nil {
		return "", "", err
	}
	if err := writeFile(srtPath, []byte(subtitles.FormatSRT(cues))); err != nil {
		return "", "", err
	}
	return assPath, srtPath, nil
}

// renderNarrated mixes the layout's audio, picks a background and renders
// the captioned video to out.
func (u Usecase) renderNarrated(ctx context.Context, l timeline.Layout, background, assPath, dir, out string) (string, error) {
	total := seconds(l.Duration)
	mix := filepath.Join(dir, "narration.wav")
	if err := u.d.Media.MixNarration(ctx, l.Placements, total, mix); err != nil {
		return "", err
	}

	bg, err := pickBackground(background, u.d.Rand)
	if err != nil {
		return "", err
	}
	bgLen, err := u.d.Media.ProbeDuration(ctx, bg)
	if err != nil {
		return "", fmt.Errorf("probe background: %w", err)
	}
	offset := backgroundOffset(bgLen, total, u.d.Rand)
	u.d.Logger.Info("rendering video",
		"background", bg,
		"background_offset", offset.String(),
		"duration_sec", l.Duration,
		"cues", len(l.Cues),
	)

	err = u.d.Media.RenderVideo(ctx, types.RenderRequest{
		Background:       bg,
		BackgroundOffset: offset,
		Audio:            mix,
		Subtitles:        assPath,
		Duration:         total,
		Output:           out,
	})
	if err != nil {
		return "", err
	}
	return bg, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func relTo(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
