package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/reelforge/internal/types"
)

const (
	Width  = 1080
	Height = 1920

	sampleRate = "44100"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// MixNarration places each clip at its start offset on one stereo track of
// length total.
func (a *Adapter) MixNarration(ctx context.Context, placements []types.Placement, total time.Duration, outPath string) error {
	if total <= 0 {
		return errors.New("ffmpeg mix: total duration must be > 0")
	}
	args := mixArgs(placements, total, outPath)
	b, err := exec.CommandContext(ctx, a.ffmpeg, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg mix narration: %w\n%s", err, string(b))
	}
	return nil
}

func mixArgs(placements []types.Placement, total time.Duration, outPath string) []string {
	args := []string{"-y"}
	if len(placements) == 0 {
		return append(args,
			"-f", "lavfi",
			"-i", "anullsrc=r="+sampleRate+":cl=stereo",
			"-t", fmtSeconds(total),
			outPath,
		)
	}
	for _, p := range placements {
		args = append(args, "-i", p.Path)
	}
	args = append(args,
		"-filter_complex", mixFilter(placements, total),
		"-map", "[mix]",
		"-ac", "2",
		"-ar", sampleRate,
		"-t", fmtSeconds(total),
		outPath,
	)
	return args
}

func mixFilter(placements []types.Placement, total time.Duration) string {
	var b strings.Builder
	labels := make([]string, 0, len(placements))
	for i, p := range placements {
		ms := int64(p.Start*1000 + 0.5)
		if ms < 0 {
			ms = 0
		}
		label := fmt.Sprintf("[a%d]", i)
		fmt.Fprintf(&b, "[%d:a]aresample=%s,adelay=%d:all=1%s;", i, sampleRate, ms, label)
		labels = append(labels, label)
	}
	b.WriteString(strings.Join(labels, ""))
	fmt.Fprintf(&b, "amix=inputs=%d:normalize=0:dropout_transition=0,apad,atrim=0:%s[mix]", len(placements), fmtSeconds(total))
	return b.String()
}

// RenderVideo loops the background from its offset under the narration and
// burns the subtitle file in, cropped to a portrait frame.
func (a *Adapter) RenderVideo(ctx context.Context, req types.RenderRequest) error {
	if req.Duration <= 0 {
		return errors.New("ffmpeg render: duration must be > 0")
	}
	b, err := exec.CommandContext(ctx, a.ffmpeg, renderArgs(req)...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render video: %w\n%s", err, string(b))
	}
	return nil
}

func renderArgs(req types.RenderRequest) []string {
	vf := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", Width, Height, Width, Height)
	if req.Subtitles != "" {
		vf += ",ass=" + escapeFilterPath(req.Subtitles)
	}
	args := []string{
		"-y",
		"-stream_loop", "-1",
	}
	if req.BackgroundOffset > 0 {
		args = append(args, "-ss", fmtSeconds(req.BackgroundOffset))
	}
	return append(args,
		"-i", req.Background,
		"-i", req.Audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-vf", vf,
		"-t", fmtSeconds(req.Duration),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "20",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		req.Output,
	)
}

// SpeedUp changes playback speed of video and audio together.
func (a *Adapter) SpeedUp(ctx context.Context, inPath, outPath string, factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("ffmpeg speed up: factor must be > 0, got %v", factor)
	}
	filter := fmt.Sprintf("[0:v]setpts=PTS/%s[v];[0:a]%s[a]", fmtFactor(factor), atempoChain(factor))
	b, err := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inPath,
		"-filter_complex", filter,
		"-map", "[v]",
		"-map", "[a]",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "20",
		"-c:a", "aac",
		"-b:a", "192k",
		outPath,
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg speed up: %w\n%s", err, string(b))
	}
	return nil
}

// atempoChain splits factor into atempo stages within the filter's
// supported 0.5..2.0 range.
func atempoChain(factor float64) string {
	var stages []string
	for factor > 2.0 {
		stages = append(stages, "atempo=2.0")
		factor /= 2.0
	}
	for factor < 0.5 {
		stages = append(stages, "atempo=0.5")
		factor /= 0.5
	}
	stages = append(stages, "atempo="+fmtFactor(factor))
	return strings.Join(stages, ",")
}

// SplitVideo copies [start, start+length) of inPath without re-encoding.
func (a *Adapter) SplitVideo(ctx context.Context, inPath string, start, length time.Duration, outPath string) error {
	b, err := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-ss", fmtSeconds(start),
		"-i", inPath,
		"-t", fmtSeconds(length),
		"-c:v", "copy",
		"-c:a", "copy",
		outPath,
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg split: %w\n%s", err, string(b))
	}
	return nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func fmtFactor(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	p = strings.ReplaceAll(p, ",", "\\,")
	return p
}
