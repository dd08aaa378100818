package espeak

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/forPelevin/reelforge/internal/types"
)

const baseWPM = 175

// Adapter speaks through the espeak-ng binary. It is the offline voice.
type Adapter struct {
	bin string
}

func New(binPath string) *Adapter {
	if binPath == "" {
		binPath = "espeak-ng"
	}
	return &Adapter{bin: binPath}
}

func (a *Adapter) Extension() string { return ".wav" }

func (a *Adapter) Synthesize(ctx context.Context, text string, voice types.Voice, outPath string) error {
	cmd := exec.CommandContext(ctx, a.bin, args(voice, outPath)...)
	cmd.Stdin = strings.NewReader(text)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("espeak-ng failed: %w\n%s", err, string(b))
	}
	return nil
}

func args(voice types.Voice, outPath string) []string {
	name := voice.Name
	if name == "" {
		name = voice.Lang
	}
	if name == "" {
		name = "en-us"
	}
	speed := voice.Speed
	if speed <= 0 {
		speed = 1
	}
	wpm := int(math.Round(baseWPM * speed))
	return []string{
		"-v", name,
		"-s", strconv.Itoa(wpm),
		"-w", outPath,
		"--stdin",
	}
}
