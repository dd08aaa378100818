package audiocache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/types"
)

var ErrEmptyText = errors.New("audiocache: empty text")

// Prober measures the length of an audio file.
type Prober interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

type Options struct {
	Dir     string
	Voice   types.Voice
	TTS     ports.Synthesizer
	Probe   Prober
	Backend Backend
	Logger  *slog.Logger
}

// Cache synthesizes each distinct (text, voice) pair once. It implements
// timeline.Resolver.
type Cache struct {
	dir     string
	voice   types.Voice
	tts     ports.Synthesizer
	probe   Prober
	backend Backend
	log     *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

func New(opts Options) *Cache {
	b := opts.Backend
	if b == nil {
		b = NewDirBackend(opts.Dir)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		dir:     opts.Dir,
		voice:   opts.Voice,
		tts:     opts.TTS,
		probe:   opts.Probe,
		backend: b,
		log:     log,
	}
}

// Key is the content address of text spoken by voice. Text is trimmed and
// NFC-normalized first, so canonically equal strings share a clip.
func Key(text string, v types.Voice) string {
	h := sha256.New()
	h.Write([]byte(norm.NFC.String(strings.TrimSpace(text))))
	h.Write([]byte{0})
	h.Write([]byte(voiceID(v)))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func voiceID(v types.Voice) string {
	return strings.Join([]string{
		v.Engine,
		v.Name,
		v.Lang,
		strconv.FormatFloat(v.Speed, 'f', 3, 64),
	}, "|")
}

func (c *Cache) Resolve(ctx context.Context, text string) (types.Audio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Audio{}, ErrEmptyText
	}
	key := Key(text, c.voice)

	e, ok, err := c.backend.Get(key)
	if err != nil {
		return types.Audio{}, err
	}
	if ok {
		c.hits.Add(1)
		return types.Audio{Path: e.Path, Duration: e.Duration}, nil
	}
	c.misses.Add(1)

	if c.tts == nil || c.probe == nil {
		return types.Audio{}, errors.New("audiocache: synthesizer and prober are required on a miss")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return types.Audio{}, err
	}
	out := filepath.Join(c.dir, key+c.tts.Extension())
	c.log.Debug("synthesizing", "key", key, "chars", len([]rune(text)))
	if err := c.tts.Synthesize(ctx, text, c.voice, out); err != nil {
		return types.Audio{}, fmt.Errorf("synthesize: %w", err)
	}
	d, err := c.probe.ProbeDuration(ctx, out)
	if err != nil {
		return types.Audio{}, err
	}

	e = Entry{
		Path:      out,
		Duration:  d.Seconds(),
		Text:      text,
		Voice:     voiceID(c.voice),
		CreatedAt: time.Now().UTC(),
	}
	if err := c.backend.Put(key, e); err != nil {
		return types.Audio{}, fmt.Errorf("store cache entry: %w", err)
	}
	return types.Audio{Path: e.Path, Duration: e.Duration}, nil
}

// Stats reports cache hits and misses since New.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
