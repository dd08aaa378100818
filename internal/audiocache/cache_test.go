package audiocache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/forPelevin/reelforge/internal/types"
)

type fakeTTS struct {
	calls int
	err   error
}

func (f *fakeTTS) Synthesize(_ context.Context, text string, _ types.Voice, outPath string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte(text), 0o644)
}

func (f *fakeTTS) Extension() string { return ".wav" }

// fakeProbe reports 100ms per byte of the file.
type fakeProbe struct{}

func (fakeProbe) ProbeDuration(_ context.Context, path string) (time.Duration, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return time.Duration(st.Size()) * 100 * time.Millisecond, nil
}

var testVoice = types.Voice{Engine: "espeak", Name: "en-us", Speed: 1}

func TestCache_MemoizesByText(t *testing.T) {
	t.Parallel()
	tts := &fakeTTS{}
	c := New(Options{Dir: t.TempDir(), Voice: testVoice, TTS: tts, Probe: fakeProbe{}, Backend: NewMemoryBackend()})

	a, err := c.Resolve(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a.Duration != 0.5 {
		t.Fatalf("duration=%v want 0.5", a.Duration)
	}
	b, err := c.Resolve(context.Background(), "  hello ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a != b {
		t.Fatalf("second resolve differs: %+v vs %+v", a, b)
	}
	if tts.calls != 1 {
		t.Fatalf("synth calls=%d want 1", tts.calls)
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Fatalf("stats hits=%d misses=%d", hits, misses)
	}
}

func TestKey_NormalizesUnicode(t *testing.T) {
	t.Parallel()
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	if Key(composed, testVoice) != Key(decomposed, testVoice) {
		t.Fatalf("NFC-equal strings got different keys")
	}
	other := testVoice
	other.Name = "en-gb"
	if Key(composed, testVoice) == Key(composed, other) {
		t.Fatalf("different voices share a key")
	}
	faster := testVoice
	faster.Speed = 1.2
	if Key(composed, testVoice) == Key(composed, faster) {
		t.Fatalf("different speeds share a key")
	}
}

func TestCache_DirBackendSurvivesRestart(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	first := &fakeTTS{}
	c1 := New(Options{Dir: dir, Voice: testVoice, TTS: first, Probe: fakeProbe{}})
	a, err := c1.Resolve(context.Background(), "persisted")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	second := &fakeTTS{}
	c2 := New(Options{Dir: dir, Voice: testVoice, TTS: second, Probe: fakeProbe{}})
	b, err := c2.Resolve(context.Background(), "persisted")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if second.calls != 0 {
		t.Fatalf("expected cache hit after restart, got %d synth calls", second.calls)
	}
	if a != b {
		t.Fatalf("audio differs after restart: %+v vs %+v", a, b)
	}
}

func TestCache_DirBackendMissWhenAudioDeleted(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tts := &fakeTTS{}
	c := New(Options{Dir: dir, Voice: testVoice, TTS: tts, Probe: fakeProbe{}})
	a, err := c.Resolve(context.Background(), "gone")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := os.Remove(a.Path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := c.Resolve(context.Background(), "gone"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tts.calls != 2 {
		t.Fatalf("synth calls=%d want 2", tts.calls)
	}
	if _, err := os.Stat(filepath.Join(dir, Key("gone", testVoice)+".json")); err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}
}

func TestCache_Errors(t *testing.T) {
	t.Parallel()
	tts := &fakeTTS{err: errors.New("engine down")}
	c := New(Options{Dir: t.TempDir(), Voice: testVoice, TTS: tts, Probe: fakeProbe{}, Backend: NewMemoryBackend()})

	if _, err := c.Resolve(context.Background(), "   "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("err=%v want ErrEmptyText", err)
	}
	_, err := c.Resolve(context.Background(), "text")
	if err == nil || !errors.Is(err, tts.err) {
		t.Fatalf("err=%v want wrapped synth error", err)
	}
}

func TestLock_ExcludesSecondHolder(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	unlock, err := Lock(context.Background(), dir)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()
	if _, err := Lock(ctx, dir); err == nil {
		t.Fatalf("expected second lock to fail while held")
	}

	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	unlock2, err := Lock(context.Background(), dir)
	if err != nil {
		t.Fatalf("Lock after unlock: %v", err)
	}
	_ = unlock2()
}
