package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/forPelevin/reelforge/internal/types"
)

const (
	DefaultCategory = "24"
	DefaultPrivacy  = "public"
	maxRetries      = 10
)

var validPrivacy = map[string]struct{}{
	"public":   {},
	"private":  {},
	"unlisted": {},
}

type Options struct {
	ClientSecretsFile string
	TokenFile         string
	// Prompt and Input drive the one-time authorization when no token is
	// saved.
	Prompt io.Writer
	Input  io.Reader
	// HTTPClient skips OAuth entirely when set.
	HTTPClient *http.Client
	Endpoint   string
	Logger     *slog.Logger
}

type Adapter struct {
	svc        *yt.Service
	log        *slog.Logger
	newBackOff func() backoff.BackOff
}

func New(ctx context.Context, opts Options) (*Adapter, error) {
	client := opts.HTTPClient
	if client == nil {
		var err error
		client, err = authorizedClient(ctx, opts.ClientSecretsFile, opts.TokenFile, opts.Prompt, opts.Input)
		if err != nil {
			return nil, err
		}
	}
	clientOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	svc, err := yt.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Adapter{svc: svc, log: log, newBackOff: uploadBackOff}, nil
}

// uploadBackOff waits about 1s, 2s, 4s... between attempts, capped at 64s.
func uploadBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxInterval = 64 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// ValidatePrivacy accepts public, private and unlisted. Empty means public.
func ValidatePrivacy(p string) (string, error) {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return DefaultPrivacy, nil
	}
	if _, ok := validPrivacy[p]; !ok {
		return "", fmt.Errorf("invalid privacy status %q (want public, private or unlisted)", p)
	}
	return p, nil
}

// Upload inserts the video and returns its id. Server errors and dropped
// connections are retried with randomized exponential backoff.
func (a *Adapter) Upload(ctx context.Context, videoPath string, meta types.VideoMetadata, opts types.PublishOptions) (string, error) {
	privacy, err := ValidatePrivacy(opts.Privacy)
	if err != nil {
		return "", err
	}
	category := strings.TrimSpace(opts.Category)
	if category == "" {
		category = DefaultCategory
	}
	video := &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  category,
		},
		Status: &yt.VideoStatus{PrivacyStatus: privacy},
	}

	var id string
	attempt := 0
	upload := func() error {
		attempt++
		var err error
		id, err = a.insert(ctx, videoPath, video)
		if err != nil && !retriable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(a.newBackOff(), maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		a.log.Warn("youtube upload failed, retrying", "attempt", attempt, "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(upload, policy, notify); err != nil {
		return "", fmt.Errorf("youtube upload after %d attempt(s): %w", attempt, err)
	}
	a.log.Info("youtube upload complete", "video_id", id, "privacy", privacy)
	return id, nil
}

func (a *Adapter) insert(ctx context.Context, videoPath string, video *yt.Video) (string, error) {
	f, err := os.Open(videoPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	resp, err := a.svc.Videos.Insert([]string{"snippet", "status"}, video).Media(f).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Id == "" {
		return "", errors.New("response has no video id")
	}
	return resp.Id, nil
}

func retriable(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr)
}
