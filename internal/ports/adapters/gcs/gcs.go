package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const DefaultURLTTL = time.Hour

type Options struct {
	Bucket string
	// GoogleAccessID and PrivateKey sign URLs locally. When empty the client
	// credentials sign them.
	GoogleAccessID string
	PrivateKey     []byte
	ClientOptions  []option.ClientOption
}

type Adapter struct {
	client *storage.Client
	bucket *storage.BucketHandle
	opts   Options
}

func New(ctx context.Context, opts Options) (*Adapter, error) {
	if opts.Bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}
	client, err := storage.NewClient(ctx, opts.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &Adapter{client: client, bucket: client.Bucket(opts.Bucket), opts: opts}, nil
}

func (a *Adapter) Close() error { return a.client.Close() }

func (a *Adapter) Upload(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := a.bucket.Object(key).NewWriter(ctx)
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs upload %s: %w", key, err)
	}
	return nil
}

// SignedURL returns a V4 signed GET URL valid for ttl.
func (a *Adapter) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	u, err := a.bucket.SignedURL(key, &storage.SignedURLOptions{
		GoogleAccessID: a.opts.GoogleAccessID,
		PrivateKey:     a.opts.PrivateKey,
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("gcs sign %s: %w", key, err)
	}
	return u, nil
}
