package audiocache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetry = 250 * time.Millisecond

// Lock takes an advisory lock on dir so two runs never synthesize into the
// same cache at once. It waits until ctx is done.
func Lock(ctx context.Context, dir string) (unlock func() error, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fl := flock.New(filepath.Join(dir, ".lock"))
	ok, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil {
		return nil, fmt.Errorf("lock cache dir: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("lock cache dir %s: already held", dir)
	}
	return fl.Unlock, nil
}
