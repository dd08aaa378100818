package timeline

import (
	"errors"
	"fmt"

	"github.com/forPelevin/reelforge/internal/types"
)

// ErrEmptySelection is returned with a selection that holds no post, either
// because the intro alone exceeds the target or because no post fits.
var ErrEmptySelection = errors.New("timeline: no post fits the target duration")

var errNoResolver = errors.New("no resolver configured")

// DurationResolutionError reports an item whose audio duration could not be
// resolved. It aborts the whole composition.
type DurationResolutionError struct {
	Kind types.ItemKind
	Text string
	Err  error
}

func (e *DurationResolutionError) Error() string {
	return fmt.Sprintf("resolve %s duration for %q: %v", e.Kind, abbreviate(e.Text, 60), e.Err)
}

func (e *DurationResolutionError) Unwrap() error { return e.Err }

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
