package suggest

import (
	"errors"
	"fmt"
	"time"
)

// Rejections the caller is expected to surface to the user. None of them
// leaves any state behind.
var (
	ErrNotConfigured  = errors.New("no suggestion channel configured")
	ErrNotFound       = errors.New("suggestion not found")
	ErrAlreadyDecided = errors.New("suggestion already decided")
	ErrSelfVote       = errors.New("cannot vote on your own suggestion")
	ErrForbidden      = errors.New("missing moderation rights")
)

// LengthRejection is returned when submitted text falls outside the guild's bounds.
type LengthRejection struct {
	Min, Max, Actual int
}

func (e *LengthRejection) Error() string {
	return fmt.Sprintf("suggestion length %d outside bounds [%d, %d]", e.Actual, e.Min, e.Max)
}

// CooldownRejection is returned when the author submitted too recently.
type CooldownRejection struct {
	Remaining time.Duration
}

func (e *CooldownRejection) Error() string {
	return fmt.Sprintf("cooldown active, %s remaining", e.Remaining)
}
