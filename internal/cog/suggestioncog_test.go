package cog

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"sunnybot/internal/config"
	"sunnybot/internal/suggest"
)

func TestRejectionMessages(t *testing.T) {
	config.Logger = zap.NewNop().Sugar()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not configured",
			err:  suggest.ErrNotConfigured,
			want: "Suggestions are not set up on this server yet.",
		},
		{
			name: "length",
			err:  &suggest.LengthRejection{Min: 10, Max: 2000, Actual: 4},
			want: "Your suggestion is 4 characters long; it must be between 10 and 2000.",
		},
		{
			name: "cooldown",
			err:  &suggest.CooldownRejection{Remaining: 42 * time.Second},
			want: "You are on cooldown. Try again in 42s.",
		},
		{
			name: "not found",
			err:  suggest.ErrNotFound,
			want: "That suggestion does not exist.",
		},
		{
			name: "already decided",
			err:  suggest.ErrAlreadyDecided,
			want: "This suggestion has already been decided.",
		},
		{
			name: "self vote",
			err:  suggest.ErrSelfVote,
			want: "You cannot vote on your own suggestion.",
		},
		{
			name: "forbidden",
			err:  suggest.ErrForbidden,
			want: "You need to be a moderator to do that.",
		},
		{
			name: "wrapped sentinel",
			err:  fmt.Errorf("toggle vote on suggestion 3: %w", suggest.ErrSelfVote),
			want: "You cannot vote on your own suggestion.",
		},
		{
			name: "unknown",
			err:  errors.New("mongo: connection reset"),
			want: "Something went wrong, please try again later.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rejectionMessage(tc.err))
		})
	}
}
