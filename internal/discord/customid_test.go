package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunnybot/internal/suggest"
)

func TestControlIDRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		id   string
		want Control
	}{
		{
			name: "upvote",
			id:   VoteCustomID(suggest.VoteUp, 7),
			want: Control{Kind: ControlVote, Direction: suggest.VoteUp, SuggestionID: 7},
		},
		{
			name: "downvote",
			id:   VoteCustomID(suggest.VoteDown, 123456789),
			want: Control{Kind: ControlVote, Direction: suggest.VoteDown, SuggestionID: 123456789},
		},
		{
			name: "review approve",
			id:   ReviewCustomID(suggest.StatusApproved, 3),
			want: Control{Kind: ControlReview, Verdict: suggest.StatusApproved, SuggestionID: 3},
		},
		{
			name: "review deny",
			id:   ReviewCustomID(suggest.StatusDenied, 3),
			want: Control{Kind: ControlReview, Verdict: suggest.StatusDenied, SuggestionID: 3},
		},
		{
			name: "decide",
			id:   DecideCustomID(suggest.StatusDenied, 42),
			want: Control{Kind: ControlDecide, Verdict: suggest.StatusDenied, SuggestionID: 42},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseControlID(tc.id)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseControlIDRejectsForeignAndMalformed(t *testing.T) {
	bad := []string{
		"",
		"ticket:open:close:5",       // another feature's component
		"suggest:vote:up",           // missing id
		"suggest:vote:up:0",         // ids start at 1
		"suggest:vote:up:-3",        //
		"suggest:vote:up:abc",       //
		"suggest:vote:sideways:5",   // unknown direction
		"suggest:review:pending:5",  // pending is not a verdict
		"suggest:launch:approved:5", // unknown kind
		"suggest:vote:up:5:extra",   //
	}

	for _, id := range bad {
		_, ok := ParseControlID(id)
		assert.False(t, ok, "expected %q to be rejected", id)
	}
}
