package suggest

import (
	"context"
	"slices"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// TestToggleVoteProperties drives a random sequence of vote toggles and checks
// that the stored sets always agree with a simple per-voter model: each voter
// is in at most one set, and that set is whatever their last un-retracted
// toggle said.
func TestToggleVoteProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := newMemStore()
		ctx := context.Background()

		rec := &Record{
			GuildID:   "guild-prop",
			ID:        1,
			AuthorID:  "author",
			Content:   "property testing ahoy",
			Status:    StatusPending,
			CreatedAt: time.Now(),
			Upvotes:   []string{},
			Downvotes: []string{},
		}
		if err := store.InsertSuggestion(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}

		voters := []string{"v1", "v2", "v3", "v4"}
		model := make(map[string]Direction)

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			voter := rapid.SampledFrom(voters).Draw(t, "voter")
			dir := rapid.SampledFrom([]Direction{VoteUp, VoteDown}).Draw(t, "dir")

			out, err := store.ToggleVote(ctx, "guild-prop", 1, voter, dir)
			if err != nil {
				t.Fatalf("toggle: %v", err)
			}

			if model[voter] == dir {
				delete(model, voter)
			} else {
				model[voter] = dir
			}

			var wantUp, wantDown []string
			for v, d := range model {
				if d == VoteUp {
					wantUp = append(wantUp, v)
				} else {
					wantDown = append(wantDown, v)
				}
			}
			if len(wantUp) != out.UpvoteCount() || len(wantDown) != out.DownvoteCount() {
				t.Fatalf("counts diverged: want %d/%d, got %d/%d",
					len(wantUp), len(wantDown), out.UpvoteCount(), out.DownvoteCount())
			}
			for _, v := range out.Upvotes {
				if !slices.Contains(wantUp, v) {
					t.Fatalf("unexpected upvoter %s", v)
				}
				if slices.Contains(out.Downvotes, v) {
					t.Fatalf("voter %s is in both sets", v)
				}
			}
			for _, v := range out.Downvotes {
				if !slices.Contains(wantDown, v) {
					t.Fatalf("unexpected downvoter %s", v)
				}
			}
		}
	})
}
