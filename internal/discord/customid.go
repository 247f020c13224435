package discord

import (
	"fmt"
	"strconv"
	"strings"

	"sunnybot/internal/suggest"
)

// Control custom ids carry only the suggestion id, so a click after a restart
// can always be resolved against the stored record.
const controlPrefix = "suggest"

type ControlKind string

const (
	ControlVote   ControlKind = "vote"   // public up/down button
	ControlReview ControlKind = "review" // staff approve/deny button, opens the reason modal
	ControlDecide ControlKind = "decide" // reason modal submission
)

// Control is a parsed component or modal custom id.
type Control struct {
	Kind         ControlKind
	Direction    suggest.Direction // set for ControlVote
	Verdict      suggest.Status    // set for ControlReview and ControlDecide
	SuggestionID int64
}

func VoteCustomID(dir suggest.Direction, id int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", controlPrefix, ControlVote, dir, id)
}

func ReviewCustomID(verdict suggest.Status, id int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", controlPrefix, ControlReview, verdict, id)
}

func DecideCustomID(verdict suggest.Status, id int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", controlPrefix, ControlDecide, verdict, id)
}

// ParseControlID decodes a custom id produced by the builders above.
// The second return is false for ids that belong to other features.
func ParseControlID(customID string) (Control, bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 4 || parts[0] != controlPrefix {
		return Control{}, false
	}

	id, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil || id < 1 {
		return Control{}, false
	}

	ctrl := Control{Kind: ControlKind(parts[1]), SuggestionID: id}
	switch ctrl.Kind {
	case ControlVote:
		dir := suggest.Direction(parts[2])
		if dir != suggest.VoteUp && dir != suggest.VoteDown {
			return Control{}, false
		}
		ctrl.Direction = dir
	case ControlReview, ControlDecide:
		verdict := suggest.Status(parts[2])
		if verdict != suggest.StatusApproved && verdict != suggest.StatusDenied {
			return Control{}, false
		}
		ctrl.Verdict = verdict
	default:
		return Control{}, false
	}
	return ctrl, true
}
