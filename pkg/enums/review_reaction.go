package enums

import "fmt"

// ReviewReaction is a like or dislike on a review. A user holds at most one
// reaction per review; re-applying the same reaction removes it.
type ReviewReaction string

const (
	ReviewReactionLike    ReviewReaction = "like"
	ReviewReactionDislike ReviewReaction = "dislike"
)

// IsValid reports whether the value is a known ReviewReaction.
func (r ReviewReaction) IsValid() bool {
	return r == ReviewReactionLike || r == ReviewReactionDislike
}

// ParseReviewReaction converts raw strings into ReviewReaction.
func ParseReviewReaction(value string) (ReviewReaction, error) {
	switch ReviewReaction(value) {
	case ReviewReactionLike:
		return ReviewReactionLike, nil
	case ReviewReactionDislike:
		return ReviewReactionDislike, nil
	}
	return "", fmt.Errorf("invalid review reaction %q", value)
}
