package hibag

// VoteMode selects how the classifiers of an ensemble are combined.
type VoteMode int

const (
	// VotePosterior averages the posterior tables of the classifiers,
	// weighted by the fraction of their markers called in the query.
	VotePosterior VoteMode = iota + 1

	// VoteMajority gives every informative classifier one vote for its own
	// best guess.
	VoteMajority
)

func (v VoteMode) String() string {
	switch v {
	case VotePosterior:
		return "prob"
	case VoteMajority:
		return "majority"

	default:
		return "Illegal selection"
	}
}

// ParseVoteMode is the inverse of String.
func ParseVoteMode(s string) (VoteMode, bool) {
	switch s {
	case "prob":
		return VotePosterior, true
	case "majority":
		return VoteMajority, true
	}
	return 0, false
}
