package dispatch

// OutcomeKind tags the result of one delivery attempt.
type OutcomeKind int

const (
	// OutcomeSent: the message reached the destination.
	OutcomeSent OutcomeKind = iota
	// OutcomeRateLimited: the remote asked us to back off; the round
	// pauses and the destination is retried next round.
	OutcomeRateLimited
	// OutcomeSkipped: the destination failed for a non-flood reason and
	// the round moves on.
	OutcomeSkipped
)

// SkipReason qualifies OutcomeSkipped.
type SkipReason int

const (
	// SkipTransient: possibly recoverable; the destination is naturally
	// retried next round.
	SkipTransient SkipReason = iota
	// SkipPermanent: the destination will never succeed; it stays in the
	// list but the operator is advised to remove it.
	SkipPermanent
	// SkipUnknown: unclassified failure, handled like SkipTransient.
	SkipUnknown
)

// Outcome is produced per destination per attempt and consumed
// immediately by the round scheduler; it is never persisted.
type Outcome struct {
	Kind        OutcomeKind
	Reason      SkipReason // valid when Kind == OutcomeSkipped
	WaitSeconds int        // valid when Kind == OutcomeRateLimited
}

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSent:
		return "sent"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}
