package checkout

// Status is the checkout session state.
type Status string

const (
	StatusCollecting  Status = "collecting"
	StatusTokenizing  Status = "tokenizing"
	StatusAuthorizing Status = "authorizing"
	StatusApproved    Status = "approved"
	StatusPending     Status = "pending"
	StatusRejected    Status = "rejected"
	StatusFailed      Status = "failed"
	StatusClosed      Status = "closed"
)

var transitions = map[Status][]Status{
	StatusCollecting:  {StatusTokenizing, StatusClosed},
	StatusTokenizing:  {StatusAuthorizing, StatusFailed},
	StatusAuthorizing: {StatusApproved, StatusPending, StatusRejected, StatusFailed},
	StatusApproved:    {StatusClosed},
	StatusPending:     {StatusClosed},
	StatusRejected:    {StatusCollecting, StatusClosed},
	StatusFailed:      {StatusCollecting, StatusClosed},
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InFlight is true while a gateway call is outstanding.
func (s Status) InFlight() bool {
	return s == StatusTokenizing || s == StatusAuthorizing
}

// Retryable is true for outcomes that leave the session open for another submit.
func (s Status) Retryable() bool {
	return s == StatusRejected || s == StatusFailed
}

// IsTerminal is true once the gateway produced a final answer for the session.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusPending || s == StatusClosed
}

func (s Status) String() string {
	return string(s)
}

// OutcomeKind tags the result of a submission.
type OutcomeKind string

const (
	OutcomeApproved OutcomeKind = "approved"
	OutcomePending  OutcomeKind = "pending"
	OutcomeRejected OutcomeKind = "rejected"
	OutcomeFailed   OutcomeKind = "failed"
)

// Outcome is the tagged result of Submit.
type Outcome struct {
	Kind         OutcomeKind `json:"kind"`
	StatusDetail string      `json:"status_detail,omitempty"`
	PaymentID    string      `json:"payment_id,omitempty"`
}

func (o Outcome) status() Status {
	switch o.Kind {
	case OutcomeApproved:
		return StatusApproved
	case OutcomePending:
		return StatusPending
	case OutcomeRejected:
		return StatusRejected
	default:
		return StatusFailed
	}
}
