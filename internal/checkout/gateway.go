package checkout

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway is the payment provider used by the orchestrator.
type Gateway interface {
	TokenizeCard(ctx context.Context, card CardData) (string, error)
	AuthorizePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentResult, error)
}

// CardData is the normalized card as sent for tokenization.
type CardData struct {
	Number          string
	HolderName      string
	ExpirationMonth int
	ExpirationYear  int
	SecurityCode    string
}

type PaymentRequest struct {
	Token             string
	Amount            decimal.Decimal
	Installments      int
	PayerEmail        string
	ExternalReference string
	Description       string
}

// Gateway payment statuses.
const (
	PaymentStatusApproved   = "approved"
	PaymentStatusPending    = "pending"
	PaymentStatusInProcess  = "in_process"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusRejected   = "rejected"
	PaymentStatusCancelled  = "cancelled"
)

type PaymentResult struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	StatusDetail      string `json:"status_detail"`
	ExternalReference string `json:"external_reference,omitempty"`
}

// Kind classifies a gateway status. Anything other than approved or pending
// counts as rejected.
func (r *PaymentResult) Kind() OutcomeKind {
	switch r.Status {
	case PaymentStatusApproved:
		return OutcomeApproved
	case PaymentStatusPending:
		return OutcomePending
	default:
		return OutcomeRejected
	}
}
