package reconciliation

import (
	"github.com/m073med011/lms-api/pkg/types"
)

// WebhookSignal is a processor-pushed payment result. It may arrive zero,
// one, or many times, in any order relative to other signals.
type WebhookSignal struct {
	TransactionID string `json:"transaction_id"`
	Success       bool   `json:"success"`
	// AmountCents is the amount reported by the processor, checked against
	// the ledger snapshot; it never overwrites it.
	AmountCents int64 `json:"amount_cents"`
}

// ConfirmSignal is a client-originated payment result, sent after the payer
// returns from the processor's page. It is untrusted: a success assertion
// is only honored after the gateway independently confirms the order as
// paid.
type ConfirmSignal struct {
	TransactionID         string `json:"transaction_id"`
	ClientAssertedSuccess bool   `json:"success"`
}

func statusFor(success bool) types.PurchaseStatus {
	if success {
		return types.PurchaseStatusPaid
	}
	return types.PurchaseStatusFailed
}
