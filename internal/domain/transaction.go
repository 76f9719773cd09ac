package domain

import (
	"errors"
	"strings"
	"time"
)

type TxStatus string

const (
	StatusPending TxStatus = "PENDING"
	StatusPaid    TxStatus = "PAID"
	StatusFailed  TxStatus = "FAILED"
)

// Terminal reports whether no further transition is allowed from s.
func (s TxStatus) Terminal() bool {
	return s == StatusPaid || s == StatusFailed
}

func (s TxStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed:
		return true
	}
	return false
}

var ErrInvalidTransition = errors.New("invalid status transition")

// CheckTransition enforces PENDING -> {PAID, FAILED}. Re-applying the
// current status is allowed so repeated confirmations stay idempotent.
func CheckTransition(from, to TxStatus) error {
	if !from.Valid() || !to.Valid() {
		return ErrInvalidTransition
	}
	if from == to {
		return nil
	}
	if from == StatusPending && to.Terminal() {
		return nil
	}
	return ErrInvalidTransition
}

type Transaction struct {
	ID        int64
	Reference string
	Phone     string
	Amount    int64
	Status    TxStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	SettledAt *time.Time
}

// NormalizeGatewayStatus maps the status query's free-text field onto
// the three-value enum, case-insensitively. Anything other than paid or
// failed stays PENDING.
func NormalizeGatewayStatus(raw string) TxStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid":
		return StatusPaid
	case "failed":
		return StatusFailed
	default:
		return StatusPending
	}
}

// NormalizeWebhookStatus is the webhook vocabulary, which reports
// settlement as COMPLETED rather than Paid.
func NormalizeWebhookStatus(raw string) TxStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed", "success", "paid":
		return StatusPaid
	case "failed", "cancelled", "rejected":
		return StatusFailed
	default:
		return StatusPending
	}
}
