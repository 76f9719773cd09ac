package domain

// CheckStatus is what a poller receives for a reference.
type CheckStatus string

const (
	CheckPending          CheckStatus = "PENDING"
	CheckPaid             CheckStatus = "PAID"
	CheckFailed           CheckStatus = "FAILED"
	CheckNotFound         CheckStatus = "NOT_FOUND"
	CheckError            CheckStatus = "ERROR"
	CheckInvalidReference CheckStatus = "INVALID_REFERENCE"
)

func CheckFromTx(s TxStatus) CheckStatus {
	switch s {
	case StatusPaid:
		return CheckPaid
	case StatusFailed:
		return CheckFailed
	default:
		return CheckPending
	}
}

// Terminal is true for the two settled outcomes.
func (c CheckStatus) Terminal() bool {
	return c == CheckPaid || c == CheckFailed
}
