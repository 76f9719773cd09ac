package domain

import (
	"errors"
	"testing"
)

func TestValidPhone(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"0712345678":  true,
		"0612345678":  true,
		"0812345678":  false,
		"071234567":   false,
		"07123456789": false,
		"12345":       false,
		"":            false,
		"07123456a8":  false,
		"+255712345":  false,
	}
	for phone, want := range cases {
		if got := ValidPhone(phone); got != want {
			t.Errorf("ValidPhone(%q) = %v, want %v", phone, got, want)
		}
	}
}

func TestNormalizeGatewayStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]TxStatus{
		"Paid":       StatusPaid,
		"PAID":       StatusPaid,
		"paid":       StatusPaid,
		"Failed":     StatusFailed,
		"failed":     StatusFailed,
		"Pending":    StatusPending,
		"COMPLETED":  StatusPending,
		"processing": StatusPending,
		"":           StatusPending,
	}
	for raw, want := range cases {
		if got := NormalizeGatewayStatus(raw); got != want {
			t.Errorf("NormalizeGatewayStatus(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestNormalizeWebhookStatus(t *testing.T) {
	t.Parallel()

	if got := NormalizeWebhookStatus("COMPLETED"); got != StatusPaid {
		t.Errorf("COMPLETED mapped to %s", got)
	}
	if got := NormalizeWebhookStatus("Cancelled"); got != StatusFailed {
		t.Errorf("Cancelled mapped to %s", got)
	}
	if got := NormalizeWebhookStatus("PENDING"); got != StatusPending {
		t.Errorf("PENDING mapped to %s", got)
	}
}

func TestCheckTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to TxStatus
		ok       bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusPending, true},
		{StatusPaid, StatusPaid, true},
		{StatusFailed, StatusFailed, true},
		{StatusPaid, StatusFailed, false},
		{StatusFailed, StatusPaid, false},
		{StatusPaid, StatusPending, false},
		{StatusFailed, StatusPending, false},
		{TxStatus("CREATED"), StatusPaid, false},
	}
	for _, tt := range tests {
		err := CheckTransition(tt.from, tt.to)
		if tt.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tt.from, tt.to, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> %s: expected ErrInvalidTransition, got %v", tt.from, tt.to, err)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: timeout")
	err := NewError(CodeTransport, MsgSystemError, cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}

	var de *Error
	if !errors.As(error(err), &de) || de.Code != CodeTransport {
		t.Errorf("expected *Error with code %s, got %v", CodeTransport, err)
	}
}

func TestCheckFromTx(t *testing.T) {
	t.Parallel()

	if CheckFromTx(StatusPaid) != CheckPaid || CheckFromTx(StatusFailed) != CheckFailed || CheckFromTx(StatusPending) != CheckPending {
		t.Error("unexpected mapping from TxStatus to CheckStatus")
	}
	if CheckPending.Terminal() || !CheckPaid.Terminal() || !CheckFailed.Terminal() || CheckError.Terminal() {
		t.Error("unexpected Terminal() result")
	}
}
