package orchestrators

import (
	"context"
	"errors"
	"testing"

	"academy/internal/domain/operator"
	"academy/internal/domain/payment"
)

func TestExecutePostPayment_Success(t *testing.T) {
	api := &mockAcademy{}
	post, err := ExecutePostPayment(context.Background(), PostPaymentInput{
		Token: "t", Role: operator.RoleCoach, MemberID: 4, RawAmount: " 25.5 ",
	}, PostPaymentDeps{API: api})
	if err != nil {
		t.Fatalf("ExecutePostPayment: %v", err)
	}
	if post.Amount != 25.5 || len(api.payments) != 1 || api.payments[0].MemberID != 4 {
		t.Errorf("post=%+v payments=%+v", post, api.payments)
	}
}

func TestExecutePostPayment_LocalValidation(t *testing.T) {
	tests := []struct {
		name     string
		memberID int
		raw      string
		want     error
	}{
		{"zero", 4, "0", payment.ErrInvalidAmount},
		{"negative", 4, "-3", payment.ErrInvalidAmount},
		{"text", 4, "abc", payment.ErrInvalidAmount},
		{"empty", 4, "", payment.ErrInvalidAmount},
		{"no member", 0, "10", payment.ErrNoMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAcademy{}
			_, err := ExecutePostPayment(context.Background(), PostPaymentInput{
				Role: operator.RoleAdmin, MemberID: tt.memberID, RawAmount: tt.raw,
			}, PostPaymentDeps{API: api})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if len(api.payments) != 0 {
				t.Error("invalid input must not reach the backend")
			}
		})
	}
}

func TestExecutePostPayment_BackendFailureMessages(t *testing.T) {
	tests := []struct {
		name   string
		payErr error
		want   string
	}{
		{"server message", &statusErr{code: 400, msg: "Amount exceeds balance"}, "Amount exceeds balance"},
		{"status only", &statusErr{code: 502}, "Payment failed with status 502"},
		{"transport", errors.New("dial tcp: timeout"), "Failed to record payment. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAcademy{payErr: tt.payErr}
			_, err := ExecutePostPayment(context.Background(), PostPaymentInput{
				Role: operator.RoleCEO, MemberID: 1, RawAmount: "10",
			}, PostPaymentDeps{API: api})
			var pe *PaymentError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *PaymentError", err)
			}
			if pe.Message != tt.want {
				t.Errorf("Message = %q, want %q", pe.Message, tt.want)
			}
		})
	}
}
