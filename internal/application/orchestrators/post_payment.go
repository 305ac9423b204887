package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"academy/internal/domain/member"
	"academy/internal/domain/operator"
	"academy/internal/domain/payment"
)

// PaymentAPI records a payment against a student.
type PaymentAPI interface {
	PostPayment(ctx context.Context, token string, p payment.Post) error
}

// PostPaymentInput carries input for the payment poster.
type PostPaymentInput struct {
	Token     string
	Role      operator.Role
	MemberID  int
	RawAmount string // as typed by the operator
}

// PostPaymentDeps holds dependencies for PostPayment.
type PostPaymentDeps struct {
	API PaymentAPI
}

// PaymentError is a payment the backend refused or never received.
type PaymentError struct {
	Message string
	Err     error
}

func (e *PaymentError) Error() string { return e.Message }
func (e *PaymentError) Unwrap() error { return e.Err }

// ExecutePostPayment validates the amount locally and sends one payment.
// PRE: MemberID names a student on the operator's roster
// POST: Validation errors (payment.ErrInvalidAmount, payment.ErrNoMember) make no network call;
// backend failures return a *PaymentError whose Message is shown verbatim
// INVARIANT: amountPaid/amountDue are never computed here
func ExecutePostPayment(ctx context.Context, input PostPaymentInput, deps PostPaymentDeps) (payment.Post, error) {
	caps, err := operator.CapabilitiesFor(input.Role, member.KindStudent)
	if err != nil || !caps.CanEditPayments {
		return payment.Post{}, operator.ErrForbidden
	}

	post, err := payment.NewPost(input.MemberID, input.RawAmount)
	if err != nil {
		return payment.Post{}, err
	}

	if err := deps.API.PostPayment(ctx, input.Token, post); err != nil {
		slog.Error("payment_post_failed", "member_id", post.MemberID, "amount", post.Amount, "error", err)
		return payment.Post{}, &PaymentError{Message: paymentFailureMessage(err), Err: err}
	}

	slog.Info("payment_event", "event", "payment_recorded", "member_id", post.MemberID, "amount", post.Amount)
	return post, nil
}

func paymentFailureMessage(err error) string {
	ue, ok := asUpstream(err)
	if !ok {
		return "Failed to record payment. Please try again."
	}
	if ue.UserMessage() != "" {
		return ue.UserMessage()
	}
	return fmt.Sprintf("Payment failed with status %d", ue.HTTPStatus())
}
