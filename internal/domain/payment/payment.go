package payment

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Domain errors. Messages are shown to operators as-is.
var (
	ErrInvalidAmount = errors.New("Enter a valid amount greater than 0")
	ErrNoMember      = errors.New("No student selected")
)

// Post is a single monetary adjustment against one student. It is submitted,
// never stored; balances are recomputed by the backend.
type Post struct {
	MemberID int
	Amount   float64
}

// ParseAmount converts the operator's input into a payment amount.
// PRE: none
// POST: Returns ErrInvalidAmount unless raw parses as a finite number > 0
func ParseAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// NewPost validates the target and raw amount together.
// PRE: none
// POST: Returns ErrNoMember or ErrInvalidAmount before any network call is made
func NewPost(memberID int, raw string) (Post, error) {
	if memberID <= 0 {
		return Post{}, ErrNoMember
	}
	amount, err := ParseAmount(raw)
	if err != nil {
		return Post{}, err
	}
	return Post{MemberID: memberID, Amount: amount}, nil
}
