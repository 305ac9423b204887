package export

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"academy/internal/domain/attendance"
	"academy/internal/domain/member"
)

// Domain errors
var (
	ErrRecipientRequired = errors.New("Enter an email address to send the export to")
	ErrEmptyExport       = errors.New("The export is empty")
)

// Delivery records a CSV export emailed by an operator.
type Delivery struct {
	ID         string
	OperatorID int
	Kind       member.Kind
	CenterID   int
	Range      attendance.DateRange
	Recipient  string
	SizeBytes  int
	SentAt     time.Time
}

// NewDelivery builds a delivery record for a sent export.
// PRE: recipient has been validated as an email address
// POST: Returns a record with a fresh ID
func NewDelivery(operatorID int, kind member.Kind, centerID int, r attendance.DateRange, recipient string, size int, now time.Time) Delivery {
	return Delivery{
		ID:         uuid.NewString(),
		OperatorID: operatorID,
		Kind:       kind,
		CenterID:   centerID,
		Range:      r,
		Recipient:  strings.TrimSpace(recipient),
		SizeBytes:  size,
		SentAt:     now.UTC(),
	}
}

// Validate checks if the Delivery has valid data.
// PRE: none
// POST: Returns error if validation fails, nil otherwise
func (d Delivery) Validate() error {
	if d.Recipient == "" {
		return ErrRecipientRequired
	}
	if d.SizeBytes <= 0 {
		return ErrEmptyExport
	}
	if err := attendance.ValidateForExport(d.CenterID, d.Range); err != nil {
		return err
	}
	return nil
}

// Subject is the email subject line for the delivery.
func (d Delivery) Subject() string {
	return d.Kind.Title() + " attendance " + d.Range.Start + " to " + d.Range.End
}
