package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	emailAdapter "academy/internal/adapters/email"
	"academy/internal/domain/attendance"
	"academy/internal/domain/export"
	"academy/internal/domain/member"
	"academy/internal/domain/operator"
)

// DeliveryRecorder persists emailed exports.
type DeliveryRecorder interface {
	Record(ctx context.Context, d export.Delivery) error
}

// EmailExportInput carries input for emailing a CSV export.
type EmailExportInput struct {
	Token     string
	Operator  operator.Operator
	Kind      member.Kind
	CenterID  int
	Range     attendance.DateRange
	Recipient string `validate:"required,email"`
}

// EmailExportDeps holds dependencies for EmailExport.
type EmailExportDeps struct {
	API        ExportAPI
	Sender     emailAdapter.Sender
	Deliveries DeliveryRecorder
	Validate   *validator.Validate
	Now        func() time.Time
}

var (
	ErrInvalidRecipient = errors.New("Enter a valid email address")
	ErrEmailFailed      = errors.New("Failed to send the export. Please try again.")
)

// ExecuteEmailExport fetches the CSV and mails it as an attachment.
// PRE: Same requirements as ExecuteExportAttendance plus a valid recipient
// POST: On success a Delivery is recorded; a recording failure is logged, not returned
func ExecuteEmailExport(ctx context.Context, input EmailExportInput, deps EmailExportDeps) (export.Delivery, error) {
	if err := deps.Validate.Struct(input); err != nil {
		return export.Delivery{}, ErrInvalidRecipient
	}

	file, err := ExecuteExportAttendance(ctx, ExportAttendanceInput{
		Token:    input.Token,
		Operator: input.Operator,
		Kind:     input.Kind,
		CenterID: input.CenterID,
		Range:    input.Range,
	}, ExportAttendanceDeps{API: deps.API})
	if err != nil {
		return export.Delivery{}, err
	}

	d := export.NewDelivery(input.Operator.ID, input.Kind, input.CenterID, input.Range, input.Recipient, len(file.Content), deps.Now())
	if err := d.Validate(); err != nil {
		return export.Delivery{}, err
	}

	_, err = deps.Sender.Send(ctx, emailAdapter.SendRequest{
		To:      []string{d.Recipient},
		Subject: d.Subject(),
		HTML: fmt.Sprintf("<p>%s attendance for center %d, %s to %s, is attached.</p>",
			html.EscapeString(input.Kind.Title()), input.CenterID,
			html.EscapeString(input.Range.Start), html.EscapeString(input.Range.End)),
		Attachments: []emailAdapter.Attachment{{Filename: file.Filename, Content: file.Content}},
	})
	if err != nil {
		slog.Error("export_email_failed", "kind", input.Kind, "center_id", input.CenterID, "error", err)
		return export.Delivery{}, ErrEmailFailed
	}

	if err := deps.Deliveries.Record(ctx, d); err != nil {
		slog.Error("export_delivery_record_failed", "delivery_id", d.ID, "error", err)
	}
	slog.Info("attendance_event", "event", "export_emailed", "delivery_id", d.ID, "kind", d.Kind, "center_id", d.CenterID, "bytes", d.SizeBytes)
	return d, nil
}
