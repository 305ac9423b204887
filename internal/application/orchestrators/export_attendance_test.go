package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"

	emailAdapter "academy/internal/adapters/email"
	"academy/internal/domain/attendance"
	"academy/internal/domain/center"
	"academy/internal/domain/export"
	"academy/internal/domain/member"
	"academy/internal/domain/operator"
)

var (
	ceo   = operator.Operator{ID: 1, Role: operator.RoleCEO}
	admin = operator.Operator{ID: 2, Role: operator.RoleAdmin, Center: &center.Center{ID: 5, Name: "West"}}
	coach = operator.Operator{ID: 3, Role: operator.RoleCoach, Center: &center.Center{ID: 5, Name: "West"}}
	year  = attendance.DateRange{Start: "2024-01-01", End: "2024-12-31"}
)

func TestExecuteExportAttendance(t *testing.T) {
	api := &mockAcademy{exportCSV: []byte("name,date\n")}
	file, err := ExecuteExportAttendance(context.Background(), ExportAttendanceInput{
		Token: "t", Operator: ceo, Kind: member.KindCoach, CenterID: 9, Range: year,
	}, ExportAttendanceDeps{API: api})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if file.Filename != "coach-attendance-center-9.csv" || string(file.Content) != "name,date\n" {
		t.Errorf("file = %+v", file)
	}
}

func TestExecuteExportAttendance_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		input ExportAttendanceInput
		want  error
	}{
		{"no center", ExportAttendanceInput{Operator: ceo, Kind: member.KindStudent, Range: year}, attendance.ErrExportCenterRequired},
		{"no dates", ExportAttendanceInput{Operator: ceo, Kind: member.KindStudent, CenterID: 1}, attendance.ErrExportDatesRequired},
		{"coach role", ExportAttendanceInput{Operator: coach, Kind: member.KindStudent, CenterID: 5, Range: year}, operator.ErrForbidden},
		{"admin other center", ExportAttendanceInput{Operator: admin, Kind: member.KindStudent, CenterID: 6, Range: year}, operator.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAcademy{}
			_, err := ExecuteExportAttendance(context.Background(), tt.input, ExportAttendanceDeps{API: api})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if api.exportCalls != 0 {
				t.Error("rejected export must not call the backend")
			}
		})
	}
}

func TestExecuteExportAttendance_BackendFailure(t *testing.T) {
	api := &mockAcademy{exportErr: &statusErr{code: 500}}
	_, err := ExecuteExportAttendance(context.Background(), ExportAttendanceInput{
		Operator: admin, Kind: member.KindStudent, CenterID: 5, Range: year,
	}, ExportAttendanceDeps{API: api})
	if !errors.Is(err, ErrExportFailed) {
		t.Errorf("err = %v, want ErrExportFailed", err)
	}
}

// mockSender implements emailAdapter.Sender for testing.
type mockSender struct {
	sent []emailAdapter.SendRequest
	err  error
}

// Send implements emailAdapter.Sender.
// PRE: none
// POST: request recorded; returns err
func (m *mockSender) Send(_ context.Context, req emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	m.sent = append(m.sent, req)
	return emailAdapter.SendResult{MessageID: "m-1"}, m.err
}

// mockDeliveries implements DeliveryRecorder for testing.
type mockDeliveries struct {
	recorded []export.Delivery
}

// Record implements DeliveryRecorder.
func (m *mockDeliveries) Record(_ context.Context, d export.Delivery) error {
	m.recorded = append(m.recorded, d)
	return nil
}

func emailDeps(api *mockAcademy, sender *mockSender, deliveries *mockDeliveries) EmailExportDeps {
	return EmailExportDeps{API: api, Sender: sender, Deliveries: deliveries, Validate: validator.New(), Now: clockAt}
}

func TestExecuteEmailExport(t *testing.T) {
	api := &mockAcademy{exportCSV: []byte("a,b\n1,2\n")}
	sender := &mockSender{}
	deliveries := &mockDeliveries{}

	d, err := ExecuteEmailExport(context.Background(), EmailExportInput{
		Token: "t", Operator: admin, Kind: member.KindStudent, CenterID: 5, Range: year, Recipient: "books@example.com",
	}, emailDeps(api, sender, deliveries))
	if err != nil {
		t.Fatalf("ExecuteEmailExport: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	req := sender.sent[0]
	if req.To[0] != "books@example.com" || len(req.Attachments) != 1 || req.Attachments[0].Filename != "attendance-center-5.csv" {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(req.Subject, "2024-01-01") {
		t.Errorf("Subject = %q", req.Subject)
	}
	if len(deliveries.recorded) != 1 || deliveries.recorded[0].ID != d.ID || d.SizeBytes != 8 {
		t.Errorf("recorded = %+v", deliveries.recorded)
	}
}

func TestExecuteEmailExport_Failures(t *testing.T) {
	t.Run("invalid recipient", func(t *testing.T) {
		api := &mockAcademy{exportCSV: []byte("x")}
		_, err := ExecuteEmailExport(context.Background(), EmailExportInput{
			Operator: ceo, Kind: member.KindStudent, CenterID: 1, Range: year, Recipient: "not-an-email",
		}, emailDeps(api, &mockSender{}, &mockDeliveries{}))
		if !errors.Is(err, ErrInvalidRecipient) {
			t.Errorf("err = %v, want ErrInvalidRecipient", err)
		}
		if api.exportCalls != 0 {
			t.Error("export must not be fetched for an invalid recipient")
		}
	})
	t.Run("sender fails", func(t *testing.T) {
		deliveries := &mockDeliveries{}
		_, err := ExecuteEmailExport(context.Background(), EmailExportInput{
			Operator: ceo, Kind: member.KindStudent, CenterID: 1, Range: year, Recipient: "a@example.com",
		}, emailDeps(&mockAcademy{exportCSV: []byte("x")}, &mockSender{err: errors.New("smtp down")}, deliveries))
		if !errors.Is(err, ErrEmailFailed) {
			t.Errorf("err = %v, want ErrEmailFailed", err)
		}
		if len(deliveries.recorded) != 0 {
			t.Error("failed sends are not recorded")
		}
	})
	t.Run("empty export", func(t *testing.T) {
		_, err := ExecuteEmailExport(context.Background(), EmailExportInput{
			Operator: ceo, Kind: member.KindStudent, CenterID: 1, Range: year, Recipient: "a@example.com",
		}, emailDeps(&mockAcademy{}, &mockSender{}, &mockDeliveries{}))
		if !errors.Is(err, export.ErrEmptyExport) {
			t.Errorf("err = %v, want ErrEmptyExport", err)
		}
	})
}
