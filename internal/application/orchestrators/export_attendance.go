package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"academy/internal/domain/attendance"
	"academy/internal/domain/member"
	"academy/internal/domain/operator"
)

// ExportAPI fetches the backend's CSV export.
type ExportAPI interface {
	ExportCenterAttendance(ctx context.Context, token string, kind member.Kind, centerID int, r attendance.DateRange) ([]byte, error)
}

// ExportAttendanceInput carries input for a CSV export.
type ExportAttendanceInput struct {
	Token    string
	Operator operator.Operator
	Kind     member.Kind
	CenterID int
	Range    attendance.DateRange
}

// ExportAttendanceDeps holds dependencies for ExportAttendance.
type ExportAttendanceDeps struct {
	API ExportAPI
}

// ExportFile is a CSV ready to download or attach.
type ExportFile struct {
	Filename string
	Content  []byte
}

// ErrExportFailed is shown when the backend export call fails.
var ErrExportFailed = errors.New("Export failed")

// ExecuteExportAttendance fetches a center's attendance CSV for any date range.
// PRE: CenterID and both dates are set (no span limit)
// POST: Returns the CSV named after the center only, or a validation error before any call
func ExecuteExportAttendance(ctx context.Context, input ExportAttendanceInput, deps ExportAttendanceDeps) (ExportFile, error) {
	if err := attendance.ValidateForExport(input.CenterID, input.Range); err != nil {
		return ExportFile{}, err
	}
	if err := operator.AuthorizeHistory(input.Operator, input.Kind, input.CenterID); err != nil {
		return ExportFile{}, err
	}

	content, err := deps.API.ExportCenterAttendance(ctx, input.Token, input.Kind, input.CenterID, input.Range)
	if err != nil {
		slog.Error("attendance_export_failed", "kind", input.Kind, "center_id", input.CenterID, "error", err)
		return ExportFile{}, ErrExportFailed
	}

	slog.Info("attendance_event", "event", "exported", "kind", input.Kind, "center_id", input.CenterID,
		"start", input.Range.Start, "end", input.Range.End, "bytes", len(content))
	return ExportFile{
		Filename: attendance.ExportFilename(input.Kind, input.CenterID),
		Content:  content,
	}, nil
}
