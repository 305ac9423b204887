package projections

import (
	"context"
	"errors"
	"log/slog"

	"academy/internal/domain/attendance"
	"academy/internal/domain/member"
	"academy/internal/domain/operator"
)

// ErrHistoryFetchFailed is shown when the backend history call fails.
var ErrHistoryFetchFailed = errors.New("Failed to fetch attendance")

// GetAttendanceHistoryQuery carries query parameters.
type GetAttendanceHistoryQuery struct {
	Token    string
	Operator operator.Operator
	Kind     member.Kind
	CenterID int
	Range    attendance.DateRange
}

// GetAttendanceHistoryDeps holds dependencies for GetAttendanceHistory.
type GetAttendanceHistoryDeps struct {
	API HistoryAPI
}

// GetAttendanceHistoryResult carries the pivoted history.
type GetAttendanceHistoryResult struct {
	Kind     member.Kind
	CenterID int
	Range    attendance.DateRange
	Matrix   attendance.Matrix
}

// QueryGetAttendanceHistory validates the range, fetches the records and pivots them.
// PRE: Operator is the session's operator
// POST: Validation and authorization errors are returned before any network call;
// a fetch failure returns ErrHistoryFetchFailed
// INVARIANT: Inclusive span is at most attendance.MaxHistoryDays
func QueryGetAttendanceHistory(ctx context.Context, query GetAttendanceHistoryQuery, deps GetAttendanceHistoryDeps) (GetAttendanceHistoryResult, error) {
	if err := attendance.ValidateForHistory(query.CenterID, query.Range); err != nil {
		return GetAttendanceHistoryResult{}, err
	}
	if err := operator.AuthorizeHistory(query.Operator, query.Kind, query.CenterID); err != nil {
		return GetAttendanceHistoryResult{}, err
	}

	records, err := deps.API.ListCenterAttendance(ctx, query.Token, query.Kind, query.CenterID, query.Range)
	if err != nil {
		slog.Error("history_fetch_failed", "kind", query.Kind, "center_id", query.CenterID, "error", err)
		return GetAttendanceHistoryResult{}, ErrHistoryFetchFailed
	}

	matrix := attendance.Pivot(records)
	slog.Debug("history_loaded", "kind", query.Kind, "center_id", query.CenterID,
		"records", len(records), "rows", len(matrix.Rows), "dates", len(matrix.Dates))
	return GetAttendanceHistoryResult{
		Kind:     query.Kind,
		CenterID: query.CenterID,
		Range:    query.Range,
		Matrix:   matrix,
	}, nil
}
