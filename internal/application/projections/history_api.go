package projections

import (
	"context"

	"academy/internal/domain/attendance"
	"academy/internal/domain/center"
	"academy/internal/domain/member"
)

// HistoryAPI reads day-stamped attendance records for a center.
type HistoryAPI interface {
	ListCenterAttendance(ctx context.Context, token string, kind member.Kind, centerID int, r attendance.DateRange) ([]attendance.Record, error)
}

// CenterAPI lists the academy's centers.
type CenterAPI interface {
	ListCenters(ctx context.Context, token string) ([]center.Center, error)
}
