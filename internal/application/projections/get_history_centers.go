package projections

import (
	"context"
	"log/slog"

	"academy/internal/domain/center"
	"academy/internal/domain/operator"
)

// GetHistoryCentersQuery carries query parameters.
type GetHistoryCentersQuery struct {
	Token    string
	Operator operator.Operator
}

// GetHistoryCentersDeps holds dependencies for GetHistoryCenters.
type GetHistoryCentersDeps struct {
	API CenterAPI
}

// QueryGetHistoryCenters returns the centers offered in the history picker.
// PRE: none
// POST: Top-tier operators get every center; others get their own center or
// nothing. Never fails; a fetch error is logged and yields an empty list
func QueryGetHistoryCenters(ctx context.Context, query GetHistoryCentersQuery, deps GetHistoryCentersDeps) []center.Center {
	if !query.Operator.IsTopTier() {
		if query.Operator.Center == nil || query.Operator.Center.ID == 0 {
			return []center.Center{}
		}
		return []center.Center{*query.Operator.Center}
	}
	centers, err := deps.API.ListCenters(ctx, query.Token)
	if err != nil {
		slog.Error("history_centers_failed", "error", err)
		return []center.Center{}
	}
	return centers
}
