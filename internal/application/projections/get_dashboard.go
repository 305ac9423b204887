package projections

import (
	"academy/internal/domain/member"
	"academy/internal/domain/operator"
)

// Screen is a dashboard link to one console screen.
type Screen struct {
	Label string
	Path  string
}

// GetDashboardQuery carries input for the dashboard projection.
type GetDashboardQuery struct {
	Operator operator.Operator
}

// DashboardResult carries the output of the dashboard projection.
type DashboardResult struct {
	Title      string
	Operator   operator.Operator
	CenterName string // "" for top-tier operators
	Attendance []Screen
	History    []Screen
}

// QueryGetDashboard lists the screens the operator's role may open.
// PRE: none
// POST: Attendance holds one screen per markable roster; History is empty for coaches
func QueryGetDashboard(query GetDashboardQuery) DashboardResult {
	op := query.Operator
	result := DashboardResult{
		Title:      dashboardTitle(op.Role),
		Operator:   op,
		Attendance: []Screen{},
		History:    []Screen{},
	}
	if !op.IsTopTier() && op.Center != nil {
		result.CenterName = op.Center.Name
	}

	for _, kind := range operator.Kinds(op.Role) {
		label := "Mark Attendance"
		if kind == member.KindCoach {
			label = "Mark Coach Attendance"
		}
		result.Attendance = append(result.Attendance, Screen{Label: label, Path: "/attendance/" + kind.Plural()})

		if operator.CanViewHistory(op.Role) {
			historyLabel := "Student Attendance History"
			if kind == member.KindCoach {
				historyLabel = "Coach Attendance History"
			}
			result.History = append(result.History, Screen{Label: historyLabel, Path: "/history/" + kind.Plural()})
		}
	}
	return result
}

func dashboardTitle(role operator.Role) string {
	switch role {
	case operator.RoleCEO:
		return "CEO Dashboard"
	case operator.RoleAdmin:
		return "Admin Dashboard"
	}
	return "Coach Dashboard"
}
