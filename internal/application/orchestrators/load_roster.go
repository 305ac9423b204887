package orchestrators

import (
	"context"
	"log/slog"

	"academy/internal/domain/center"
	"academy/internal/domain/member"
	"academy/internal/domain/operator"
)

// RosterAPI is the read side of the academy backend used by the roster loader.
type RosterAPI interface {
	GetUser(ctx context.Context, token string, userID int) (operator.Operator, error)
	ListCenters(ctx context.Context, token string) ([]center.Center, error)
	ListCenterStudents(ctx context.Context, token string, centerID int) ([]member.Member, error)
	ListCoaches(ctx context.Context, token string) ([]member.Member, error)
}

// LoadRosterInput carries input for the roster loader.
type LoadRosterInput struct {
	Token      string
	OperatorID int // 0 means "read the token's sub claim"
	Role       operator.Role
	Kind       member.Kind
	// PreferredCenterID is the CEO's last selection. Ignored for other roles
	// and when it is not one of the fetched centers.
	PreferredCenterID int
}

// LoadRosterDeps holds dependencies for LoadRoster.
type LoadRosterDeps struct {
	API RosterAPI
}

// Roster is the result of a roster load.
type Roster struct {
	Scope    operator.Scope
	Centers  []center.Center // CEO scope only
	Selected center.Center   // zero value when no center could be resolved
	Members  []member.Member
}

// HasCenter reports whether a center was resolved.
func (r Roster) HasCenter() bool {
	return r.Selected.ID > 0
}

// ExecuteLoadRoster resolves the operator's scope and fetches the active roster
// of the selected center.
// PRE: Token is the operator's bearer credential
// POST: Never fails; any resolution or fetch error yields an empty member list and is logged
func ExecuteLoadRoster(ctx context.Context, input LoadRosterInput, deps LoadRosterDeps) Roster {
	roster := Roster{Members: []member.Member{}}

	if input.Role == operator.RoleCEO {
		roster.Scope = operator.Scope{AllCenters: true}
		centers, err := deps.API.ListCenters(ctx, input.Token)
		if err != nil {
			slog.Error("roster_fetch_failed", "stage", "centers", "error", err)
			return roster
		}
		roster.Centers = centers
		roster.Selected, _ = center.First(centers)
		for _, c := range centers {
			if c.ID == input.PreferredCenterID {
				roster.Selected = c
				break
			}
		}
	} else {
		op, ok := resolveProfile(ctx, input, deps.API)
		if !ok {
			return roster
		}
		scope, err := operator.ResolveScope(op)
		if err != nil {
			slog.Warn("roster_fetch_failed", "stage", "scope", "user_id", op.ID, "error", err)
			return roster
		}
		roster.Scope = scope
		roster.Selected = *op.Center
	}

	if !roster.HasCenter() {
		slog.Info("roster_empty", "reason", "no_center", "role", input.Role)
		return roster
	}
	roster.Members = ExecuteLoadMembers(ctx, LoadMembersInput{
		Token:    input.Token,
		Kind:     input.Kind,
		CenterID: roster.Selected.ID,
	}, deps)
	return roster
}

// resolveProfile fetches the operator's profile, decoding the id from the
// token when none is known.
func resolveProfile(ctx context.Context, input LoadRosterInput, api RosterAPI) (operator.Operator, bool) {
	id := input.OperatorID
	if id <= 0 {
		claims, err := operator.ClaimsFromToken(input.Token)
		if err != nil {
			slog.Error("roster_fetch_failed", "stage", "claims", "error", err)
			return operator.Operator{}, false
		}
		id = claims.UserID
	}
	op, err := api.GetUser(ctx, input.Token, id)
	if err != nil {
		slog.Error("roster_fetch_failed", "stage", "profile", "user_id", id, "error", err)
		return operator.Operator{}, false
	}
	// The session role is authoritative for capabilities.
	op.Role = input.Role
	return op, true
}

// LoadMembersInput carries input for a member refresh of one center.
type LoadMembersInput struct {
	Token    string
	Kind     member.Kind
	CenterID int
}

// ExecuteLoadMembers fetches the active members of one center. Center switches
// and post-submit refreshes use it without re-resolving scope.
// PRE: CenterID > 0
// POST: Never fails; errors yield an empty, non-nil slice
func ExecuteLoadMembers(ctx context.Context, input LoadMembersInput, deps LoadRosterDeps) []member.Member {
	var (
		members []member.Member
		err     error
	)
	switch input.Kind {
	case member.KindCoach:
		members, err = deps.API.ListCoaches(ctx, input.Token)
		if err == nil {
			members = member.FilterCenter(members, input.CenterID)
		}
	default:
		members, err = deps.API.ListCenterStudents(ctx, input.Token, input.CenterID)
	}
	if err != nil {
		slog.Error("roster_fetch_failed", "stage", "members", "kind", input.Kind, "center_id", input.CenterID, "error", err)
		return []member.Member{}
	}
	active := member.FilterActive(members)
	slog.Debug("roster_loaded", "kind", input.Kind, "center_id", input.CenterID, "fetched", len(members), "active", len(active))
	return active
}
