package operator

import (
	"errors"
	"strings"

	"academy/internal/domain/center"
	"academy/internal/domain/member"
)

// Role is the operator's role as issued by the academy backend.
type Role string

// Roles
const (
	RoleCEO   Role = "CEO"
	RoleAdmin Role = "ADMIN"
	RoleCoach Role = "COACH"
)

// Domain errors
var (
	ErrForbidden = errors.New("operator role may not use this screen")
)

// ParseRole normalises a role string. Unknown roles fall back to Coach,
// the least privileged dashboard.
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleCEO:
		return RoleCEO
	case RoleAdmin:
		return RoleAdmin
	}
	return RoleCoach
}

// Operator is the logged-in user driving the console.
type Operator struct {
	ID     int
	Name   string
	Role   Role
	Center *center.Center
}

// IsTopTier reports whether the operator sees every center.
func (o Operator) IsTopTier() bool {
	return o.Role == RoleCEO
}

// Scope is the set of centers an operator may act on.
type Scope struct {
	AllCenters bool
	CenterID   int // the operator's own center when AllCenters is false
}

// ResolveScope derives the scope from the operator's profile.
// PRE: op was fetched from the backend (Role and Center are authoritative)
// POST: Top-tier operators get AllCenters; others get their center or center.ErrNoCenter
func ResolveScope(op Operator) (Scope, error) {
	if op.IsTopTier() {
		return Scope{AllCenters: true}, nil
	}
	if op.Center == nil || op.Center.ID == 0 {
		return Scope{}, center.ErrNoCenter
	}
	return Scope{CenterID: op.Center.ID}, nil
}

// Allows reports whether the scope includes the center.
func (s Scope) Allows(centerID int) bool {
	if centerID <= 0 {
		return false
	}
	return s.AllCenters || s.CenterID == centerID
}

// Capabilities parameterise the shared attendance workflow per role and roster.
type Capabilities struct {
	CanEditPayments  bool
	CanSeeAllCenters bool
	MemberKind       member.Kind
}

// CapabilitiesFor returns what the role may do on the roster of the given kind.
// PRE: kind is a valid member.Kind
// POST: Returns ErrForbidden when the role may not mark that roster
// INVARIANT: Payments exist only on student rosters
func CapabilitiesFor(role Role, kind member.Kind) (Capabilities, error) {
	caps := Capabilities{
		CanSeeAllCenters: role == RoleCEO,
		MemberKind:       kind,
	}
	switch kind {
	case member.KindStudent:
		caps.CanEditPayments = true
	case member.KindCoach:
		if role != RoleAdmin && role != RoleCEO {
			return Capabilities{}, ErrForbidden
		}
	default:
		return Capabilities{}, member.ErrUnknownKind
	}
	return caps, nil
}

// CanViewHistory reports whether the role may browse and export attendance history.
func CanViewHistory(role Role) bool {
	return role == RoleAdmin || role == RoleCEO
}

// Kinds returns the rosters the role can mark, in display order.
func Kinds(role Role) []member.Kind {
	if role == RoleCoach {
		return []member.Kind{member.KindStudent}
	}
	return []member.Kind{member.KindStudent, member.KindCoach}
}

// AuthorizeHistory checks that op may read kind's attendance history for centerID.
// PRE: centerID > 0
// POST: Returns ErrForbidden for roles without history access or centers outside op's scope
func AuthorizeHistory(op Operator, kind member.Kind, centerID int) error {
	if !CanViewHistory(op.Role) {
		return ErrForbidden
	}
	if _, err := CapabilitiesFor(op.Role, kind); err != nil {
		return err
	}
	scope, err := ResolveScope(op)
	if err != nil {
		return err
	}
	if !scope.Allows(centerID) {
		return ErrForbidden
	}
	return nil
}
