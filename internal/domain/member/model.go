package member

import (
	"errors"
	"sort"
	"strings"

	"academy/internal/domain/center"
)

// Kind distinguishes the two rosters an operator can mark attendance for.
type Kind string

// Member kinds
const (
	KindStudent Kind = "student"
	KindCoach   Kind = "coach"
)

// Domain errors
var (
	ErrUnknownKind = errors.New("member kind must be 'student' or 'coach'")
)

// ParseKind converts a route or form value into a Kind.
// PRE: none
// POST: Returns ErrUnknownKind for anything other than student/coach (plural accepted)
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student", "students":
		return KindStudent, nil
	case "coach", "coaches":
		return KindCoach, nil
	}
	return "", ErrUnknownKind
}

// Plural returns the URL segment used for the kind ("students" / "coaches").
func (k Kind) Plural() string {
	if k == KindCoach {
		return "coaches"
	}
	return "students"
}

// Title returns a display label for headings.
func (k Kind) Title() string {
	if k == KindCoach {
		return "Coaches"
	}
	return "Students"
}

// Member is a student or coach as last returned by the academy backend.
// The console never mutates these values; every change is a server round-trip.
type Member struct {
	ID         int
	Name       string
	Category   string
	Age        int
	Center     *center.Center
	Active     *bool
	AmountPaid float64 // students only
	AmountDue  float64 // students only
}

// IsActive reports whether the member should appear on a roster.
// Only an explicit false deactivates; a member with no flag is active.
// INVARIANT: Member fields are not mutated
func (m Member) IsActive() bool {
	return m.Active == nil || *m.Active
}

// CenterID returns the member's center id, or 0 when unassigned.
func (m Member) CenterID() int {
	if m.Center == nil {
		return 0
	}
	return m.Center.ID
}

// CenterName returns the member's center name, or "-" when unassigned.
func (m Member) CenterName() string {
	if m.Center == nil || m.Center.Name == "" {
		return "-"
	}
	return m.Center.Name
}

// FilterActive drops members whose active flag is explicitly false.
// PRE: none
// POST: Returns a new slice preserving input order; never nil
func FilterActive(members []Member) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if m.IsActive() {
			out = append(out, m)
		}
	}
	return out
}

// FilterCenter keeps members assigned to the given center.
// PRE: centerID > 0
// POST: Members with no center are dropped
func FilterCenter(members []Member, centerID int) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if m.CenterID() == centerID {
			out = append(out, m)
		}
	}
	return out
}

// IDs returns the set of member ids in the roster.
func IDs(members []Member) map[int]bool {
	ids := make(map[int]bool, len(members))
	for _, m := range members {
		ids[m.ID] = true
	}
	return ids
}

// Find returns the member with the given id.
func Find(members []Member, id int) (Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// MatchesSearch reports whether the member's name or category contains q (case-insensitive).
// An empty query matches everyone.
func (m Member) MatchesSearch(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.Name), q) ||
		strings.Contains(strings.ToLower(m.Category), q)
}

// SortByName orders members by name, then id, in place.
func SortByName(members []Member) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := strings.ToLower(members[i].Name), strings.ToLower(members[j].Name)
		if a != b {
			return a < b
		}
		return members[i].ID < members[j].ID
	})
}
