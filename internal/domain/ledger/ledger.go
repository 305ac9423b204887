package ledger

import (
	"errors"
	"sort"
)

// Decision is the pending attendance decision for one member.
type Decision int

// Decisions. Unset is never stored; it is the absence of a key.
const (
	Unset Decision = iota
	Present
	Absent
)

// String returns the label shown on the toggle button.
func (d Decision) String() string {
	switch d {
	case Present:
		return "Present"
	case Absent:
		return "Absent"
	}
	return "-"
}

// Mode selects the toggle cycle.
type Mode int

const (
	// TriState cycles Unset -> Present -> Absent -> Unset (student rosters).
	TriState Mode = iota
	// BiState cycles Unset/Absent -> Present -> Absent (coach rosters).
	BiState
)

// Domain errors
var (
	ErrUnknownMember = errors.New("member is not on the loaded roster")
)

// Entry is one pending decision as handed to the submitter.
type Entry struct {
	MemberID int
	Present  bool
}

// Ledger is the client-local mapping of pending attendance decisions.
// It is owned by a single screen; callers serialise access.
// INVARIANT: keys are a subset of the ids of the roster the screen last loaded
type Ledger struct {
	mode    Mode
	entries map[int]bool
}

// New creates an empty ledger using the given toggle cycle.
func New(mode Mode) *Ledger {
	return &Ledger{mode: mode, entries: make(map[int]bool)}
}

// Mode returns the toggle cycle in use.
func (l *Ledger) Mode() Mode {
	return l.mode
}

// Get returns the decision for a member (Unset when absent).
func (l *Ledger) Get(memberID int) Decision {
	present, ok := l.entries[memberID]
	switch {
	case !ok:
		return Unset
	case present:
		return Present
	default:
		return Absent
	}
}

// Toggle applies one step of the ledger's cycle to the member and returns the new decision.
// PRE: memberID belongs to the loaded roster (checked by the caller)
// POST: TriState removes the key on the third toggle; BiState never returns to Unset
func (l *Ledger) Toggle(memberID int) Decision {
	current := l.Get(memberID)
	switch l.mode {
	case BiState:
		if current == Present {
			l.entries[memberID] = false
		} else {
			l.entries[memberID] = true
		}
	default:
		switch current {
		case Unset:
			l.entries[memberID] = true
		case Present:
			l.entries[memberID] = false
		default:
			delete(l.entries, memberID)
		}
	}
	return l.Get(memberID)
}

// HasPending reports whether any decision is waiting for submission.
func (l *Ledger) HasPending() bool {
	return len(l.entries) > 0
}

// Len returns the number of pending decisions.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Clear empties the ledger.
// POST: HasPending() == false
func (l *Ledger) Clear() {
	l.entries = make(map[int]bool)
}

// Snapshot copies the pending decisions, ordered by member id.
// POST: later ledger mutations do not affect the returned slice
func (l *Ledger) Snapshot() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for id, present := range l.entries {
		out = append(out, Entry{MemberID: id, Present: present})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}

// Prune drops decisions for members that are not in roster.
// Returns the number of decisions removed.
func (l *Ledger) Prune(roster map[int]bool) int {
	removed := 0
	for id := range l.entries {
		if !roster[id] {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}
