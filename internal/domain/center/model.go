package center

import "errors"

// ErrNoCenter is returned when an operator has no assigned center.
var ErrNoCenter = errors.New("operator has no assigned center")

// Center is an academy location. Read-only in the console; it only scopes rosters.
type Center struct {
	ID   int
	Name string
}

// First returns the first center of the list, which is the default selection
// for operators who can see every center.
// PRE: none
// POST: ok is false when centers is empty
func First(centers []Center) (Center, bool) {
	if len(centers) == 0 {
		return Center{}, false
	}
	return centers[0], true
}

// Contains reports whether id names one of the centers.
func Contains(centers []Center, id int) bool {
	for _, c := range centers {
		if c.ID == id {
			return true
		}
	}
	return false
}
