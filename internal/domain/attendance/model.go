package attendance

import (
	"errors"
	"fmt"
	"time"

	"academy/internal/domain/member"
)

// DateLayout is the ISO calendar date format used on the wire.
const DateLayout = "2006-01-02"

// MaxHistoryDays bounds the inclusive day span of an on-screen history query.
// Exports are not bounded.
const MaxHistoryDays = 31

// Domain errors. Messages are shown to operators as-is.
var (
	ErrCenterRequired = errors.New("Select a center first")
	ErrDatesRequired  = errors.New("Start and end dates are required")
	ErrInvalidDate    = errors.New("Dates must be in YYYY-MM-DD format")
	ErrRangeInverted  = errors.New("End date must not be before start date")
	ErrRangeTooLong   = errors.New("Max allowed range is 1 month. Use export for larger ranges.")
	ErrEmptyMemberID  = errors.New("attendance must be associated with a member")

	ErrExportCenterRequired = errors.New("Select a center to export")
	ErrExportDatesRequired  = errors.New("Start and end dates are required for export")
)

// Mark is one attendance decision sent to the backend.
type Mark struct {
	Kind     member.Kind
	MemberID int
	Date     string // YYYY-MM-DD
	Present  bool
}

// Validate checks if the Mark has valid data.
// PRE: Mark struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: MemberID must be positive, Date must parse as YYYY-MM-DD
func (m Mark) Validate() error {
	if m.MemberID <= 0 {
		return ErrEmptyMemberID
	}
	if _, err := time.Parse(DateLayout, m.Date); err != nil {
		return ErrInvalidDate
	}
	if m.Kind != member.KindStudent && m.Kind != member.KindCoach {
		return member.ErrUnknownKind
	}
	return nil
}

// Today returns the calendar date of now in loc as YYYY-MM-DD.
// A nil loc means time.Local.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return now.In(loc).Format(DateLayout)
}

// DateRange is an inclusive start/end pair of calendar dates.
type DateRange struct {
	Start string
	End   string
}

// DaySpan returns the inclusive number of days covered by the range.
// PRE: Start and End are non-empty
// POST: Returns ErrInvalidDate when either bound does not parse
func (r DateRange) DaySpan() (int, error) {
	start, err := time.Parse(DateLayout, r.Start)
	if err != nil {
		return 0, ErrInvalidDate
	}
	end, err := time.Parse(DateLayout, r.End)
	if err != nil {
		return 0, ErrInvalidDate
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

// validateBounds checks presence, format and order of the bounds.
func (r DateRange) validateBounds() (int, error) {
	if r.Start == "" || r.End == "" {
		return 0, ErrDatesRequired
	}
	span, err := r.DaySpan()
	if err != nil {
		return 0, err
	}
	if span < 1 {
		return 0, ErrRangeInverted
	}
	return span, nil
}

// ValidateForHistory checks a history query before any network call.
// PRE: none
// POST: Returns ErrCenterRequired, ErrDatesRequired, ErrInvalidDate, ErrRangeInverted or ErrRangeTooLong
func ValidateForHistory(centerID int, r DateRange) error {
	if centerID <= 0 {
		return ErrCenterRequired
	}
	span, err := r.validateBounds()
	if err != nil {
		return err
	}
	if span > MaxHistoryDays {
		return ErrRangeTooLong
	}
	return nil
}

// ValidateForExport checks an export query. Exports have no span limit.
func ValidateForExport(centerID int, r DateRange) error {
	if centerID <= 0 {
		return ErrExportCenterRequired
	}
	_, err := r.validateBounds()
	if errors.Is(err, ErrDatesRequired) {
		return ErrExportDatesRequired
	}
	return err
}

// ExportFilename is the download name for a center export. It depends on the
// center id only, never on the date range.
func ExportFilename(kind member.Kind, centerID int) string {
	if kind == member.KindCoach {
		return fmt.Sprintf("coach-attendance-center-%d.csv", centerID)
	}
	return fmt.Sprintf("attendance-center-%d.csv", centerID)
}
