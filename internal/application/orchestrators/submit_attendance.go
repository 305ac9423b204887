package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"academy/internal/domain/attendance"
	"academy/internal/domain/ledger"
	"academy/internal/domain/member"
)

// MarkAPI posts one attendance decision.
type MarkAPI interface {
	MarkAttendance(ctx context.Context, token string, mark attendance.Mark) error
}

// SubmitAttendanceInput carries input for a batch submit.
type SubmitAttendanceInput struct {
	Token   string
	Kind    member.Kind
	Entries []ledger.Entry // ledger snapshot
}

// SubmitAttendanceDeps holds dependencies for SubmitAttendance.
type SubmitAttendanceDeps struct {
	API      MarkAPI
	Now      func() time.Time
	Location *time.Location // "today" is computed here; nil means time.Local
}

// MarkOutcome is the result of one mark request.
type MarkOutcome struct {
	MemberID int
	Present  bool
	Err      error
}

// BatchResult collects every outcome of a submit.
type BatchResult struct {
	Date     string
	Outcomes []MarkOutcome // in snapshot order
}

// Failed returns the outcomes that did not succeed.
func (b BatchResult) Failed() []MarkOutcome {
	var out []MarkOutcome
	for _, o := range b.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// OK reports whether every mark succeeded.
func (b BatchResult) OK() bool {
	return len(b.Outcomes) > 0 && len(b.Failed()) == 0
}

var (
	ErrNothingToSubmit = errors.New("no attendance has been marked")
	ErrBatchFailed     = errors.New("one or more attendance marks failed")
)

// ExecuteSubmitAttendance sends one mark per ledger entry, all at once, and
// waits for every request to settle.
// PRE: Entries come from a ledger snapshot; the caller holds the submit guard
// POST: Returns ErrBatchFailed (wrapping the first failure) unless every request returned 2xx
// INVARIANT: Marks are sent only for members in Entries, all dated the same day
func ExecuteSubmitAttendance(ctx context.Context, input SubmitAttendanceInput, deps SubmitAttendanceDeps) (BatchResult, error) {
	if len(input.Entries) == 0 {
		return BatchResult{}, ErrNothingToSubmit
	}

	result := BatchResult{
		Date:     attendance.Today(deps.Now(), deps.Location),
		Outcomes: make([]MarkOutcome, len(input.Entries)),
	}

	// In-flight marks are never cancelled, even if the operator navigates away.
	sendCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	for i, entry := range input.Entries {
		result.Outcomes[i] = MarkOutcome{MemberID: entry.MemberID, Present: entry.Present}
		mark := attendance.Mark{
			Kind:     input.Kind,
			MemberID: entry.MemberID,
			Date:     result.Date,
			Present:  entry.Present,
		}
		g.Go(func() error {
			err := mark.Validate()
			if err == nil {
				err = deps.API.MarkAttendance(sendCtx, input.Token, mark)
			}
			if err != nil {
				result.Outcomes[i].Err = err
				return fmt.Errorf("member %d: %w", mark.MemberID, err)
			}
			return nil
		})
	}
	firstErr := g.Wait()

	failed := len(result.Failed())
	if firstErr != nil {
		slog.Error("attendance_submit_failed",
			"kind", input.Kind,
			"date", result.Date,
			"total", len(result.Outcomes),
			"failed", failed,
			"error", firstErr,
		)
		return result, fmt.Errorf("%w: %w", ErrBatchFailed, firstErr)
	}

	slog.Info("attendance_event", "event", "batch_submitted", "kind", input.Kind, "date", result.Date, "count", len(result.Outcomes))
	return result, nil
}
