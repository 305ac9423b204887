package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"academy/internal/application/orchestrators"
	"academy/internal/domain/center"
	"academy/internal/domain/ledger"
	"academy/internal/domain/member"
	"academy/internal/domain/operator"
	"academy/internal/domain/payment"
)

// State is the lifecycle position of a screen.
type State int

// States
const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateEditing
	StateSubmitting
)

// String returns the state name used in logs and templates.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	}
	return "idle"
}

// Workflow errors
var (
	ErrSubmitInFlight     = errors.New("a submission is already in progress")
	ErrNotLoaded          = errors.New("roster has not been loaded")
	ErrCenterNotAllowed   = errors.New("center is outside the operator's scope")
	ErrPaymentsNotAllowed = errors.New("payments cannot be recorded on this roster")
)

// Backend bundles the dependencies a screen needs from the academy backend.
type Backend struct {
	Roster  orchestrators.LoadRosterDeps
	Submit  orchestrators.SubmitAttendanceDeps
	Payment orchestrators.PostPaymentDeps
}

// Owner identifies the operator a screen acts for.
type Owner struct {
	Token     string
	Operator  operator.Operator
	// ExpiresAt is the owning session's expiry; zero means unknown.
	ExpiresAt time.Time
}

// PaymentStaging is the student a payment is being entered for.
type PaymentStaging struct {
	Member member.Member
	Amount string
}

// Screen is one attendance page. All methods are safe for concurrent use; the
// backend is never called with the lock held.
// INVARIANT: ledger keys are a subset of the ids of the current roster
type Screen struct {
	id      string
	owner   Owner
	caps    operator.Capabilities
	backend Backend

	mu       sync.Mutex
	state    State
	inFlight bool
	roster   orchestrators.Roster
	rosterID map[int]bool
	ledger   *ledger.Ledger
	staging  *PaymentStaging
	notices  []Notice
}

// NewScreen creates an idle screen for the roster described by caps.
// PRE: caps came from operator.CapabilitiesFor
// POST: State() == StateIdle; the ledger uses TriState for students and BiState for coaches
func NewScreen(owner Owner, caps operator.Capabilities, backend Backend) *Screen {
	mode := ledger.TriState
	if caps.MemberKind == member.KindCoach {
		mode = ledger.BiState
	}
	return &Screen{
		id:       uuid.NewString(),
		owner:    owner,
		caps:     caps,
		backend:  backend,
		rosterID: map[int]bool{},
		ledger:   ledger.New(mode),
		roster:   orchestrators.Roster{Members: []member.Member{}},
	}
}

// ID returns the screen's identifier.
func (s *Screen) ID() string { return s.id }

// Kind returns the roster kind the screen marks.
func (s *Screen) Kind() member.Kind { return s.caps.MemberKind }

// Capabilities returns the screen's capability descriptor.
func (s *Screen) Capabilities() operator.Capabilities { return s.caps }

// Load resolves scope and fetches the roster.
// PRE: none
// POST: State() is Ready or Editing; a fetch failure leaves an empty roster
func (s *Screen) Load(ctx context.Context, preferredCenterID int) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	s.state = StateLoading
	s.mu.Unlock()

	roster := orchestrators.ExecuteLoadRoster(ctx, orchestrators.LoadRosterInput{
		Token:             s.owner.Token,
		OperatorID:        s.owner.Operator.ID,
		Role:              s.owner.Operator.Role,
		Kind:              s.caps.MemberKind,
		PreferredCenterID: preferredCenterID,
	}, s.backend.Roster)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceRoster(roster)
	return nil
}

// SelectCenter switches the roster to another center.
// PRE: the screen is loaded
// POST: Members are re-fetched for the center; decisions for members not on the new roster are dropped
func (s *Screen) SelectCenter(ctx context.Context, centerID int) error {
	s.mu.Lock()
	switch {
	case s.inFlight:
		s.mu.Unlock()
		return ErrSubmitInFlight
	case s.state == StateIdle:
		s.mu.Unlock()
		return ErrNotLoaded
	case !s.caps.CanSeeAllCenters || !center.Contains(s.roster.Centers, centerID):
		s.mu.Unlock()
		return ErrCenterNotAllowed
	}
	roster := s.roster
	for _, c := range roster.Centers {
		if c.ID == centerID {
			roster.Selected = c
		}
	}
	s.state = StateLoading
	s.mu.Unlock()

	roster.Members = s.fetchMembers(ctx, centerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceRoster(roster)
	return nil
}

// Toggle cycles one member's pending decision.
// PRE: the screen is loaded
// POST: Returns ledger.ErrUnknownMember for ids outside the roster
func (s *Screen) Toggle(memberID int) (ledger.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ledger.Unset, ErrSubmitInFlight
	}
	if !s.rosterID[memberID] {
		return ledger.Unset, ledger.ErrUnknownMember
	}
	d := s.ledger.Toggle(memberID)
	s.settle()
	return d, nil
}

// Submit sends the ledger snapshot as one batch.
// PRE: no other submit is outstanding on this screen
// POST: On success the ledger is cleared and the roster refreshed; on failure
// the ledger is kept intact for a retry
func (s *Screen) Submit(ctx context.Context) (orchestrators.BatchResult, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return orchestrators.BatchResult{}, ErrSubmitInFlight
	}
	if !s.ledger.HasPending() {
		s.mu.Unlock()
		return orchestrators.BatchResult{}, orchestrators.ErrNothingToSubmit
	}
	s.inFlight = true
	s.state = StateSubmitting
	entries := s.ledger.Snapshot()
	centerID := s.roster.Selected.ID
	s.mu.Unlock()

	// The batch and the refresh after it outlive the operator's request.
	ctx = context.WithoutCancel(ctx)

	result, err := orchestrators.ExecuteSubmitAttendance(ctx, orchestrators.SubmitAttendanceInput{
		Token:   s.owner.Token,
		Kind:    s.caps.MemberKind,
		Entries: entries,
	}, s.backend.Submit)

	okMsg, failMsg := submitMessages(s.caps.MemberKind == member.KindCoach)
	if err != nil {
		s.mu.Lock()
		s.inFlight = false
		s.notices = append(s.notices, failure(failMsg))
		s.settle()
		s.mu.Unlock()
		return result, err
	}

	s.mu.Lock()
	s.ledger.Clear()
	s.notices = append(s.notices, success(okMsg))
	s.mu.Unlock()

	var members []member.Member
	if centerID > 0 {
		members = s.fetchMembers(ctx, centerID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if centerID > 0 {
		roster := s.roster
		roster.Members = members
		s.replaceRoster(roster)
	} else {
		s.settle()
	}
	return result, nil
}

// OpenPayment stages a payment for a student on the roster.
// PRE: the roster allows payments
// POST: The amount field is reset
func (s *Screen) OpenPayment(memberID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.caps.CanEditPayments {
		return ErrPaymentsNotAllowed
	}
	m, ok := member.Find(s.roster.Members, memberID)
	if !ok {
		return ledger.ErrUnknownMember
	}
	s.staging = &PaymentStaging{Member: m}
	return nil
}

// ClosePayment discards the staged payment.
func (s *Screen) ClosePayment() {
	s.mu.Lock()
	s.staging = nil
	s.mu.Unlock()
}

// SubmitPayment posts the staged payment with the raw amount typed by the operator.
// PRE: OpenPayment was called
// POST: A local validation failure keeps the staging open and makes no call;
// success closes the staging and refreshes the roster
func (s *Screen) SubmitPayment(ctx context.Context, raw string) (payment.Post, error) {
	s.mu.Lock()
	if !s.caps.CanEditPayments {
		s.mu.Unlock()
		return payment.Post{}, ErrPaymentsNotAllowed
	}
	memberID := 0
	if s.staging != nil {
		memberID = s.staging.Member.ID
		s.staging.Amount = raw
	}
	centerID := s.roster.Selected.ID
	s.mu.Unlock()

	post, err := orchestrators.ExecutePostPayment(ctx, orchestrators.PostPaymentInput{
		Token:     s.owner.Token,
		Role:      s.owner.Operator.Role,
		MemberID:  memberID,
		RawAmount: raw,
	}, s.backend.Payment)
	if err != nil {
		s.mu.Lock()
		s.notices = append(s.notices, failure(err.Error()))
		s.mu.Unlock()
		return payment.Post{}, err
	}

	var members []member.Member
	if centerID > 0 {
		members = s.fetchMembers(ctx, centerID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.staging = nil
	s.notices = append(s.notices, success("Payment recorded successfully"))
	if centerID > 0 && !s.inFlight {
		roster := s.roster
		roster.Members = members
		s.replaceRoster(roster)
	}
	return post, nil
}

// TakeNotices returns and clears the pending notices.
func (s *Screen) TakeNotices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

// View is a consistent copy of the screen for rendering.
type View struct {
	ID        string
	State     State
	Caps      operator.Capabilities
	Roster    orchestrators.Roster
	Decisions map[int]ledger.Decision
	Pending   int
	Staging   *PaymentStaging
	InFlight  bool
}

// Decision returns the pending decision for a member.
func (v View) Decision(memberID int) ledger.Decision {
	return v.Decisions[memberID]
}

// Snapshot copies the screen state.
func (s *Screen) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:        s.id,
		State:     s.state,
		Caps:      s.caps,
		Roster:    s.roster,
		Decisions: make(map[int]ledger.Decision, s.ledger.Len()),
		Pending:   s.ledger.Len(),
		InFlight:  s.inFlight,
	}
	v.Roster.Members = append([]member.Member(nil), s.roster.Members...)
	for _, e := range s.ledger.Snapshot() {
		v.Decisions[e.MemberID] = s.ledger.Get(e.MemberID)
	}
	if s.staging != nil {
		staged := *s.staging
		v.Staging = &staged
	}
	return v
}

func (s *Screen) fetchMembers(ctx context.Context, centerID int) []member.Member {
	return orchestrators.ExecuteLoadMembers(ctx, orchestrators.LoadMembersInput{
		Token:    s.owner.Token,
		Kind:     s.caps.MemberKind,
		CenterID: centerID,
	}, s.backend.Roster)
}

// replaceRoster swaps in a fresh roster snapshot. Caller holds s.mu.
func (s *Screen) replaceRoster(roster orchestrators.Roster) {
	s.roster = roster
	s.rosterID = member.IDs(roster.Members)
	if dropped := s.ledger.Prune(s.rosterID); dropped > 0 {
		slog.Info("ledger_pruned", "screen_id", s.id, "dropped", dropped)
	}
	if s.staging != nil && !s.rosterID[s.staging.Member.ID] {
		s.staging = nil
	}
	s.settle()
}

// settle derives Ready or Editing from the ledger. Caller holds s.mu.
func (s *Screen) settle() {
	switch {
	case s.inFlight:
		s.state = StateSubmitting
	case s.ledger.HasPending():
		s.state = StateEditing
	default:
		s.state = StateReady
	}
}
