package orchestrators

import (
	"context"
	"fmt"
	"sync"
	"time"

	"academy/internal/domain/attendance"
	"academy/internal/domain/center"
	"academy/internal/domain/member"
	"academy/internal/domain/operator"
	"academy/internal/domain/payment"
	"academy/internal/domain/session"
)

// statusErr mimics the HTTP client's status error.
type statusErr struct {
	code int
	msg  string
}

func (e *statusErr) Error() string       { return fmt.Sprintf("status %d: %s", e.code, e.msg) }
func (e *statusErr) UserMessage() string { return e.msg }
func (e *statusErr) HTTPStatus() int     { return e.code }

// mockAcademy implements every backend interface used by the orchestrators.
type mockAcademy struct {
	mu sync.Mutex

	token      string
	loginErr   error
	users      map[int]operator.Operator
	userErr    error
	centers    []center.Center
	centersErr error
	students   map[int][]member.Member
	coaches    []member.Member
	membersErr error

	markErr   map[int]error // by member id
	marks     []attendance.Mark
	inFlight  int
	maxFlight int
	markDelay time.Duration

	payErr   error
	payments []payment.Post

	exportCSV   []byte
	exportErr   error
	exportCalls int

	calls []string
}

func (m *mockAcademy) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

// Login implements AuthAPI.
// PRE: none
// POST: returns the configured token or loginErr
func (m *mockAcademy) Login(_ context.Context, _, _ string) (string, error) {
	m.record("Login")
	return m.token, m.loginErr
}

// GetUser implements ProfileAPI and RosterAPI.
// PRE: none
// POST: returns the user with the given id or an error
func (m *mockAcademy) GetUser(_ context.Context, _ string, id int) (operator.Operator, error) {
	m.record(fmt.Sprintf("GetUser %d", id))
	if m.userErr != nil {
		return operator.Operator{}, m.userErr
	}
	op, ok := m.users[id]
	if !ok {
		return operator.Operator{}, &statusErr{code: 404, msg: "User not found"}
	}
	return op, nil
}

// ListCenters implements RosterAPI.
func (m *mockAcademy) ListCenters(context.Context, string) ([]center.Center, error) {
	m.record("ListCenters")
	return m.centers, m.centersErr
}

// ListCenterStudents implements RosterAPI.
func (m *mockAcademy) ListCenterStudents(_ context.Context, _ string, centerID int) ([]member.Member, error) {
	m.record(fmt.Sprintf("ListCenterStudents %d", centerID))
	return m.students[centerID], m.membersErr
}

// ListCoaches implements RosterAPI.
func (m *mockAcademy) ListCoaches(context.Context, string) ([]member.Member, error) {
	m.record("ListCoaches")
	return m.coaches, m.membersErr
}

// MarkAttendance implements MarkAPI. It tracks peak concurrency.
// PRE: mark is valid
// POST: mark recorded; returns markErr[mark.MemberID]
func (m *mockAcademy) MarkAttendance(_ context.Context, _ string, mark attendance.Mark) error {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxFlight {
		m.maxFlight = m.inFlight
	}
	m.mu.Unlock()

	time.Sleep(m.markDelay)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
	m.marks = append(m.marks, mark)
	return m.markErr[mark.MemberID]
}

// PostPayment implements PaymentAPI.
func (m *mockAcademy) PostPayment(_ context.Context, _ string, p payment.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, p)
	return m.payErr
}

// ExportCenterAttendance implements ExportAPI.
func (m *mockAcademy) ExportCenterAttendance(context.Context, string, member.Kind, int, attendance.DateRange) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exportCalls++
	return m.exportCSV, m.exportErr
}

// mockSessions implements the session interfaces.
type mockSessions struct {
	saved   map[string]session.Session
	saveErr error
	swept   int64
}

func newMockSessions() *mockSessions {
	return &mockSessions{saved: map[string]session.Session{}}
}

// Save implements SessionSaver.
func (m *mockSessions) Save(_ context.Context, s session.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[s.ID] = s
	return nil
}

// Delete implements SessionDeleter.
func (m *mockSessions) Delete(_ context.Context, id string) error {
	delete(m.saved, id)
	return nil
}

// DeleteExpired implements ExpiredSessionDeleter.
func (m *mockSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, s := range m.saved {
		if s.Expired(now) {
			delete(m.saved, id)
			n++
		}
	}
	m.swept += n
	return n, nil
}

func boolPtr(b bool) *bool { return &b }

var testClock = time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)

func clockAt() time.Time { return testClock }
