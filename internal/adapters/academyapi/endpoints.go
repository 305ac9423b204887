package academyapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"academy/internal/domain/attendance"
	"academy/internal/domain/center"
	"academy/internal/domain/member"
	"academy/internal/domain/operator"
	"academy/internal/domain/payment"
)

// ErrNoToken is returned when the login response carries no access token.
var ErrNoToken = errors.New("login response did not include an access token")

// Login exchanges credentials for an opaque bearer token.
// PRE: username and password are non-empty
// POST: Returns the token or a *StatusError carrying the backend message
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp loginResponse
	err := c.call(ctx, "academy.Login", "", http.MethodPost, "/auth/login",
		loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", ErrNoToken
	}
	return resp.AccessToken, nil
}

// GetUser fetches an operator profile.
func (c *Client) GetUser(ctx context.Context, token string, userID int) (operator.Operator, error) {
	var dto memberDTO
	if err := c.call(ctx, "academy.GetUser", token, http.MethodGet, fmt.Sprintf("/users/%d", userID), nil, &dto); err != nil {
		return operator.Operator{}, err
	}
	return operator.Operator{
		ID:     dto.ID,
		Name:   dto.Name,
		Role:   operator.ParseRole(dto.Role),
		Center: dto.Center.toDomain(),
	}, nil
}

// ListCenters fetches every center (CEO scope).
func (c *Client) ListCenters(ctx context.Context, token string) ([]center.Center, error) {
	var dtos []centerDTO
	if err := c.call(ctx, "academy.ListCenters", token, http.MethodGet, "/centers", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]center.Center, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, center.Center{ID: d.ID, Name: d.Name})
	}
	return out, nil
}

// ListCenterStudents fetches the students of one center, active or not.
func (c *Client) ListCenterStudents(ctx context.Context, token string, centerID int) ([]member.Member, error) {
	var dtos []memberDTO
	path := fmt.Sprintf("/centers/%d/students", centerID)
	if err := c.call(ctx, "academy.ListCenterStudents", token, http.MethodGet, path, nil, &dtos); err != nil {
		return nil, err
	}
	return membersToDomain(dtos), nil
}

// ListCoaches fetches every coach across all centers.
func (c *Client) ListCoaches(ctx context.Context, token string) ([]member.Member, error) {
	var dtos []memberDTO
	if err := c.call(ctx, "academy.ListCoaches", token, http.MethodGet, "/users/coaches", nil, &dtos); err != nil {
		return nil, err
	}
	return membersToDomain(dtos), nil
}

// MarkAttendance posts one attendance decision.
// PRE: mark.Validate() == nil
// POST: Returns nil only on a 2xx response
func (c *Client) MarkAttendance(ctx context.Context, token string, mark attendance.Mark) error {
	if mark.Kind == member.KindCoach {
		body := markCoachRequest{CoachID: mark.MemberID, Date: mark.Date, Present: mark.Present}
		return c.call(ctx, "academy.MarkCoachAttendance", token, http.MethodPost, "/coach-attendance/mark", body, nil)
	}
	body := markStudentRequest{StudentID: mark.MemberID, Date: mark.Date, Present: mark.Present}
	return c.call(ctx, "academy.MarkAttendance", token, http.MethodPost, "/attendance/mark", body, nil)
}

// PostPayment records a payment against a student.
// POST: The backend owns amountPaid/amountDue; callers re-fetch the roster
func (c *Client) PostPayment(ctx context.Context, token string, p payment.Post) error {
	path := fmt.Sprintf("/students/%d/payment", p.MemberID)
	return c.call(ctx, "academy.PostPayment", token, http.MethodPatch, path, paymentRequest{Amount: p.Amount}, nil)
}

// ListCenterAttendance fetches attendance records of a center in an inclusive range.
func (c *Client) ListCenterAttendance(ctx context.Context, token string, kind member.Kind, centerID int, r attendance.DateRange) ([]attendance.Record, error) {
	var dtos []recordDTO
	path := rangePath(attendancePrefix(kind)+"/center/", centerID, r)
	if err := c.call(ctx, "academy.ListAttendance."+string(kind), token, http.MethodGet, path, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]attendance.Record, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain(kind))
	}
	return out, nil
}

// ExportCenterAttendance fetches the server-rendered CSV for a center and range.
func (c *Client) ExportCenterAttendance(ctx context.Context, token string, kind member.Kind, centerID int, r attendance.DateRange) ([]byte, error) {
	path := rangePath(attendancePrefix(kind)+"/export/center/", centerID, r)
	return c.send(ctx, "academy.ExportAttendance."+string(kind), token, http.MethodGet, path, nil)
}

func attendancePrefix(kind member.Kind) string {
	if kind == member.KindCoach {
		return "/coach-attendance"
	}
	return "/attendance"
}

func rangePath(prefix string, centerID int, r attendance.DateRange) string {
	q := url.Values{}
	q.Set("start", r.Start)
	q.Set("end", r.End)
	return fmt.Sprintf("%s%d?%s", prefix, centerID, q.Encode())
}
