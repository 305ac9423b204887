package academyapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"academy/internal/domain/attendance"
	"academy/internal/domain/center"
	"academy/internal/domain/member"
)

// number accepts a JSON number, a numeric string (decimal columns) or null.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("number %q: %w", s, err)
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

type centerDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (c *centerDTO) toDomain() *center.Center {
	if c == nil {
		return nil
	}
	return &center.Center{ID: c.ID, Name: c.Name}
}

type memberDTO struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Age        number     `json:"age"`
	Role       string     `json:"role"`
	Center     *centerDTO `json:"center"`
	Active     *bool      `json:"active"`
	AmountPaid number     `json:"amountPaid"`
	AmountDue  number     `json:"amountDue"`
}

func (m memberDTO) toDomain() member.Member {
	return member.Member{
		ID:         m.ID,
		Name:       m.Name,
		Category:   m.Category,
		Age:        int(m.Age),
		Center:     m.Center.toDomain(),
		Active:     m.Active,
		AmountPaid: float64(m.AmountPaid),
		AmountDue:  float64(m.AmountDue),
	}
}

func membersToDomain(in []memberDTO) []member.Member {
	out := make([]member.Member, 0, len(in))
	for _, m := range in {
		out = append(out, m.toDomain())
	}
	return out
}

// recordDTO is one attendance record; exactly one of Student / Coach is set.
type recordDTO struct {
	Student *memberDTO `json:"student"`
	Coach   *memberDTO `json:"coach"`
	Date    string     `json:"date"`
	Present bool       `json:"present"`
}

func (r recordDTO) toDomain(kind member.Kind) attendance.Record {
	subject := r.Student
	if kind == member.KindCoach {
		subject = r.Coach
	}
	rec := attendance.Record{Date: isoDate(r.Date), Present: r.Present}
	if subject != nil {
		rec.Member = attendance.MemberSnapshot{
			ID:       subject.ID,
			Name:     subject.Name,
			Category: subject.Category,
		}
		if subject.Center != nil {
			rec.Member.CenterName = subject.Center.Name
		}
	}
	return rec
}

// isoDate trims a timestamp ("2024-03-01T00:00:00.000Z") to its date part.
func isoDate(s string) string {
	if len(s) > len(attendance.DateLayout) && s[len(attendance.DateLayout)] == 'T' {
		return s[:len(attendance.DateLayout)]
	}
	return s
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type markStudentRequest struct {
	StudentID int    `json:"studentId"`
	Date      string `json:"date"`
	Present   bool   `json:"present"`
}

type markCoachRequest struct {
	CoachID int    `json:"coachId"`
	Date    string `json:"date"`
	Present bool   `json:"present"`
}

type paymentRequest struct {
	Amount float64 `json:"amount"`
}
