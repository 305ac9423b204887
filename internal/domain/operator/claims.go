package operator

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when the bearer credential cannot be decoded.
var ErrMalformedToken = errors.New("bearer token is malformed")

// Claims are the fields the console reads from the bearer credential.
// The signature is never verified here; the academy backend does that on every call.
type Claims struct {
	UserID int
	Role   Role
}

// ClaimsFromToken decodes the token payload without verifying it.
// PRE: token is the access token returned by the backend login
// POST: Returns ErrMalformedToken when the token is not a JWT or has no usable sub
func ClaimsFromToken(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	id, err := subjectID(mc["sub"])
	if err != nil {
		return Claims{}, err
	}
	role, _ := mc["role"].(string)
	return Claims{UserID: id, Role: ParseRole(role)}, nil
}

// subjectID accepts numeric and string subjects; the backend has issued both.
func subjectID(v any) (int, error) {
	switch sub := v.(type) {
	case float64:
		if sub > 0 && sub == float64(int(sub)) {
			return int(sub), nil
		}
	case string:
		if id, err := strconv.Atoi(sub); err == nil && id > 0 {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: sub claim missing or not a positive integer", ErrMalformedToken)
}
