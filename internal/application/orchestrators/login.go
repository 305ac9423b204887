package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"academy/internal/domain/operator"
	"academy/internal/domain/session"
)

// AuthAPI exchanges credentials for a bearer token.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// ProfileAPI fetches an operator profile.
type ProfileAPI interface {
	GetUser(ctx context.Context, token string, userID int) (operator.Operator, error)
}

// SessionSaver persists a console session.
type SessionSaver interface {
	Save(ctx context.Context, s session.Session) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Username string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Auth     AuthAPI
	Profiles ProfileAPI
	Sessions SessionSaver
	Now      func() time.Time
	TTL      time.Duration
}

// LoginError is a rejected login with the message shown on the login form.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }
func (e *LoginError) Unwrap() error { return e.Err }

var (
	ErrCredentialsRequired = errors.New("Enter your username and password")
)

// ExecuteLogin authenticates against the backend and opens a console session.
// Role and user id come from the token's claims; the profile supplies name
// and home center and is optional.
// PRE: Username and Password are non-empty
// POST: Returns the saved session; on failure no session exists
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (session.Session, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return session.Session{}, ErrCredentialsRequired
	}

	token, err := deps.Auth.Login(ctx, username, input.Password)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "username", username, "error", err)
		return session.Session{}, &LoginError{Message: UserMessage(err, "Login failed"), Err: err}
	}

	claims, err := operator.ClaimsFromToken(token)
	if err != nil {
		slog.Warn("auth_event", "event", "login_bad_token", "username", username, "error", err)
		return session.Session{}, &LoginError{Message: "Login failed", Err: err}
	}

	op := operator.Operator{ID: claims.UserID, Role: claims.Role}
	if profile, err := deps.Profiles.GetUser(ctx, token, claims.UserID); err != nil {
		slog.Warn("auth_event", "event", "login_profile_unavailable", "user_id", claims.UserID, "error", err)
	} else {
		op.Name = profile.Name
		op.Center = profile.Center
	}

	sess, err := session.New(op, token, deps.Now(), deps.TTL)
	if err != nil {
		return session.Session{}, err
	}
	if err := deps.Sessions.Save(ctx, sess); err != nil {
		return session.Session{}, err
	}

	slog.Info("auth_event", "event", "login_success", "user_id", op.ID, "role", op.Role)
	return sess, nil
}

// SessionDeleter removes a console session.
type SessionDeleter interface {
	Delete(ctx context.Context, id string) error
}

// ExecuteLogout ends a session. The bearer token is simply forgotten; the
// backend has no revocation endpoint.
// POST: The session row is gone
func ExecuteLogout(ctx context.Context, sessionID string, sessions SessionDeleter) error {
	if sessionID == "" {
		return nil
	}
	if err := sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "logout", "session", sessionID[:min(8, len(sessionID))])
	return nil
}
