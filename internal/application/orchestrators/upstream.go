package orchestrators

import "errors"

// upstreamError is satisfied by backend status errors. Declared here so use
// cases can read the backend's message without importing the HTTP client.
type upstreamError interface {
	error
	UserMessage() string
	HTTPStatus() int
}

// asUpstream unwraps err into an upstreamError, if it is one.
func asUpstream(err error) (upstreamError, bool) {
	var ue upstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// UserMessage returns the backend's message carried by err, or fallback.
func UserMessage(err error, fallback string) string {
	if ue, ok := asUpstream(err); ok && ue.UserMessage() != "" {
		return ue.UserMessage()
	}
	return fallback
}
