package session

import (
	"errors"

	"github.com/jrsteele09/go-learn-client/internal/utils"
)

const (
	defaultLoginMessage    = "login failed"
	defaultRegisterMessage = "registration failed"
	defaultRefreshMessage  = "token refresh failed"
)

var (
	ErrAnonymous          = errors.New("no active session")
	ErrNoRefreshToken     = errors.New("no refresh token")
	ErrNoAuthenticator    = errors.New("no authenticator configured")
	ErrSessionChanged     = errors.New("session changed while refreshing")
	ErrProfileUnsupported = errors.New("authenticator cannot fetch the profile")
)

// registerFieldPrecedence is the order in which registration error fields are surfaced.
var registerFieldPrecedence = []string{"username", "email", "detail"}

// AuthenticationError is returned when the authentication collaborator rejects a login or refresh.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string { return e.Message }
func (e *AuthenticationError) Unwrap() error { return e.Err }

// ValidationError is returned when registration is rejected. Fields holds the structured error body
// as received.
type ValidationError struct {
	Message string
	Fields  map[string]any
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

// errorBody is implemented by collaborator errors that carry a decoded response body.
type errorBody interface {
	ErrorBody() map[string]any
}

func bodyOf(err error) map[string]any {
	var eb errorBody
	if errors.As(err, &eb) {
		return eb.ErrorBody()
	}
	return nil
}

func newAuthenticationError(err error, fallback string) *AuthenticationError {
	msg := fallback
	if detail, ok := utils.FirstString(bodyOf(err)["detail"]); ok {
		msg = detail
	}
	return &AuthenticationError{Message: msg, Err: err}
}

func newValidationError(err error) *ValidationError {
	body := bodyOf(err)
	return &ValidationError{Message: registerMessage(body), Fields: body, Err: err}
}

func registerMessage(body map[string]any) string {
	for _, field := range registerFieldPrecedence {
		if msg, ok := utils.FirstString(body[field]); ok {
			return msg
		}
	}
	return defaultRegisterMessage
}
