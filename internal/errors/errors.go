package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned when required input fields are absent.
	ErrValidation = errors.New("missing data")
	// ErrInvalidInput is returned when input fields are present but malformed.
	ErrInvalidInput = errors.New("invalid data format")
	// ErrUserAlreadyExists is returned when registering an email that is taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no user matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrTokenMissing is returned when a request carries no access token.
	ErrTokenMissing = errors.New("token is missing")
	// ErrTokenExpired is returned when a correctly signed token is past its expiry.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid is returned for tampered, malformed or orphaned tokens.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrReadingNotFound is returned when a reading is absent or owned by someone else.
	ErrReadingNotFound = errors.New("reading not found")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{Message: e.Message}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything it does not
// recognize becomes a generic 500 so store details never reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, "Missing data.")
	case errors.Is(err, ErrInvalidInput):
		return NewHTTPError(http.StatusBadRequest, "Invalid data format.")
	case errors.Is(err, ErrUserAlreadyExists):
		return NewHTTPError(http.StatusConflict, "User with this email already exists.")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusUnauthorized, "User not found!")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, "Could not verify. Wrong password!")
	case errors.Is(err, ErrTokenMissing):
		return NewHTTPError(http.StatusUnauthorized, "Token is missing!")
	case errors.Is(err, ErrTokenExpired):
		return NewHTTPError(http.StatusUnauthorized, "Token has expired!")
	case errors.Is(err, ErrTokenInvalid):
		return NewHTTPError(http.StatusUnauthorized, "Token is invalid!")
	case errors.Is(err, ErrReadingNotFound):
		return NewHTTPError(http.StatusNotFound, "No reading found or unauthorized!")
	default:
		return NewHTTPError(http.StatusInternalServerError, "Internal server error.")
	}
}
