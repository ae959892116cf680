package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeAccountLocked      = "account_locked"
	ErrorCodeTwoFactorRequired  = "two_factor_required"
	ErrorCodeUnauthenticated    = "unauthenticated"
	ErrorCodeForbidden          = "forbidden"
	ErrorCodeRateLimited        = "rate_limit_exceeded"
	ErrorCodeServerError        = "server_error"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is the error body every endpoint returns. The server writes it
// with WriteError and the client parses it back, so both sides share the
// predefined values below.
type APIError struct {
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`

	// RemainingMinutes is only set for account_locked.
	RemainingMinutes int `json:"remaining_minutes,omitempty"`
}

func (e *APIError) Error() string {
	if e.RemainingMinutes > 0 {
		return fmt.Sprintf("%s: %s (retry in %d minutes)", e.Code, e.Description, e.RemainingMinutes)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on the error code, so errors.Is(err, ErrForbidden) works for
// errors parsed from a response.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes e as an uncacheable JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	if e.Code == ErrorCodeUnauthenticated {
		httpx.WriteUnauthenticated(w)
		return
	}

	body := httpx.ErrorBody{Code: e.Code, Description: e.Description}
	if e.RemainingMinutes > 0 {
		remaining := e.RemainingMinutes
		body.RemainingMinutes = &remaining
	}
	httpx.WriteJSON(w, e.StatusCode, body)
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required fields",
	}

	// ErrInvalidCredentials covers unknown users, wrong passwords and
	// credentials that failed transport decryption alike.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid username or password",
	}

	ErrTwoFactorRequired = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeTwoFactorRequired,
		Description: "a one-time code is required for this account",
	}

	// ErrUnauthenticated is returned for missing, malformed, forged and
	// expired tokens alike. Its body matches httpx.WriteUnauthenticated.
	ErrUnauthenticated = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthenticated,
		Description: "authentication required",
	}

	ErrForbidden = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeForbidden,
		Description: "insufficient permissions",
	}

	ErrAccountLocked = &APIError{
		StatusCode:  http.StatusLocked,
		Code:        ErrorCodeAccountLocked,
		Description: "too many failed attempts, the account is temporarily locked",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// AccountLocked returns the 423 error carrying the remaining cooldown.
func AccountLocked(remainingMinutes int) *APIError {
	e := *ErrAccountLocked
	e.RemainingMinutes = remainingMinutes
	return &e
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *APIError. Bodies that
// are not in the error shape still yield an error keyed on the status.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
