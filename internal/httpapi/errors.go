package httpapi

import (
	"errors"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// HTTPStatus maps engine errors to status codes. Authentication verdicts
// all map to 401; use it only after the account lookup errors specific to a
// route have been handled.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, goSession.ErrInvalidInput),
		errors.Is(err, goSession.ErrPasswordPolicy),
		errors.Is(err, goSession.ErrNoPendingOTP),
		errors.Is(err, goSession.ErrOTPExpired),
		errors.Is(err, goSession.ErrInvalidOTP):
		return http.StatusBadRequest
	case errors.Is(err, goSession.ErrInvalidCredentials),
		goSession.IsAuthenticationFailure(err):
		return http.StatusUnauthorized
	case errors.Is(err, goSession.ErrAccountUnconfirmed):
		return http.StatusForbidden
	case errors.Is(err, goSession.ErrAccountExists),
		errors.Is(err, goSession.ErrAlreadyConfirmed):
		return http.StatusConflict
	case errors.Is(err, goSession.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, goSession.ErrUnavailable),
		errors.Is(err, goSession.ErrEngineNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the stable machine readable code sent with error responses.
func errorCode(err error) string {
	switch {
	case goSession.IsAuthenticationFailure(err):
		return "unauthorized"
	case errors.Is(err, goSession.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, goSession.ErrAccountUnconfirmed):
		return "account_unconfirmed"
	case errors.Is(err, goSession.ErrAccountExists):
		return "account_exists"
	case errors.Is(err, goSession.ErrAlreadyConfirmed):
		return "already_confirmed"
	case errors.Is(err, goSession.ErrNoPendingOTP):
		return "no_pending_otp"
	case errors.Is(err, goSession.ErrOTPExpired):
		return "otp_expired"
	case errors.Is(err, goSession.ErrInvalidOTP):
		return "invalid_otp"
	case errors.Is(err, goSession.ErrPasswordPolicy):
		return "password_policy"
	case errors.Is(err, goSession.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, goSession.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, goSession.ErrUnavailable), errors.Is(err, goSession.ErrEngineNotReady):
		return "unavailable"
	default:
		return "internal_error"
	}
}

// errorMessage never echoes err.Error(), which may carry backend details.
func errorMessage(err error) string {
	switch errorCode(err) {
	case "unauthorized":
		return "Unauthorized"
	case "invalid_credentials":
		return "Invalid email or password"
	case "account_unconfirmed":
		return "Verify your account"
	case "account_exists":
		return "Email already exists"
	case "already_confirmed":
		return "Account already confirmed"
	case "no_pending_otp":
		return "No confirmation code pending"
	case "otp_expired":
		return "Expired OTP"
	case "invalid_otp":
		return "Invalid OTP"
	case "password_policy":
		return "Password does not meet policy"
	case "invalid_input":
		return "Invalid request payload"
	case "rate_limited":
		return "Too many attempts, try again later"
	case "unavailable":
		return "Service unavailable"
	default:
		return "Internal server error"
	}
}
