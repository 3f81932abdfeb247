package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Credential errors
	ErrCredentialsUnavailable = fmt.Errorf("credentials unavailable")
	ErrInvalidCredentials     = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed    = fmt.Errorf("authentication failed")
	ErrTokenExpired  = fmt.Errorf("access token expired")
	ErrRefreshFailed = fmt.Errorf("token refresh failed")
	ErrStateMismatch = fmt.Errorf("oauth state mismatch")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrInvalidResponse    = fmt.Errorf("invalid API response")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrDeviceNotFound     = fmt.Errorf("device not found")

	// Pairing errors
	ErrPairingIncomplete = fmt.Errorf("pairing not completed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
