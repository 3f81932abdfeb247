package services

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// APIError is a Web API response with status >= 400.
type APIError struct {
	Message string
	Status  int
	Reason  string
}

func (e *APIError) Error() string {
	return e.Message
}

// Expired reports whether the error is the API's expired-token response.
func (e *APIError) Expired() bool {
	return e.Status == http.StatusUnauthorized && e.Message == expiredTokenMessage
}

// AuthExchangeError is a non-2xx response from the token endpoint.
type AuthExchangeError struct {
	Status int
	Body   string
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed (%d): %s", e.Status, e.Body)
}

const expiredTokenMessage = "The access token expired"

// parseAPIError extracts error.message and error.reason from a JSON body.
//
// A body that is not JSON, or has no error.message, yields the raw text as the message.
// An empty body yields the status text.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: string(body)}
	if len(body) == 0 {
		apiErr.Message = http.StatusText(status)
	}

	if !gjson.ValidBytes(body) {
		return apiErr
	}

	result := gjson.ParseBytes(body)
	if msg := result.Get("error.message"); msg.Exists() {
		apiErr.Message = msg.String()
		apiErr.Reason = result.Get("error.reason").String()
	}

	return apiErr
}
