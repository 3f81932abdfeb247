// Package services talks to the Spotify accounts and Web API endpoints on behalf of a paired device.
//
// # Token Exchange
//
// [TokenExchange] wraps golang.org/x/oauth2 for the two grants the device needs: exchanging the
// authorization code captured by the pairing wizard, and refreshing an expired access token. Client
// credentials are sent in the form body ([oauth2.AuthStyleInParams]). A non-2xx response from the
// token endpoint is reported as [*AuthExchangeError].
//
// # Session
//
// [Session] executes one API call at a time. Every request carries the bearer token and, when a
// target device is set, a device_id query parameter. A 401 whose message is exactly
// "The access token expired" triggers one refresh, one save through the [models.CredentialStore]
// and one retry. Any other failure is returned as [*APIError].
//
// # Player
//
// [SpotifyService] implements [Player] (play, pause, devices) on top of a [Session].
//
// # Error Handling
//
//   - [*APIError] : final response status >= 400, with message and reason from the error body
//   - [*AuthExchangeError] : token endpoint rejected the grant
//   - [shared.ErrAPIRequest] : transport failure before any response was read
//   - [shared.ErrInvalidResponse] : a success body that is not JSON
package services
