// Package models defines the data model shared by the pairing wizard, the session layer and the credential stores.
//
//   - [Credentials] : the single persisted OAuth2 record (tokens, application identity, target device)
//   - [Device] : a playback endpoint reported by the player API, never persisted beyond its id
//   - [CredentialStore] : load/save contract implemented by the repositories package
//
// [ParseCredentials] is the one place a stored record is validated. Every failure it reports wraps
// [shared.ErrCredentialsUnavailable], which callers treat as "first run" and answer by pairing.
package models
