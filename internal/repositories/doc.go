// Package repositories implements persistence for the single credential record.
//
// Two backends satisfy [models.CredentialStore]:
//   - [FileStore] : JSON file, replaced atomically through a temp file in the same directory
//   - [CredentialRepository] : SQLite row with id 1, written with an upsert inside a transaction
//
// The SQLite database also keeps a pairing history ([PairingRepository]) so the CLI can show
// when and with which application identity the device was last paired.
//
// Both backends report a missing or invalid record as an error wrapping [shared.ErrCredentialsUnavailable].
// Any other outcome (permissions, disk full) is surfaced from Save unchanged so callers decide whether to escalate.
package repositories
