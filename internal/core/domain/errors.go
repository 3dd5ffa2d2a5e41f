package domain

import "errors"

// Domain errors represent backup failures.
// Concrete errors wrap one of these so callers can classify them with errors.Is.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Fatal errors. The run cannot continue meaningfully.

	// ErrAuth indicates a missing or invalid credential, or a failed OAuth2 flow.
	ErrAuth = errors.New("authentication failed")

	// ErrDirectory indicates a group listing page could not be fetched.
	// The registry may be incomplete.
	ErrDirectory = errors.New("group listing failed")

	// Recoverable errors. Counted and the run continues.

	// ErrCredential indicates a credential could not be loaded or saved.
	ErrCredential = errors.New("credential storage failed")

	// ErrSettings indicates one or more settings batches failed as a whole.
	ErrSettings = errors.New("group settings retrieval failed")

	// ErrMembers indicates membership could not be listed for one or more groups.
	ErrMembers = errors.New("group membership retrieval failed")

	// ErrWrite indicates a CSV artifact could not be written.
	ErrWrite = errors.New("writing output failed")

	// ErrNotDirectory indicates the output path exists but is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// Credential state.

	// ErrNoCredential indicates no credential has been obtained or loaded.
	ErrNoCredential = errors.New("credential not found")

	// ErrCredentialInvalid indicates the credential was revoked or failed to refresh.
	ErrCredentialInvalid = errors.New("credential is invalid")

	// ErrCredentialExpired indicates the access token expired and cannot be refreshed.
	ErrCredentialExpired = errors.New("credential expired without refresh token")

	// ErrHistoryDisabled indicates no run history store is configured.
	ErrHistoryDisabled = errors.New("run history is disabled")
)

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrDirectory)
}
