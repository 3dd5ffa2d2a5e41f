package driven

import "github.com/custodia-labs/ggbackup/internal/core/domain"

// CredentialStore persists credentials between runs.
type CredentialStore interface {
	// Load reads a credential. Returns domain.ErrNoCredential if the file
	// does not exist.
	Load(path string) (*domain.Credential, error)

	// Save writes a credential, replacing any existing file.
	Save(path string, cred *domain.Credential) error
}
