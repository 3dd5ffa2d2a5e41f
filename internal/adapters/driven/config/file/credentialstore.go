package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
)

// Ensure CredentialStore implements the interface.
var _ driven.CredentialStore = (*CredentialStore)(nil)

// CredentialStore keeps each credential in its own JSON file. Files are
// written with owner-only permissions since they hold a refresh token.
type CredentialStore struct{}

// NewCredentialStore creates a credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

// Load reads the credential at path.
func (s *CredentialStore) Load(path string) (*domain.Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoCredential, path)
		}
		return nil, err
	}

	var cred domain.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cred, nil
}

// Save writes cred to path, replacing the file atomically.
func (s *CredentialStore) Save(path string, cred *domain.Credential) error {
	if cred == nil {
		return domain.ErrNoCredential
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
