// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based defaults for command-line options
//   - CredentialStore: JSON-based credential persistence
package file
