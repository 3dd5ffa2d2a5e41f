// Package domain defines the core entities for ggbackup.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Group: A directory group record, enriched in place with settings and members
//   - Registry: Groups keyed by email address
//   - Member: One membership entry of a group
//   - Credential: OAuth2 tokens plus the client configuration needed to refresh them
//   - BackupRun: One recorded backup run
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
