// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Directory: An authenticated session against the group directory and settings APIs
//   - SessionFactory: Creates a Directory from a credential
//   - FlowFactory / OAuthFlow: OAuth2 consent flow for a client secrets file
//   - AuthPrompter: Presents the authorization URL and collects the code
//   - CredentialStore: Credential file persistence
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunStore: Backup run history. Without it, runs are not recorded.
//   - ConfigStore: File defaults for CLI flags.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
