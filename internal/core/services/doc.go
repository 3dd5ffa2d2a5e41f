// Package services implements the driving port interfaces.
// Services contain the core backup logic and orchestrate
// calls to driven ports (adapters).
//
// The Collector builds the group registry, the Exporter writes it out as
// CSV, and the BackupService runs the two in sequence the way the CLI needs.
//
// Services are pure Go with no external API dependencies.
package services
