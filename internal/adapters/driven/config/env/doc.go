// Package env overlays environment variables on another configuration store.
//
// Variables use the GGBACKUP_ prefix and map onto the same keys as the
// configuration file, for example GGBACKUP_TARGET for "target",
// GGBACKUP_HISTORY_ENABLED for "history.enabled" and GGBACKUP_PAGE_SIZE
// for "api.page_size". A set variable wins over
// the file; command-line flags still win over both.
package env
