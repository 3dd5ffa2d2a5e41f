// Package groups implements the group directory session used by the backup.
//
// Group and member listings go through the Admin SDK Directory API. Settings
// lookups are sent to the Groups Settings API as multipart/mixed batch
// requests of up to 1000 sub-requests each; the Go client has no batch
// support, so the batch envelope is built and parsed here.
package groups
