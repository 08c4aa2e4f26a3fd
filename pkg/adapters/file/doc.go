// Package file reads flow definitions and write-action catalogs from JSON or YAML
// files, and persists executions as JSON documents on the local filesystem.
package file
