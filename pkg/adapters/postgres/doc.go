// Package postgres persists executions, conversation variables and the
// write-action catalog in PostgreSQL through lib/pq.
package postgres
