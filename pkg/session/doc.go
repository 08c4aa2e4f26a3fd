/*
Package session serializes access to conversation executions.

Turns of a single conversation must never interleave. The Manager keeps a
reference-counted mutex per conversation for the local process and, when a
DistributedLocker is configured, also takes a lock shared by every replica.
Different conversations proceed in parallel.
*/
package session
