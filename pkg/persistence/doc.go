/*
Package persistence connects a board to its durable key-value slot.

The Adapter is attached to a board as a post-mutation hook: every successful
command saves a full snapshot. Loading and saving are fail-safe; faults are
logged and reported to an optional FaultObserver but never reach the caller.

Stores can be wrapped with the middleware subpackage (e.g. encryption at rest).
*/
package persistence
