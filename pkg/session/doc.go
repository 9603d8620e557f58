/*
Package session serializes access to many boards sharing one store.

Each board key gets a local, reference-counted mutex. With a distributed locker
configured, the manager also takes a cross-replica lock and reloads the board from
the store before running the caller, so replicas never act on a stale copy.
*/
package session
