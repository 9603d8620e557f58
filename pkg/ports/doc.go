/*
Package ports defines the driven ports (interfaces) for the Swimlane board.

These interfaces decouple the board logic from external implementations, allowing
the same board to be persisted to memory, the filesystem or Redis.

# Key Interfaces

  - StateStore: Responsible for persisting and loading a BoardState under a key.
  - DistributedLocker: Provides distributed locking for boards shared by several replicas.
*/
package ports
