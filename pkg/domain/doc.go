/*
Package domain contains the core domain models and business logic for the Swimlane board.

It defines the fundamental entities of the board, such as Lanes, Blocks, movement Rules
and the per-block audit History. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Block: A work item owned by exactly one Lane, carrying its own History.
  - Lane: An ordered sequence of Blocks, addressed by position.
  - Rule: An allow/deny gate for moving Blocks between two lane positions (1-based).
  - BoardState: The unit of persistence (Lanes + Rules).
*/
package domain
