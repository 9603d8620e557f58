/*
Package swimlane is a board state engine for swimlane (kanban) boards: ordered lanes holding
ordered blocks, with an audit history per block and position-based rules that allow or deny
moves between lanes.

# Concept

The board is the single source of truth. Every command (add, delete, move, rename, rule edits)
is applied to it atomically, and the resulting snapshot is written to a durable store right after.
Presentation (CLI, HTTP, MCP) lives in hosts that call the commands and render snapshots, so the
same engine can be embedded in any interface.

# Key Features

  - Audit History: moves, reorders and renames append timestamped entries to the block.
  - Movement Rules: first matching rule wins; unmatched moves are allowed.
  - Durable State: memory, file or Redis stores, with optional AES-GCM encryption at rest.
  - Stable Identity: blocks carry UUIDs, so hosts can address them without stale indices.

# Usage

	package main

	import (
		"context"
		"fmt"

		"github.com/aretw0/swimlane"
		"github.com/aretw0/swimlane/pkg/domain"
	)

	func main() {
		ctx := context.Background()
		board := swimlane.New(ctx)

		board.AddBlock(ctx, 0, "Write docs")
		board.AddRule(ctx, domain.NewRule(1, 3, domain.RuleDeny))

		if _, err := board.MoveBlock(ctx, 0, 0, 2, 0); err != nil {
			if denied, ok := swimlane.Denied(err); ok {
				fmt.Println("not allowed:", denied)
			}
		}
	}

A denied move is not a failure of the engine. Hosts surface it as a notice and carry on.
*/
package swimlane
