package domain

import (
	"fmt"
	"time"
)

// HistoryAction tags an audit entry.
type HistoryAction string

const (
	HistoryEdit     HistoryAction = "Edit"
	HistoryMovement HistoryAction = "Movement"
)

// HistoryEntry is one audit record on a block. Entries are never mutated or reordered.
type HistoryEntry struct {
	Action    HistoryAction `json:"action"`
	Detail    string        `json:"detail"`
	Timestamp time.Time     `json:"timestamp"`
}

// Record appends exactly one entry to the block history.
func (b *Block) Record(action HistoryAction, detail string, at time.Time) {
	b.History = append(b.History, HistoryEntry{
		Action:    action,
		Detail:    detail,
		Timestamp: at.UTC(),
	})
}

// MovedDetail describes a cross-lane move.
func MovedDetail(source, target string) string {
	return fmt.Sprintf("Moved from %s to %s", source, target)
}

// ReorderedDetail describes a reorder inside one lane.
// Positions are 0-based indices; the text shows them 1-based.
func ReorderedDetail(from, to int, lane string) string {
	return fmt.Sprintf("Reordered from position %d to position %d in %s", from+1, to+1, lane)
}

// ChangedDetail describes a rename.
func ChangedDetail(oldName, newName string) string {
	return fmt.Sprintf("Changed from %s to %s", oldName, newName)
}
