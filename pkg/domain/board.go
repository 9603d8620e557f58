package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultLaneCount is the number of lanes a fresh board starts with.
const DefaultLaneCount = 3

// Block is a work item. It belongs to exactly one Lane at a time.
type Block struct {
	// ID is stable across moves and renames.
	ID string `json:"id,omitempty"`

	// Name is persisted as "divName" to stay compatible with existing board blobs.
	Name string `json:"divName"`

	// History is append-only.
	History []HistoryEntry `json:"history"`
}

// Lane is an ordered sequence of blocks.
type Lane struct {
	ID    string  `json:"id,omitempty"`
	Name  string  `json:"name"`
	Items []Block `json:"items"`
}

// BoardState is the full board snapshot: the unit of persistence.
type BoardState struct {
	Lanes []Lane `json:"lanes"`
	Rules []Rule `json:"rules"`

	// Sealed carries an encrypted envelope written by persistence middleware.
	// It is empty for plain boards.
	Sealed string `json:"__encrypted__,omitempty"`
}

// NewBlock creates a block with a fresh ID and an empty history.
func NewBlock(name string) Block {
	return Block{
		ID:      uuid.NewString(),
		Name:    name,
		History: []HistoryEntry{},
	}
}

// NewLane creates an empty lane with a fresh ID.
func NewLane(name string) Lane {
	return Lane{
		ID:    uuid.NewString(),
		Name:  name,
		Items: []Block{},
	}
}

// DefaultState returns the board a user sees on first start:
// three empty lanes named "Lane 1".."Lane 3" and no rules.
func DefaultState() *BoardState {
	s := &BoardState{
		Lanes: make([]Lane, 0, DefaultLaneCount),
		Rules: []Rule{},
	}
	for i := 1; i <= DefaultLaneCount; i++ {
		s.Lanes = append(s.Lanes, NewLane(fmt.Sprintf("Lane %d", i)))
	}
	return s
}

// Normalize fills in what older or hand-written blobs may lack:
// missing IDs get generated and nil collections become empty ones.
func (s *BoardState) Normalize() {
	if s.Lanes == nil {
		s.Lanes = []Lane{}
	}
	if s.Rules == nil {
		s.Rules = []Rule{}
	}
	for i := range s.Lanes {
		lane := &s.Lanes[i]
		if lane.ID == "" {
			lane.ID = uuid.NewString()
		}
		if lane.Items == nil {
			lane.Items = []Block{}
		}
		for j := range lane.Items {
			block := &lane.Items[j]
			if block.ID == "" {
				block.ID = uuid.NewString()
			}
			if block.History == nil {
				block.History = []HistoryEntry{}
			}
		}
	}
}

// Clone returns a deep copy. Callers get clones so they can never
// mutate the canonical state through a snapshot.
func (s *BoardState) Clone() *BoardState {
	if s == nil {
		return nil
	}
	out := &BoardState{
		Lanes:  make([]Lane, len(s.Lanes)),
		Rules:  append([]Rule{}, s.Rules...),
		Sealed: s.Sealed,
	}
	for i, lane := range s.Lanes {
		items := make([]Block, len(lane.Items))
		for j, block := range lane.Items {
			block.History = append([]HistoryEntry{}, block.History...)
			items[j] = block
		}
		lane.Items = items
		out.Lanes[i] = lane
	}
	return out
}

// LaneCount returns the number of lanes.
func (s *BoardState) LaneCount() int {
	return len(s.Lanes)
}

// BlockCount returns the total number of blocks across all lanes.
func (s *BoardState) BlockCount() int {
	n := 0
	for _, lane := range s.Lanes {
		n += len(lane.Items)
	}
	return n
}

// Locate resolves a block ID to its current lane and block positions.
// Positions shift on every mutation, so resolve right before use.
func (s *BoardState) Locate(blockID string) (laneIndex, blockIndex int, ok bool) {
	for i, lane := range s.Lanes {
		for j, block := range lane.Items {
			if block.ID == blockID {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}

// LaneIndex resolves a lane ID to its position.
func (s *BoardState) LaneIndex(laneID string) (int, bool) {
	for i, lane := range s.Lanes {
		if lane.ID == laneID {
			return i, true
		}
	}
	return -1, false
}
