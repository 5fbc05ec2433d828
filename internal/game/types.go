package game

import (
	"sync"
	"time"
)

const (
	// DefaultRoomName is used when a room is created without a name.
	DefaultRoomName = "Scrum Poker"
	// DefaultUserName is used when a participant joins without a name.
	DefaultUserName = "Anonymous"
)

// Room is a single voting session. Mutations go through the Manager,
// which holds the room mutex while applying them.
type Room struct {
	ID           string
	Name         string
	CreatedAt    time.Time
	CardSet      string
	Revealed     bool
	Participants map[string]*Participant

	// order tracks participant ids in join order so snapshots and the
	// analysis rendering stay deterministic.
	order []string

	mu sync.Mutex
}

// Participant is one voting member of a room. Identity outlives any
// single connection; ConnID tracks the connection currently serving it
// so disconnects can be attributed.
type Participant struct {
	ID     string
	Name   string
	Vote   *string // nil means "has not voted"
	ConnID string
}

// State is the sanitized snapshot broadcast to clients. It is the only
// representation of room state that leaves the engine; participant
// votes stay nil until the room is revealed.
type State struct {
	RoomID       string             `json:"room_id"`
	RoomName     string             `json:"room_name"`
	Revealed     bool               `json:"revealed"`
	CardSet      string             `json:"card_set"`
	Cards        []string           `json:"cards"`
	Participants []ParticipantState `json:"participants"`
}

type ParticipantState struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Voted bool    `json:"voted"`
	Vote  *string `json:"vote"`
}
