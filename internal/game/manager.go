package game

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kevmo/sprintdeck/internal/deck"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotRevealed  = errors.New("votes not revealed yet")
)

// Manager owns the process-wide room map and applies all room
// mutations. The store lock is held for the whole of every operation,
// read for per-room mutations and write for deletions, so a room can
// never be deleted out from under a concurrent mutation; each room
// carries its own mutex so read-locked operations on different rooms
// don't contend.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewManager() *Manager {
	return &Manager{rooms: make(map[string]*Room)}
}

// CreateRoom registers a new room and returns its id. A blank name
// falls back to DefaultRoomName, an unknown card set to the default
// set. The room starts unrevealed with no participants.
func (m *Manager) CreateRoom(name, cardSet string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultRoomName
	}

	id := newID(8)
	for m.rooms[id] != nil {
		id = newID(8)
	}
	m.rooms[id] = &Room{
		ID:           id,
		Name:         name,
		CreatedAt:    time.Now().UTC(),
		CardSet:      deck.Resolve(cardSet),
		Revealed:     false,
		Participants: make(map[string]*Participant),
	}
	return id
}

// Exists reports whether a room id is currently registered.
func (m *Manager) Exists(roomID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[roomID] != nil
}

// Len returns the number of live rooms.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Join adds a participant to a room, or reattaches an existing one.
// Rejoining with a known user id keeps any vote already cast, so a
// reconnect does not lose state. The connection id is recorded so a
// later disconnect can be attributed to this participant.
func (m *Manager) Join(roomID, userID, name, connID string) (string, State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room := m.rooms[roomID]
	if room == nil {
		return "", State{}, ErrRoomNotFound
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultUserName
	}
	if userID == "" {
		userID = newID(12)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if existing := room.Participants[userID]; existing != nil {
		existing.Name = name
		existing.ConnID = connID
	} else {
		room.Participants[userID] = &Participant{ID: userID, Name: name, ConnID: connID}
		room.order = append(room.order, userID)
	}
	return userID, room.stateLocked(), nil
}

// Vote applies toggle semantics: casting the card a participant already
// holds clears it, any other card replaces it. Votes are ignored once
// the room is revealed and for unknown participants, but the current
// state is still returned for broadcast. A missing room yields ok=false
// and nothing to broadcast.
func (m *Manager) Vote(roomID, userID, card string) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room := m.rooms[roomID]
	if room == nil {
		return State{}, false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if p := room.Participants[userID]; p != nil && !room.Revealed {
		if p.Vote != nil && *p.Vote == card {
			p.Vote = nil
		} else {
			p.Vote = &card
		}
	}
	return room.stateLocked(), true
}

// Reveal exposes all votes. There is no quorum check; revealing with
// partial votes is allowed.
func (m *Manager) Reveal(roomID string) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room := m.rooms[roomID]
	if room == nil {
		return State{}, false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	room.Revealed = true
	return room.stateLocked(), true
}

// Reset starts a fresh voting round: hides votes again and clears every
// participant's selection.
func (m *Manager) Reset(roomID string) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room := m.rooms[roomID]
	if room == nil {
		return State{}, false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	room.Revealed = false
	for _, p := range room.Participants {
		p.Vote = nil
	}
	return room.stateLocked(), true
}

// Leave removes a participant. The last participant leaving deletes the
// room, in which case there is nobody left to broadcast to and ok is
// false.
func (m *Manager) Leave(roomID, userID string) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room := m.rooms[roomID]
	if room == nil {
		return State{}, false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.Participants[userID] == nil {
		return State{}, false
	}
	room.removeLocked(userID)
	if len(room.Participants) == 0 {
		delete(m.rooms, roomID)
		return State{}, false
	}
	return room.stateLocked(), true
}

// Removal describes one participant removed by a disconnect. Notify is
// false when the removal emptied and deleted the room, leaving nobody
// to broadcast to.
type Removal struct {
	RoomID string
	State  State
	Notify bool
}

// RemoveByConn handles an abrupt disconnect: every participant still
// bound to connID is removed under the same rules as Leave. A socket
// that switched rooms without an explicit leave is registered in more
// than one room, so the scan covers them all. A connection already
// replaced by a reconnect matches nothing and the call is a silent
// no-op.
func (m *Manager) RemoveByConn(connID string) []Removal {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removals []Removal
	for roomID, room := range m.rooms {
		room.mu.Lock()
		var match string
		for id, p := range room.Participants {
			if p.ConnID == connID {
				match = id
				break
			}
		}
		if match == "" {
			room.mu.Unlock()
			continue
		}
		room.removeLocked(match)
		if len(room.Participants) == 0 {
			delete(m.rooms, roomID)
			removals = append(removals, Removal{RoomID: roomID})
		} else {
			removals = append(removals, Removal{RoomID: roomID, State: room.stateLocked(), Notify: true})
		}
		room.mu.Unlock()
	}
	return removals
}

// Snapshot renders the broadcast-safe state of a room.
func (m *Manager) Snapshot(roomID string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room := m.rooms[roomID]
	if room == nil {
		return State{}, ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	return room.stateLocked(), nil
}

// VoteSummary captures a textual rendering of the revealed votes, one
// "- name: card" line per participant in join order, for the analysis
// prompt. The capture happens at request time; votes cast while an
// analysis request is in flight cannot leak into it.
func (m *Manager) VoteSummary(roomID string) (votes string, cardSet string, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room := m.rooms[roomID]
	if room == nil {
		return "", "", ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if !room.Revealed {
		return "", "", ErrNotRevealed
	}
	var lines []string
	for _, id := range room.order {
		p := room.Participants[id]
		if p.Vote != nil {
			lines = append(lines, fmt.Sprintf("- %s: %s", p.Name, *p.Vote))
		} else {
			lines = append(lines, fmt.Sprintf("- %s: did not vote", p.Name))
		}
	}
	return strings.Join(lines, "\n"), room.CardSet, nil
}

// stateLocked builds the sanitized snapshot. Callers hold the room
// mutex. Participants appear in join order; raw votes are withheld
// until the room is revealed.
func (r *Room) stateLocked() State {
	participants := make([]ParticipantState, 0, len(r.Participants))
	for _, id := range r.order {
		p := r.Participants[id]
		ps := ParticipantState{ID: p.ID, Name: p.Name, Voted: p.Vote != nil}
		if r.Revealed {
			ps.Vote = p.Vote
		}
		participants = append(participants, ps)
	}
	return State{
		RoomID:       r.ID,
		RoomName:     r.Name,
		Revealed:     r.Revealed,
		CardSet:      r.CardSet,
		Cards:        deck.Cards(r.CardSet),
		Participants: participants,
	}
}

func (r *Room) removeLocked(userID string) {
	delete(r.Participants, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func newID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
