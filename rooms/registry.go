// Package rooms tracks live match rooms on behalf of the external
// gameplay engine. The bracket engine opens a room per game and waits
// on its terminal outcome; the gameplay side reports that outcome
// through the registry (wired to an HTTP endpoint).
package rooms

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/ppissanetzky/forty-two/brackets"
)

var ErrRoomNotFound = errors.New("match room not found")

// Room is one live match. It satisfies brackets.MatchRoom.
type Room struct {
	ID     string
	Config brackets.RoomConfig

	once sync.Once
	done chan brackets.MatchResult
}

// Done yields the room's single terminal result.
func (r *Room) Done() <-chan brackets.MatchResult {
	return r.done
}

// Complete records the terminal result. Only the first call wins.
func (r *Room) Complete(res brackets.MatchResult) {
	r.once.Do(func() {
		r.done <- res
	})
}

// Registry owns all live rooms, keyed by id.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// NewRoom implements brackets.RoomFactory.
func (reg *Registry) NewRoom(ctx context.Context, cfg brackets.RoomConfig) (brackets.MatchRoom, error) {
	id, err := newRoomID()
	if err != nil {
		return nil, err
	}
	room := &Room{
		ID:     id,
		Config: cfg,
		done:   make(chan brackets.MatchResult, 1),
	}
	reg.mu.Lock()
	reg.rooms[id] = room
	reg.mu.Unlock()
	return room, nil
}

// Get returns the live room with the given id.
func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[id]
	return room, ok
}

// List snapshots the live rooms.
func (reg *Registry) List() []*Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		out = append(out, room)
	}
	return out
}

// Complete resolves and removes the room with the given id.
func (reg *Registry) Complete(id string, res brackets.MatchResult) error {
	reg.mu.Lock()
	room, ok := reg.rooms[id]
	if ok {
		delete(reg.rooms, id)
	}
	reg.mu.Unlock()
	if !ok {
		return ErrRoomNotFound
	}
	room.Complete(res)
	return nil
}

func newRoomID() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
