package brackets

import (
	"context"

	"github.com/ppissanetzky/forty-two/models"
)

// Seat is one resolved physical position at the table.
type Seat struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SeatTable holds the four physical seats derived from two teams.
// Partners sit across from each other: seats 0 and 2 are one team,
// seats 1 and 3 the other.
type SeatTable [4]Seat

// RoomConfig is everything the gameplay engine needs to open a room
// for one bracket game.
type RoomConfig struct {
	Rules      models.Rules
	Seats      SeatTable
	Tournament *models.Tournament
}

// MatchResult is the terminal outcome of a match room. WinningSeats
// index into the room's seat table; Winners carries the matching
// persistent identifiers. Err is set when the room failed instead of
// finishing.
type MatchResult struct {
	WinningSeats [2]int
	Winners      [2]string
	Err          error
}

// MatchRoom is the opaque gameplay collaborator. The engine only ever
// waits for its terminal outcome; joins, pauses and in-hand play are
// the room's own business.
type MatchRoom interface {
	// Done yields exactly one terminal result.
	Done() <-chan MatchResult
}

// RoomFactory opens match rooms for bracket games.
type RoomFactory interface {
	NewRoom(ctx context.Context, cfg RoomConfig) (MatchRoom, error)
}

// Identity is the resolved profile of one seat.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// IdentityResolver looks up the profile behind a user identifier.
type IdentityResolver interface {
	Resolve(ctx context.Context, id string) (Identity, error)
}
