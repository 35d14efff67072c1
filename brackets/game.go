package brackets

import (
	"context"
	"fmt"
	"sync"
)

// Game is one node of the bracket graph. Ids are assigned
// breadth-first by round. Previous holds the two feeder game ids
// (empty for round one); Next is the successor id, zero for the
// final. Row and Col are layout coordinates for rendering only.
//
// The mutex is the per-game single-writer guard: team appends and the
// transition into the active state happen under it, so of two feeder
// chains pushing into the same game exactly one proceeds to create
// the match room.
type Game struct {
	ID       int
	Round    int
	Row, Col int
	Previous []int
	Next     int

	mu       sync.Mutex
	teams    []*Team
	started  bool
	finished bool
	advanced bool
	winner   *Team
	room     MatchRoom
}

// Teams returns a copy of the currently assigned teams (0 to 2).
func (g *Game) Teams() []*Team {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Team, len(g.teams))
	copy(out, g.teams)
	return out
}

// Started reports whether the game has begun (a room exists or a bye
// resolved it).
func (g *Game) Started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

// Finished reports whether the game's outcome is recorded.
func (g *Game) Finished() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.finished
}

// Winner returns the advancing team, nil while undecided.
func (g *Game) Winner() *Team {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winner
}

func (g *Game) bye() *Team {
	for i, t := range g.teams {
		if t.IsBye() {
			return g.teams[1-i]
		}
	}
	return nil
}

// addTeam pushes a feeder's winner into the next free seat.
func (g *Game) addTeam(t *Team) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.teams = append(g.teams, t)
}

// start runs the advancement state machine for this game. It is
// idempotent and safe to call concurrently. A bye resolves
// synchronously, possibly chaining through further byes; a pending
// game (one team) is a no-op; a full game resolves seats, opens the
// match room, announces it and blocks until the room reports its
// terminal outcome, then pushes the winner forward.
func (g *Game) start(ctx context.Context, d *Driver) error {
	g.mu.Lock()
	if survivor := g.bye(); survivor != nil {
		if g.advanced {
			g.mu.Unlock()
			return nil
		}
		g.advanced = true
		g.started = true
		g.finished = true
		g.winner = survivor
		g.mu.Unlock()
		for _, user := range survivor.Users {
			if d.isBot(user) {
				continue
			}
			d.events.ByeAnnounced(d.tournament, user, g.Round)
		}
		return d.advance(ctx, g, survivor, nil)
	}
	if len(g.teams) < 2 || g.started {
		g.mu.Unlock()
		return nil
	}
	g.started = true
	a, b := g.teams[0], g.teams[1]
	g.mu.Unlock()

	seats, err := d.resolveSeats(ctx, a, b)
	if err != nil {
		return fmt.Errorf("game %d: %w", g.ID, err)
	}
	room, err := d.rooms.NewRoom(ctx, RoomConfig{
		Rules:      d.tournament.Rules,
		Seats:      seats,
		Tournament: d.tournament,
	})
	if err != nil {
		return fmt.Errorf("game %d: open room: %w", g.ID, err)
	}
	g.mu.Lock()
	g.room = room
	g.mu.Unlock()
	d.noteRound(g.Round)
	d.events.MatchReady(d.tournament, g.Round, seats, room)

	var res MatchResult
	select {
	case res = <-room.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if res.Err != nil {
		return fmt.Errorf("game %d: match failed: %w", g.ID, res.Err)
	}
	winner := NewTeam(seats[res.WinningSeats[0]].ID, seats[res.WinningSeats[1]].ID)

	g.mu.Lock()
	g.finished = true
	g.winner = winner
	g.mu.Unlock()
	return d.advance(ctx, g, winner, room)
}
