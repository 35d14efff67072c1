package brackets

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppissanetzky/forty-two/bots"
	"github.com/ppissanetzky/forty-two/models"
)

// DriverConfig wires one tournament run. Tournament, Signups,
// Resolver and Rooms are required; the rest default.
type DriverConfig struct {
	Tournament *models.Tournament
	// Signups is the user -> chosen-partner snapshot, empty string
	// for no pick.
	Signups  map[string]string
	Resolver IdentityResolver
	Rooms    RoomFactory
	Events   Events

	// BotName and IsBot default to the bots package.
	BotName func() string
	IsBot   func(string) bool

	// Rand defaults to a time-seeded source. Tests inject a seeded
	// one for reproducible pairings.
	Rand *rand.Rand
}

// Driver orchestrates a single tournament: teams and bracket are
// computed once at construction from the signup snapshot, then Run
// advances the bracket to its conclusion. The driver and its graph
// are discarded afterwards; nothing here is durable.
type Driver struct {
	tournament *models.Tournament
	resolver   IdentityResolver
	rooms      RoomFactory
	events     Events
	isBot      func(string) bool

	teams   []*Team
	dropped string
	bracket *Bracket

	round atomic.Int32
}

// NewDriver forms teams and builds the bracket. A team-formation
// invariant violation aborts construction.
func NewDriver(cfg DriverConfig) (*Driver, error) {
	if cfg.Tournament == nil {
		return nil, fmt.Errorf("driver requires a tournament")
	}
	if cfg.Resolver == nil || cfg.Rooms == nil {
		return nil, fmt.Errorf("driver requires a resolver and a room factory")
	}
	if cfg.Events == nil {
		cfg.Events = NopEvents{}
	}
	if cfg.BotName == nil {
		cfg.BotName = bots.Name
	}
	if cfg.IsBot == nil {
		cfg.IsBot = bots.IsBot
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	teams, dropped, err := FormTeams(cfg.Rand, cfg.Signups,
		cfg.Tournament.ChoosePartner, cfg.Tournament.FillWithBots, cfg.BotName)
	if err != nil {
		return nil, fmt.Errorf("tournament %d: %w", cfg.Tournament.ID, err)
	}

	return &Driver{
		tournament: cfg.Tournament,
		resolver:   cfg.Resolver,
		rooms:      cfg.Rooms,
		events:     cfg.Events,
		isBot:      cfg.IsBot,
		teams:      teams,
		dropped:    dropped,
		bracket:    Build(teams),
	}, nil
}

// Run starts every round-1 game concurrently; each forms its own
// advancement chain down the bracket. It returns once all chains have
// resolved, with the first chain failure if any. Sibling chains
// already in flight are not canceled when one fails; they finish on
// their own and the error surfaces here. A canceled bracket completes
// trivially.
func (d *Driver) Run(ctx context.Context) error {
	if d.Canceled() {
		return nil
	}
	var g errgroup.Group
	for _, game := range d.bracket.Rounds[0] {
		game := game
		g.Go(func() error {
			return game.start(ctx, d)
		})
	}
	return g.Wait()
}

// advance pushes winner out of g: into the successor's team list, or
// out of the tournament when g is the final. The successor's start is
// invoked on the same chain, so bye runs resolve synchronously.
func (d *Driver) advance(ctx context.Context, g *Game, winner *Team, room MatchRoom) error {
	if g.Next == 0 {
		d.events.TournamentFinished(d.tournament, winner, room)
		return nil
	}
	next, ok := d.bracket.Games[g.Next]
	if !ok {
		return fmt.Errorf("game %d: successor %d missing", g.ID, g.Next)
	}
	next.addTeam(winner)
	return next.start(ctx, d)
}

// resolveSeats builds the four-seat table for teams a and b, partners
// across: a0, b0, a1, b1. A failed lookup fails only this game.
func (d *Driver) resolveSeats(ctx context.Context, a, b *Team) (SeatTable, error) {
	order := [4]string{a.Users[0], b.Users[0], a.Users[1], b.Users[1]}
	var seats SeatTable
	for i, id := range order {
		identity, err := d.resolver.Resolve(ctx, id)
		if err != nil {
			return seats, fmt.Errorf("resolve seat %d (%s): %w", i, id, err)
		}
		seats[i] = Seat{ID: identity.ID, DisplayName: identity.DisplayName}
	}
	return seats, nil
}

func (d *Driver) noteRound(round int) {
	for {
		cur := d.round.Load()
		if int32(round) <= cur || d.round.CompareAndSwap(cur, int32(round)) {
			return
		}
	}
}

// Tournament returns the descriptor this driver runs.
func (d *Driver) Tournament() *models.Tournament { return d.tournament }

// Teams returns the immutable team snapshot taken at construction.
func (d *Driver) Teams() []*Team { return d.teams }

// Dropped returns the player left out of an odd pool, empty if none.
func (d *Driver) Dropped() string { return d.dropped }

// Games returns the id-keyed game arena.
func (d *Driver) Games() map[int]*Game { return d.bracket.Games }

// Rounds returns the per-round game lists, empty when canceled.
func (d *Driver) Rounds() [][]*Game { return d.bracket.Rounds }

// Canceled reports whether the tournament was abandoned for lack of
// teams.
func (d *Driver) Canceled() bool { return d.bracket.Canceled() }

// Round is the highest round with a live match so far; informational
// only.
func (d *Driver) Round() int { return int(d.round.Load()) }
