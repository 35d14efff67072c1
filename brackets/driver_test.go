package brackets

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppissanetzky/forty-two/models"
)

type staticResolver struct{}

func (staticResolver) Resolve(_ context.Context, id string) (Identity, error) {
	return Identity{ID: id, DisplayName: strings.ToUpper(id)}, nil
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) (Identity, error) {
	return Identity{}, errors.New("identity store offline")
}

type autoRoom struct {
	done chan MatchResult
}

func (r *autoRoom) Done() <-chan MatchResult { return r.done }

// autoRooms opens rooms that immediately report the team in seats 0
// and 2 as the winner. With hold set, rooms never complete; with fail
// set, every room errors out.
type autoRooms struct {
	hold bool
	fail bool

	mu      sync.Mutex
	created []RoomConfig
}

func (f *autoRooms) NewRoom(_ context.Context, cfg RoomConfig) (MatchRoom, error) {
	f.mu.Lock()
	f.created = append(f.created, cfg)
	f.mu.Unlock()

	room := &autoRoom{done: make(chan MatchResult, 1)}
	if f.hold {
		return room, nil
	}
	if f.fail {
		room.done <- MatchResult{Err: errors.New("table abandoned")}
		return room, nil
	}
	room.done <- MatchResult{
		WinningSeats: [2]int{0, 2},
		Winners:      [2]string{cfg.Seats[0].ID, cfg.Seats[2].ID},
	}
	return room, nil
}

func (f *autoRooms) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type readyMatch struct {
	round int
	seats SeatTable
}

type recordingEvents struct {
	mu       sync.Mutex
	byes     []string
	matches  []readyMatch
	finished []*Team
}

func (e *recordingEvents) ByeAnnounced(_ *models.Tournament, user string, _ int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byes = append(e.byes, user)
}

func (e *recordingEvents) MatchReady(_ *models.Tournament, round int, seats SeatTable, _ MatchRoom) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.matches = append(e.matches, readyMatch{round: round, seats: seats})
}

func (e *recordingEvents) TournamentFinished(_ *models.Tournament, winners *Team, _ MatchRoom) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished = append(e.finished, winners)
}

func testTournament() *models.Tournament {
	return &models.Tournament{ID: 42, Name: "Friday Night 42", Host: "host"}
}

func testDriver(t *testing.T, players int, rooms RoomFactory, events Events) *Driver {
	t.Helper()
	signups := make(map[string]string, players)
	for i := 0; i < players; i++ {
		signups[fmt.Sprintf("u%02d", i)] = ""
	}
	d, err := NewDriver(DriverConfig{
		Tournament: testTournament(),
		Signups:    signups,
		Resolver:   staticResolver{},
		Rooms:      rooms,
		Events:     events,
		Rand:       rand.New(rand.NewSource(99)),
	})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestNewDriverValidation(t *testing.T) {
	if _, err := NewDriver(DriverConfig{}); err == nil {
		t.Error("expected error without a tournament")
	}
	if _, err := NewDriver(DriverConfig{Tournament: testTournament()}); err == nil {
		t.Error("expected error without resolver and rooms")
	}
}

func TestDriverRunsFullBracket(t *testing.T) {
	rooms := &autoRooms{}
	events := &recordingEvents{}
	d := testDriver(t, 16, rooms, events)

	if got := len(d.Teams()); got != 8 {
		t.Fatalf("teams = %d, want 8", got)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := rooms.count(); got != 7 {
		t.Errorf("rooms opened = %d, want 7", got)
	}
	if got := len(events.byes); got != 0 {
		t.Errorf("byes announced = %d, want 0", got)
	}
	if got := len(events.finished); got != 1 {
		t.Fatalf("finished events = %d, want exactly 1", got)
	}

	winners := events.finished[0]
	found := false
	for _, team := range d.Teams() {
		if team.Users == winners.Users {
			found = true
		}
	}
	if !found {
		t.Errorf("winners %v not among the formed teams", winners)
	}
	if final := d.Rounds()[2][0]; final.Winner() != winners {
		t.Errorf("final winner %v disagrees with event %v", final.Winner(), winners)
	}
	if got := d.Round(); got != 3 {
		t.Errorf("round watermark = %d, want 3", got)
	}
}

func TestDriverByeChains(t *testing.T) {
	rooms := &autoRooms{}
	events := &recordingEvents{}
	d := testDriver(t, 10, rooms, events)

	if got := len(d.Teams()); got != 5 {
		t.Fatalf("teams = %d, want 5", got)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Three byes in round 1 leave one real round-1 match, two
	// semifinals and a final.
	if got := rooms.count(); got != 4 {
		t.Errorf("rooms opened = %d, want 4", got)
	}
	if got := len(events.byes); got != 6 {
		t.Errorf("byes announced = %d, want 6 (three teams of two)", got)
	}
	if got := len(events.finished); got != 1 {
		t.Errorf("finished events = %d, want exactly 1", got)
	}
}

func TestByeResolutionIsIdempotent(t *testing.T) {
	rooms := &autoRooms{hold: true}
	d := testDriver(t, 10, rooms, &recordingEvents{})

	var byeGame *Game
	for _, g := range d.Rounds()[0] {
		for _, team := range g.Teams() {
			if team.IsBye() {
				byeGame = g
			}
		}
		if byeGame != nil {
			break
		}
	}
	if byeGame == nil {
		t.Fatal("no bye game in round 1")
	}

	ctx := context.Background()
	if err := byeGame.start(ctx, d); err != nil {
		t.Fatal(err)
	}
	if err := byeGame.start(ctx, d); err != nil {
		t.Fatal(err)
	}

	next := d.Games()[byeGame.Next]
	if got := len(next.Teams()); got != 1 {
		t.Errorf("successor holds %d teams after double start, want 1", got)
	}
	if w := byeGame.Winner(); w == nil || w.IsBye() {
		t.Errorf("bye game winner = %v, want the surviving team", w)
	}
	// The survivor advanced without a room: the successor is still
	// waiting on its other feeder.
	if got := rooms.count(); got != 0 {
		t.Errorf("rooms opened = %d, want 0 for a bye resolution", got)
	}
}

func TestActiveGameStartIsIdempotent(t *testing.T) {
	rooms := &autoRooms{hold: true}
	d := testDriver(t, 16, rooms, &recordingEvents{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := d.Rounds()[0][0]
	go g.start(ctx, d)

	deadline := time.Now().Add(2 * time.Second)
	for rooms.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("room never opened")
		}
		time.Sleep(time.Millisecond)
	}

	if err := g.start(ctx, d); err != nil {
		t.Fatal(err)
	}
	if got := rooms.count(); got != 1 {
		t.Errorf("rooms opened = %d, want exactly 1", got)
	}
}

func TestDriverSeatOrder(t *testing.T) {
	rooms := &autoRooms{}
	events := &recordingEvents{}
	d := testDriver(t, 8, rooms, events)

	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(events.matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(events.matches))
	}

	// Round 1 pairs the cursor ends: the first team plays the last.
	a, b := d.Teams()[0], d.Teams()[3]
	var seats SeatTable
	found := false
	for _, m := range events.matches {
		if m.round == 1 && m.seats[0].ID == a.Users[0] {
			seats, found = m.seats, true
		}
	}
	if !found {
		t.Fatalf("no round-1 match led by %q", a.Users[0])
	}
	want := [4]string{a.Users[0], b.Users[0], a.Users[1], b.Users[1]}
	for i, id := range want {
		if seats[i].ID != id {
			t.Errorf("seat %d = %q, want %q (partners sit across)", i, seats[i].ID, id)
		}
		if seats[i].DisplayName != strings.ToUpper(id) {
			t.Errorf("seat %d display name = %q, want resolved profile", i, seats[i].DisplayName)
		}
	}
}

func TestDriverMatchFailure(t *testing.T) {
	rooms := &autoRooms{fail: true}
	events := &recordingEvents{}
	d := testDriver(t, 8, rooms, events)

	err := d.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "match failed") {
		t.Fatalf("err = %v, want match failure", err)
	}
	if len(events.finished) != 0 {
		t.Errorf("finished events = %d, want 0 after failure", len(events.finished))
	}
}

func TestDriverResolverFailure(t *testing.T) {
	rooms := &autoRooms{}
	signups := signupsOf("a", "b", "c", "d", "e", "f", "g", "h")
	d, err := NewDriver(DriverConfig{
		Tournament: testTournament(),
		Signups:    signups,
		Resolver:   failingResolver{},
		Rooms:      rooms,
		Rand:       rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Run(context.Background()); err == nil {
		t.Fatal("expected error from failing resolver")
	}
	if got := rooms.count(); got != 0 {
		t.Errorf("rooms opened = %d, want 0", got)
	}
}

func TestDriverCanceledPool(t *testing.T) {
	rooms := &autoRooms{}
	events := &recordingEvents{}
	d := testDriver(t, 3, rooms, events)

	if !d.Canceled() {
		t.Fatal("three signups without bots should cancel")
	}
	if d.Dropped() == "" {
		t.Error("odd pool should drop one player")
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if rooms.count() != 0 || len(events.finished) != 0 || len(events.byes) != 0 {
		t.Error("canceled run must emit nothing")
	}
}

func TestDriverFillsWithBots(t *testing.T) {
	rooms := &autoRooms{}
	events := &recordingEvents{}
	signups := map[string]string{"a": "", "b": "", "c": ""}
	d, err := NewDriver(DriverConfig{
		Tournament: &models.Tournament{ID: 7, Name: "Bots welcome", FillWithBots: true},
		Signups:    signups,
		Resolver:   staticResolver{},
		Rooms:      rooms,
		Events:     events,
		Rand:       rand.New(rand.NewSource(5)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(d.Teams()); got != 4 {
		t.Fatalf("teams = %d, want 4 from a bot-filled pool of 8", got)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := rooms.count(); got != 3 {
		t.Errorf("rooms opened = %d, want 3", got)
	}
	if got := len(events.finished); got != 1 {
		t.Errorf("finished events = %d, want 1", got)
	}
}
