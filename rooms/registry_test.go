package rooms

import (
	"context"
	"errors"
	"testing"

	"github.com/ppissanetzky/forty-two/brackets"
)

func openRoom(t *testing.T, reg *Registry) *Room {
	t.Helper()
	room, err := reg.NewRoom(context.Background(), brackets.RoomConfig{})
	if err != nil {
		t.Fatal(err)
	}
	return room.(*Room)
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry()
	room := openRoom(t, reg)

	if room.ID == "" {
		t.Fatal("room has no id")
	}
	if got, ok := reg.Get(room.ID); !ok || got != room {
		t.Fatal("room not retrievable by id")
	}
	if got := len(reg.List()); got != 1 {
		t.Fatalf("live rooms = %d, want 1", got)
	}

	res := brackets.MatchResult{WinningSeats: [2]int{0, 2}, Winners: [2]string{"a", "b"}}
	if err := reg.Complete(room.ID, res); err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.Get(room.ID); ok {
		t.Error("completed room still registered")
	}

	select {
	case got := <-room.Done():
		if got.Winners != res.Winners {
			t.Errorf("result = %v, want %v", got, res)
		}
	default:
		t.Fatal("no result delivered")
	}
}

func TestRegistryCompleteUnknownRoom(t *testing.T) {
	reg := NewRegistry()
	err := reg.Complete("missing", brackets.MatchResult{})
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestRoomCompleteOnlyOnce(t *testing.T) {
	reg := NewRegistry()
	room := openRoom(t, reg)

	room.Complete(brackets.MatchResult{Winners: [2]string{"first", "team"}})
	room.Complete(brackets.MatchResult{Winners: [2]string{"second", "team"}})

	got := <-room.Done()
	if got.Winners != ([2]string{"first", "team"}) {
		t.Errorf("result = %v, want the first report", got.Winners)
	}
	select {
	case extra := <-room.Done():
		t.Errorf("unexpected second result %v", extra)
	default:
	}
}

func TestRegistryDistinctIDs(t *testing.T) {
	reg := NewRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room := openRoom(t, reg)
		if seen[room.ID] {
			t.Fatalf("duplicate room id %q", room.ID)
		}
		seen[room.ID] = true
	}
}
