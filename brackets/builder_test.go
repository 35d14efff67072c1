package brackets

import (
	"fmt"
	"testing"
)

func fakeTeams(n int) []*Team {
	teams := make([]*Team, n)
	for i := range teams {
		teams[i] = NewTeam(fmt.Sprintf("a%d", i), fmt.Sprintf("b%d", i))
	}
	return teams
}

func TestBuildCancelsSmallPools(t *testing.T) {
	for n := 0; n < 4; n++ {
		b := Build(fakeTeams(n))
		if !b.Canceled() {
			t.Errorf("n=%d: expected canceled bracket", n)
		}
		if len(b.Games) != 0 {
			t.Errorf("n=%d: canceled bracket has %d games", n, len(b.Games))
		}
		if b.Final() != nil {
			t.Errorf("n=%d: canceled bracket has a final", n)
		}
	}
}

func TestBuildFourTeams(t *testing.T) {
	teams := fakeTeams(4)
	b := Build(teams)

	if b.Canceled() {
		t.Fatal("unexpected cancellation")
	}
	if got := len(b.Rounds); got != 2 {
		t.Fatalf("rounds = %d, want 2", got)
	}
	if got := len(b.Games); got != 3 {
		t.Fatalf("games = %d, want 3", got)
	}

	g1, g2 := b.Games[1], b.Games[2]
	final := b.Games[3]
	if final == nil || b.Final() != final {
		t.Fatal("final should be game 3")
	}
	if g1.Next != 3 || g2.Next != 3 {
		t.Errorf("round 1 successors = %d, %d, want 3, 3", g1.Next, g2.Next)
	}
	if len(final.Previous) != 2 || final.Previous[0] != 1 || final.Previous[1] != 2 {
		t.Errorf("final.Previous = %v, want [1 2]", final.Previous)
	}
	if final.Next != 0 {
		t.Errorf("final.Next = %d, want 0", final.Next)
	}

	// Two cursors: game 1 seats the first and last teams, game 2 the
	// middle two.
	assertTeams(t, g1, teams[0], teams[3])
	assertTeams(t, g2, teams[1], teams[2])
}

func TestBuildFiveTeamsByes(t *testing.T) {
	teams := fakeTeams(5)
	b := Build(teams)

	if got := len(b.Rounds); got != 3 {
		t.Fatalf("rounds = %d, want 3", got)
	}
	if got := len(b.Rounds[0]); got != 4 {
		t.Fatalf("round 1 games = %d, want 4", got)
	}

	// Fill order alternates top and bottom: games 1, 4 and 2 take the
	// three byes, game 3 gets the only real round-1 match.
	assertTeams(t, b.Games[1], teams[0], Bye)
	assertTeams(t, b.Games[4], teams[1], Bye)
	assertTeams(t, b.Games[2], teams[2], Bye)
	assertTeams(t, b.Games[3], teams[3], teams[4])

	for _, id := range []int{1, 2, 4} {
		g := b.Games[id]
		if !g.Started() || !g.Finished() {
			t.Errorf("bye game %d not pre-resolved", id)
		}
	}
	if b.Games[3].Started() {
		t.Error("game 3 should not start at construction")
	}
}

func TestBuildSizing(t *testing.T) {
	for n := 4; n <= 64; n++ {
		b := Build(fakeTeams(n))
		gameCount := len(b.Rounds[0])

		if n > 2*gameCount {
			t.Errorf("n=%d: gameCount %d too small", n, gameCount)
		}
		if gameCount > 2 && n <= gameCount {
			t.Errorf("n=%d: gameCount %d is not minimal", n, gameCount)
		}

		byes := 0
		for _, g := range b.Rounds[0] {
			for _, team := range g.Teams() {
				if team.IsBye() {
					byes++
				}
			}
		}
		if 2*gameCount != n+byes {
			t.Errorf("n=%d: 2*%d != %d+%d", n, gameCount, n, byes)
		}
		if byes >= gameCount {
			t.Errorf("n=%d: %d byes overflow round 1", n, byes)
		}

		// Ids are contiguous from 1, breadth-first by round.
		want := 1
		for _, round := range b.Rounds {
			for _, g := range round {
				if g.ID != want {
					t.Fatalf("n=%d: game id %d, want %d", n, g.ID, want)
				}
				want++
			}
		}
		if len(b.Games) != want-1 {
			t.Errorf("n=%d: arena has %d games, want %d", n, len(b.Games), want-1)
		}
	}
}

func TestBuildLayout(t *testing.T) {
	b := Build(fakeTeams(8))

	type pos struct{ row, col int }
	want := map[int]pos{
		1: {0, 0},
		2: {2, 0},
		3: {4, 0},
		4: {6, 0},
		5: {1, 2},
		6: {5, 2},
		7: {3, 4},
	}
	for id, p := range want {
		g := b.Games[id]
		if g.Row != p.row || g.Col != p.col {
			t.Errorf("game %d at (%d,%d), want (%d,%d)", id, g.Row, g.Col, p.row, p.col)
		}
	}
}

func assertTeams(t *testing.T, g *Game, want ...*Team) {
	t.Helper()
	got := g.Teams()
	if len(got) != len(want) {
		t.Fatalf("game %d has %d teams, want %d", g.ID, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("game %d seat %d = %v, want %v", g.ID, i, got[i], want[i])
		}
	}
}
