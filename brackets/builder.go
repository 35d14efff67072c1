package brackets

// Bracket is the complete game graph for one tournament run. Games
// are owned by the id-keyed map; predecessor/successor links are
// stored as ids to keep the graph an arena rather than a pointer web.
type Bracket struct {
	Games  map[int]*Game
	Rounds [][]*Game
}

// Canceled reports whether the bracket was abandoned for lack of
// teams. A canceled bracket has no rounds and runs no games.
func (b *Bracket) Canceled() bool {
	return len(b.Rounds) == 0
}

// Final returns the last game of the bracket, or nil when canceled.
func (b *Bracket) Final() *Game {
	if b.Canceled() {
		return nil
	}
	last := b.Rounds[len(b.Rounds)-1]
	return last[len(last)-1]
}

// Build constructs the bracket for an ordered team list. Fewer than
// four teams cancels the tournament. Sizing:
//
//	gameCount = smallest of 2,4,8,... with N <= 2*gameCount
//	byes      = 2*gameCount - N
//
// Round one is populated with two cursors walking the team list from
// both ends; seats that would draw from the bottom take the Bye
// sentinel while byes remain, and a game handed a bye is marked
// started and finished at construction. Given a fixed team order the
// result is fully deterministic.
func Build(teams []*Team) *Bracket {
	n := len(teams)
	b := &Bracket{Games: make(map[int]*Game)}
	if n < 4 {
		return b
	}

	gameCount := 2
	for n > 2*gameCount {
		gameCount *= 2
	}
	byes := 2*gameCount - n

	round1 := make([]*Game, gameCount)
	for pos := range round1 {
		round1[pos] = &Game{
			ID:    pos + 1,
			Round: 1,
			Row:   pos * 2,
			Col:   0,
		}
	}

	top, bottom := 0, n-1
	fill := func(g *Game) {
		g.teams = append(g.teams, teams[top])
		top++
		if byes > 0 {
			g.teams = append(g.teams, Bye)
			byes--
			g.started = true
			g.finished = true
			return
		}
		g.teams = append(g.teams, teams[bottom])
		bottom--
	}
	for i := 0; i < gameCount/2; i++ {
		fill(round1[i])
		fill(round1[gameCount-1-i])
	}

	b.Rounds = append(b.Rounds, round1)
	for _, g := range round1 {
		b.Games[g.ID] = g
	}

	id := gameCount + 1
	prev := round1
	base := 0
	for round := 2; len(prev) > 1; round++ {
		base += 1 << (round - 2)
		cur := make([]*Game, len(prev)/2)
		for i := range cur {
			g := &Game{
				ID:       id,
				Round:    round,
				Row:      base + (gameCount/len(cur))*i*2,
				Col:      2 * (round - 1),
				Previous: []int{prev[2*i].ID, prev[2*i+1].ID},
			}
			id++
			prev[2*i].Next = g.ID
			prev[2*i+1].Next = g.ID
			b.Games[g.ID] = g
			cur[i] = g
		}
		b.Rounds = append(b.Rounds, cur)
		prev = cur
	}
	return b
}
