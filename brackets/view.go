package brackets

// TeamView is the wire form of a team slot.
type TeamView struct {
	Users [2]string `json:"users"`
	Bye   bool      `json:"bye,omitempty"`
}

// GameView is a point-in-time snapshot of one game, shaped for
// bracket rendering.
type GameView struct {
	ID            int        `json:"id"`
	Round         int        `json:"round"`
	Row           int        `json:"row"`
	Col           int        `json:"col"`
	Teams         []TeamView `json:"teams"`
	Started       bool       `json:"started"`
	Finished      bool       `json:"finished"`
	Winners       *TeamView  `json:"winners,omitempty"`
	PreviousGames []int      `json:"previous_games,omitempty"`
	NextGame      int        `json:"next_game,omitempty"`
}

// BracketView is the full queryable driver state.
type BracketView struct {
	TournamentID int          `json:"tournament_id"`
	Teams        []TeamView   `json:"teams"`
	Dropped      string       `json:"dropped,omitempty"`
	Canceled     bool         `json:"canceled"`
	Round        int          `json:"round"`
	Rounds       [][]GameView `json:"rounds"`
}

func viewTeam(t *Team) TeamView {
	if t.IsBye() {
		return TeamView{Bye: true}
	}
	return TeamView{Users: t.Users}
}

// View snapshots the game under its guard.
func (g *Game) View() GameView {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := GameView{
		ID:            g.ID,
		Round:         g.Round,
		Row:           g.Row,
		Col:           g.Col,
		Started:       g.started,
		Finished:      g.finished,
		PreviousGames: g.Previous,
		NextGame:      g.Next,
	}
	for _, t := range g.teams {
		v.Teams = append(v.Teams, viewTeam(t))
	}
	if g.winner != nil {
		w := viewTeam(g.winner)
		v.Winners = &w
	}
	return v
}

// View snapshots the whole driver for state queries and archiving.
func (d *Driver) View() BracketView {
	v := BracketView{
		TournamentID: d.tournament.ID,
		Dropped:      d.dropped,
		Canceled:     d.Canceled(),
		Round:        d.Round(),
		Rounds:       make([][]GameView, 0, len(d.bracket.Rounds)),
	}
	for _, t := range d.teams {
		v.Teams = append(v.Teams, viewTeam(t))
	}
	for _, round := range d.bracket.Rounds {
		games := make([]GameView, 0, len(round))
		for _, g := range round {
			games = append(games, g.View())
		}
		v.Rounds = append(v.Rounds, games)
	}
	return v
}
