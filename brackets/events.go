package brackets

import "github.com/ppissanetzky/forty-two/models"

// Events receives the driver's lifecycle notifications. Implementations
// must be safe for concurrent use; advancement chains emit from their
// own goroutines. All three calls are fire-and-forget from the
// engine's point of view.
type Events interface {
	// ByeAnnounced fires once per real user advanced past a round by
	// a bye. Synthetic opponents are skipped.
	ByeAnnounced(t *models.Tournament, user string, round int)

	// MatchReady fires when a room has been created for a game and
	// the four seats should be summoned.
	MatchReady(t *models.Tournament, round int, seats SeatTable, room MatchRoom)

	// TournamentFinished fires exactly once, from the final game.
	TournamentFinished(t *models.Tournament, winners *Team, room MatchRoom)
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) ByeAnnounced(*models.Tournament, string, int)             {}
func (NopEvents) MatchReady(*models.Tournament, int, SeatTable, MatchRoom) {}
func (NopEvents) TournamentFinished(*models.Tournament, *Team, MatchRoom)  {}
