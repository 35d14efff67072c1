package models

import "time"

// TournamentResult is recorded once, when a tournament concludes.
// In-progress brackets are never persisted.
type TournamentResult struct {
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Winners      [2]string `json:"winners" db:"-"`
	Dropped      string    `json:"dropped,omitempty" db:"dropped"`
	ArchiveURL   string    `json:"archive_url,omitempty" db:"archive_url"`
	FinishedAt   time.Time `json:"finished_at" db:"finished_at"`
}

// GameResult is the per-game outcome persisted alongside the
// tournament result.
type GameResult struct {
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	GameID       int       `json:"game_id" db:"game_id"`
	Round        int       `json:"round" db:"round"`
	Bye          bool      `json:"bye" db:"bye"`
	Winners      [2]string `json:"winners" db:"-"`
}
