package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	StatusSoon     TournamentStatus = "soon"
	StatusOpen     TournamentStatus = "open"
	StatusPlaying  TournamentStatus = "playing"
	StatusDone     TournamentStatus = "done"
	StatusCanceled TournamentStatus = "canceled"
)

// Rules is the forty-two rule set a tournament is played under. The
// engine treats it as opaque and hands it to every match room.
type Rules struct {
	MinBid   int  `json:"min_bid"`
	Nello    bool `json:"nello"`
	Plunge   bool `json:"plunge"`
	Sevens   bool `json:"sevens"`
	FollowMe bool `json:"follow_me"`
}

// Tournament is the descriptor consumed by the bracket engine: rules,
// host, partner policy and the signup window.
type Tournament struct {
	ID            int              `json:"id" db:"id"`
	Name          string           `json:"name" db:"name"`
	Host          string           `json:"host" db:"host"`
	Rules         Rules            `json:"rules" db:"rules"`
	ChoosePartner bool             `json:"choose_partner" db:"choose_partner"`
	FillWithBots  bool             `json:"fill_with_bots" db:"fill_with_bots"`
	OpensAt       time.Time        `json:"opens_at" db:"opens_at"`
	StartsAt      time.Time        `json:"starts_at" db:"starts_at"`
	Status        TournamentStatus `json:"status" db:"status"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

// Signup is one user's registration for a tournament. Partner is empty
// when the user did not declare one.
type Signup struct {
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Partner      string    `json:"partner,omitempty" db:"partner"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
