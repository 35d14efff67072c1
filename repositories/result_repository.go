package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ppissanetzky/forty-two/models"
)

var ErrResultNotFound = errors.New("tournament result not found")

type ResultRepository interface {
	// Save records the final outcome and per-game winners in one
	// transaction.
	Save(ctx context.Context, result *models.TournamentResult, games []models.GameResult) error
	GetByTournament(ctx context.Context, tournamentID int) (*models.TournamentResult, []models.GameResult, error)
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) Save(ctx context.Context, result *models.TournamentResult, games []models.GameResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tournament_results (tournament_id, winner_1, winner_2, dropped, archive_url, finished_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)`
	if _, err := tx.ExecContext(ctx, query,
		result.TournamentID,
		result.Winners[0],
		result.Winners[1],
		result.Dropped,
		result.ArchiveURL,
		result.FinishedAt,
	); err != nil {
		return err
	}

	gameQuery := `
		INSERT INTO game_results (tournament_id, game_id, round, bye, winner_1, winner_2)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, g := range games {
		if _, err := tx.ExecContext(ctx, gameQuery,
			g.TournamentID, g.GameID, g.Round, g.Bye, g.Winners[0], g.Winners[1],
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *postgresResultRepository) GetByTournament(ctx context.Context, tournamentID int) (*models.TournamentResult, []models.GameResult, error) {
	query := `
		SELECT tournament_id, winner_1, winner_2, COALESCE(dropped, ''), COALESCE(archive_url, ''), finished_at
		FROM tournament_results
		WHERE tournament_id = $1`

	var result models.TournamentResult
	err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(
		&result.TournamentID,
		&result.Winners[0],
		&result.Winners[1],
		&result.Dropped,
		&result.ArchiveURL,
		&result.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrResultNotFound
		}
		return nil, nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT tournament_id, game_id, round, bye, winner_1, winner_2
		FROM game_results
		WHERE tournament_id = $1
		ORDER BY game_id`, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var games []models.GameResult
	for rows.Next() {
		var g models.GameResult
		if err := rows.Scan(&g.TournamentID, &g.GameID, &g.Round, &g.Bye, &g.Winners[0], &g.Winners[1]); err != nil {
			return nil, nil, err
		}
		games = append(games, g)
	}
	return &result, games, rows.Err()
}
