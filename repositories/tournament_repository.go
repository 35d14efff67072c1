package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ppissanetzky/forty-two/models"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrSignupConflict     = errors.New("user already signed up for this tournament")
	ErrSignupNotFound     = errors.New("signup not found")
)

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, statuses ...models.TournamentStatus) ([]*models.Tournament, error)
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error

	AddSignup(ctx context.Context, s *models.Signup) error
	RemoveSignup(ctx context.Context, tournamentID int, userID string) error
	// ListSignups returns the user -> chosen-partner mapping, empty
	// string for no pick.
	ListSignups(ctx context.Context, tournamentID int) (map[string]string, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	rules, err := json.Marshal(t.Rules)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}

	query := `
		INSERT INTO tournaments (name, host, rules, choose_partner, fill_with_bots, opens_at, starts_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		t.Name,
		t.Host,
		rules,
		t.ChoosePartner,
		t.FillWithBots,
		t.OpensAt,
		t.StartsAt,
		t.Status,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `
		SELECT id, name, host, rules, choose_partner, fill_with_bots, opens_at, starts_at, status, created_at
		FROM tournaments
		WHERE id = $1`

	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, statuses ...models.TournamentStatus) ([]*models.Tournament, error) {
	query := `
		SELECT id, name, host, rules, choose_partner, fill_with_bots, opens_at, starts_at, status, created_at
		FROM tournaments`
	args := []any{}
	if len(statuses) > 0 {
		list := make([]string, len(statuses))
		for i, s := range statuses {
			list[i] = string(s)
		}
		query += ` WHERE status = ANY($1)`
		args = append(args, pq.Array(list))
	}
	query += ` ORDER BY starts_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) AddSignup(ctx context.Context, s *models.Signup) error {
	query := `
		INSERT INTO signups (tournament_id, user_id, partner)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, s.TournamentID, s.UserID, s.Partner).Scan(&s.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrSignupConflict
			case "23503": // foreign_key_violation
				return ErrTournamentNotFound
			}
		}
		return err
	}
	return nil
}

func (r *postgresTournamentRepository) RemoveSignup(ctx context.Context, tournamentID int, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM signups WHERE tournament_id = $1 AND user_id = $2`, tournamentID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSignupNotFound)
}

func (r *postgresTournamentRepository) ListSignups(ctx context.Context, tournamentID int) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, COALESCE(partner, '') FROM signups WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signups := make(map[string]string)
	for rows.Next() {
		var user, partner string
		if err := rows.Scan(&user, &partner); err != nil {
			return nil, err
		}
		signups[user] = partner
	}
	return signups, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTournament(row rowScanner) (*models.Tournament, error) {
	var t models.Tournament
	var rules []byte
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Host,
		&rules,
		&t.ChoosePartner,
		&t.FillWithBots,
		&t.OpensAt,
		&t.StartsAt,
		&t.Status,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rules) > 0 {
		if err := json.Unmarshal(rules, &t.Rules); err != nil {
			return nil, fmt.Errorf("unmarshal rules: %w", err)
		}
	}
	return &t, nil
}
