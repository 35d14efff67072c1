package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ppissanetzky/forty-two/brackets"
	"github.com/ppissanetzky/forty-two/models"
	"github.com/ppissanetzky/forty-two/repositories"
	"github.com/ppissanetzky/forty-two/rooms"
)

type memTournamentRepo struct {
	mu          sync.Mutex
	nextID      int
	tournaments map[int]*models.Tournament
	signups     map[int]map[string]string
}

func newMemTournamentRepo() *memTournamentRepo {
	return &memTournamentRepo{
		nextID:      1,
		tournaments: make(map[int]*models.Tournament),
		signups:     make(map[int]map[string]string),
	}
}

func (r *memTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now()
	r.tournaments[t.ID] = t
	r.signups[t.ID] = make(map[string]string)
	return nil
}

func (r *memTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTournamentRepo) List(_ context.Context, statuses ...models.TournamentStatus) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tournament
	for _, t := range r.tournaments {
		if len(statuses) > 0 {
			keep := false
			for _, s := range statuses {
				if t.Status == s {
					keep = true
				}
			}
			if !keep {
				continue
			}
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memTournamentRepo) UpdateStatus(_ context.Context, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *memTournamentRepo) AddSignup(_ context.Context, s *models.Signup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pool, ok := r.signups[s.TournamentID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if _, dup := pool[s.UserID]; dup {
		return repositories.ErrSignupConflict
	}
	pool[s.UserID] = s.Partner
	return nil
}

func (r *memTournamentRepo) RemoveSignup(_ context.Context, tournamentID int, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pool := r.signups[tournamentID]
	if _, ok := pool[userID]; !ok {
		return repositories.ErrSignupNotFound
	}
	delete(pool, userID)
	return nil
}

func (r *memTournamentRepo) ListSignups(_ context.Context, tournamentID int) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string)
	for id, partner := range r.signups[tournamentID] {
		out[id] = partner
	}
	return out, nil
}

func (r *memTournamentRepo) status(id int) models.TournamentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tournaments[id].Status
}

type memResultRepo struct {
	mu      sync.Mutex
	results map[int]*models.TournamentResult
	games   map[int][]models.GameResult
}

func newMemResultRepo() *memResultRepo {
	return &memResultRepo{
		results: make(map[int]*models.TournamentResult),
		games:   make(map[int][]models.GameResult),
	}
}

func (r *memResultRepo) Save(_ context.Context, result *models.TournamentResult, games []models.GameResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[result.TournamentID] = result
	r.games[result.TournamentID] = games
	return nil
}

func (r *memResultRepo) GetByTournament(_ context.Context, tournamentID int) (*models.TournamentResult, []models.GameResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.results[tournamentID]
	if !ok {
		return nil, nil, repositories.ErrResultNotFound
	}
	return result, r.games[tournamentID], nil
}

type echoResolver struct{}

func (echoResolver) Resolve(_ context.Context, id string) (brackets.Identity, error) {
	return brackets.Identity{ID: id, DisplayName: id}, nil
}

func newTestService(t *testing.T) (TournamentService, *memTournamentRepo, *memResultRepo, *rooms.Registry) {
	t.Helper()
	tournamentRepo := newMemTournamentRepo()
	resultRepo := newMemResultRepo()
	registry := rooms.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := brackets.NewHub(logger)
	svc := NewTournamentService(tournamentRepo, resultRepo, echoResolver{}, registry, hub, nil, logger)
	return svc, tournamentRepo, resultRepo, registry
}

func createOpenTournament(t *testing.T, svc TournamentService) *models.Tournament {
	t.Helper()
	tour, err := svc.Create(context.Background(), "host", CreateTournamentInput{
		Name:     "Thursday 42",
		OpensAt:  time.Now().Add(-time.Hour),
		StartsAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	if tour.Status != models.StatusOpen {
		t.Fatalf("status = %s, want open", tour.Status)
	}
	return tour
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "host", CreateTournamentInput{
		OpensAt:  time.Now(),
		StartsAt: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("nameless create err = %v, want validation failure", err)
	}

	_, err = svc.Create(ctx, "host", CreateTournamentInput{
		Name:     "Backwards",
		OpensAt:  time.Now().Add(time.Hour),
		StartsAt: time.Now(),
	})
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("backwards schedule err = %v, want validation failure", err)
	}
}

func TestSignUpLifecycle(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	tour := createOpenTournament(t, svc)

	if err := svc.SignUp(ctx, tour.ID, "alice", "bob"); err != nil {
		t.Fatal(err)
	}
	if err := svc.SignUp(ctx, tour.ID, "alice", ""); !errors.Is(err, ErrSignupConflict) {
		t.Errorf("duplicate signup err = %v, want conflict", err)
	}
	if err := svc.SignUp(ctx, tour.ID, "carol", "carol"); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("self-partner err = %v, want validation failure", err)
	}
	if err := svc.DropOut(ctx, tour.ID, "alice"); err != nil {
		t.Fatal(err)
	}
	if err := svc.DropOut(ctx, tour.ID, "alice"); !errors.Is(err, ErrSignupNotFound) {
		t.Errorf("double drop err = %v, want not found", err)
	}
}

func TestStartCancelsSmallPool(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	tour := createOpenTournament(t, svc)

	for _, u := range []string{"alice", "bob", "carol"} {
		if err := svc.SignUp(ctx, tour.ID, u, ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := svc.Start(ctx, tour.ID); err != nil {
		t.Fatal(err)
	}
	if got := repo.status(tour.ID); got != models.StatusCanceled {
		t.Errorf("status = %s, want canceled", got)
	}
	if _, err := svc.BracketState(tour.ID); !errors.Is(err, ErrTournamentNotLive) {
		t.Errorf("bracket state err = %v, want not live", err)
	}
}

// Drives a full bot-filled tournament through the room registry the
// way the gameplay engine would, reporting seats 0 and 2 as winners
// until the bracket resolves.
func TestStartRunsTournamentToCompletion(t *testing.T) {
	svc, repo, _, registry := newTestService(t)
	ctx := context.Background()

	tour, err := svc.Create(ctx, "host", CreateTournamentInput{
		Name:         "Bots night",
		FillWithBots: true,
		OpensAt:      time.Now().Add(-time.Hour),
		StartsAt:     time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range []string{"alice", "bob", "carol"} {
		if err := svc.SignUp(ctx, tour.ID, u, ""); err != nil {
			t.Fatal(err)
		}
	}

	if err := svc.Start(ctx, tour.ID); err != nil {
		t.Fatal(err)
	}
	if got := repo.status(tour.ID); got != models.StatusPlaying {
		t.Fatalf("status = %s, want playing", got)
	}
	if err := svc.Start(ctx, tour.ID); !errors.Is(err, ErrInvalidStatusChange) {
		t.Errorf("second start err = %v, want invalid status change", err)
	}

	// A bot-filled pool of 8 plays 4 teams across 3 matches.
	deadline := time.Now().Add(5 * time.Second)
	completed := 0
	for completed < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("bracket stalled after %d matches", completed)
		}
		live := registry.List()
		if len(live) == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		for _, room := range live {
			err := svc.ReportMatchResult(room.ID, MatchReport{
				WinningSeats: [2]int{0, 2},
				Winners:      [2]string{room.Config.Seats[0].ID, room.Config.Seats[2].ID},
			})
			if err != nil {
				t.Fatal(err)
			}
			completed++
		}
	}

	for repo.status(tour.ID) != models.StatusDone {
		if time.Now().After(deadline) {
			t.Fatalf("tournament never finished, status = %s", repo.status(tour.ID))
		}
		time.Sleep(5 * time.Millisecond)
	}

	result, games, err := svc.Result(ctx, tour.ID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Winners == ([2]string{}) {
		t.Error("result has no winners")
	}
	if len(games) != 3 {
		t.Errorf("recorded games = %d, want 3", len(games))
	}
}

func TestReportMatchResultUnknownRoom(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	err := svc.ReportMatchResult("nope", MatchReport{})
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("err = %v, want room not found", err)
	}
}

func TestAutoUpdateOpensAndStarts(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	soon, err := svc.Create(ctx, "host", CreateTournamentInput{
		Name:     "Opens later",
		OpensAt:  time.Now().Add(time.Hour),
		StartsAt: time.Now().Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	if soon.Status != models.StatusSoon {
		t.Fatalf("status = %s, want soon", soon.Status)
	}

	// Pull the open time into the past and let the scheduler tick.
	repo.mu.Lock()
	repo.tournaments[soon.ID].OpensAt = time.Now().Add(-time.Minute)
	repo.mu.Unlock()

	if err := svc.AutoUpdateTournamentStatusesByDates(ctx); err != nil {
		t.Fatal(err)
	}
	if got := repo.status(soon.ID); got != models.StatusOpen {
		t.Errorf("status = %s, want open after tick", got)
	}

	// An open tournament past its start time with no signups cancels.
	repo.mu.Lock()
	repo.tournaments[soon.ID].StartsAt = time.Now().Add(-time.Minute)
	repo.mu.Unlock()

	if err := svc.AutoUpdateTournamentStatusesByDates(ctx); err != nil {
		t.Fatal(err)
	}
	if got := repo.status(soon.ID); got != models.StatusCanceled {
		t.Errorf("status = %s, want canceled after empty start", got)
	}
}
