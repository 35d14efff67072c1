package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ppissanetzky/forty-two/brackets"
	"github.com/ppissanetzky/forty-two/models"
	"github.com/ppissanetzky/forty-two/repositories"
	"github.com/ppissanetzky/forty-two/rooms"
	"github.com/ppissanetzky/forty-two/storage"
)

type CreateTournamentInput struct {
	Name          string       `json:"name"`
	Rules         models.Rules `json:"rules"`
	ChoosePartner bool         `json:"choose_partner"`
	FillWithBots  bool         `json:"fill_with_bots"`
	OpensAt       time.Time    `json:"opens_at"`
	StartsAt      time.Time    `json:"starts_at"`
}

type MatchReport struct {
	WinningSeats [2]int    `json:"winning_seats"`
	Winners      [2]string `json:"winners"`
	Error        string    `json:"error,omitempty"`
}

type TournamentService interface {
	Create(ctx context.Context, host string, input CreateTournamentInput) (*models.Tournament, error)
	Get(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)

	SignUp(ctx context.Context, tournamentID int, userID, partner string) error
	DropOut(ctx context.Context, tournamentID int, userID string) error

	// Start launches the bracket for a tournament whose start time
	// has arrived (or at the host's request).
	Start(ctx context.Context, tournamentID int) error

	// BracketState returns the live driver snapshot for a playing
	// tournament.
	BracketState(tournamentID int) (*brackets.BracketView, error)

	// ReportMatchResult delivers the gameplay engine's terminal
	// outcome for a live match room.
	ReportMatchResult(roomID string, report MatchReport) error

	// AutoUpdateTournamentStatusesByDates is the scheduler tick:
	// opens registration and starts tournaments whose times have
	// passed.
	AutoUpdateTournamentStatusesByDates(ctx context.Context) error

	Result(ctx context.Context, tournamentID int) (*models.TournamentResult, []models.GameResult, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	resultRepo     repositories.ResultRepository
	resolver       brackets.IdentityResolver
	registry       *rooms.Registry
	hub            *brackets.Hub
	uploader       storage.FileUploader
	logger         *slog.Logger

	mu      sync.Mutex
	drivers map[int]*brackets.Driver
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	resultRepo repositories.ResultRepository,
	resolver brackets.IdentityResolver,
	registry *rooms.Registry,
	hub *brackets.Hub,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		resultRepo:     resultRepo,
		resolver:       resolver,
		registry:       registry,
		hub:            hub,
		uploader:       uploader,
		logger:         logger,
		drivers:        make(map[int]*brackets.Driver),
	}
}

func (s *tournamentService) Create(ctx context.Context, host string, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if !input.StartsAt.After(input.OpensAt) {
		return nil, fmt.Errorf("%w: start time must be after registration opens", ErrValidationFailed)
	}

	t := &models.Tournament{
		Name:          input.Name,
		Host:          host,
		Rules:         input.Rules,
		ChoosePartner: input.ChoosePartner,
		FillWithBots:  input.FillWithBots,
		OpensAt:       input.OpensAt,
		StartsAt:      input.StartsAt,
		Status:        models.StatusSoon,
	}
	if !t.OpensAt.After(time.Now()) {
		t.Status = models.StatusOpen
	}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return t, nil
}

func (s *tournamentService) Get(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return t, nil
}

func (s *tournamentService) List(ctx context.Context) ([]*models.Tournament, error) {
	list, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return list, nil
}

func (s *tournamentService) SignUp(ctx context.Context, tournamentID int, userID, partner string) error {
	t, err := s.Get(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Status != models.StatusOpen {
		return ErrRegistrationNotOpen
	}
	if partner == userID {
		return fmt.Errorf("%w: cannot partner with yourself", ErrValidationFailed)
	}
	signup := &models.Signup{TournamentID: tournamentID, UserID: userID, Partner: partner}
	if err := s.tournamentRepo.AddSignup(ctx, signup); err != nil {
		if errors.Is(err, repositories.ErrSignupConflict) {
			return ErrSignupConflict
		}
		return fmt.Errorf("failed to sign up: %w", err)
	}
	return nil
}

func (s *tournamentService) DropOut(ctx context.Context, tournamentID int, userID string) error {
	t, err := s.Get(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Status != models.StatusOpen {
		return ErrRegistrationNotOpen
	}
	if err := s.tournamentRepo.RemoveSignup(ctx, tournamentID, userID); err != nil {
		if errors.Is(err, repositories.ErrSignupNotFound) {
			return ErrSignupNotFound
		}
		return fmt.Errorf("failed to drop out: %w", err)
	}
	return nil
}

func (s *tournamentService) Start(ctx context.Context, tournamentID int) error {
	t, err := s.Get(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Status != models.StatusOpen && t.Status != models.StatusSoon {
		return ErrInvalidStatusChange
	}

	signups, err := s.tournamentRepo.ListSignups(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to load signups for tournament %d: %w", tournamentID, err)
	}

	driver, err := brackets.NewDriver(brackets.DriverConfig{
		Tournament: t,
		Signups:    signups,
		Resolver:   s.resolver,
		Rooms:      s.registry,
		Events:     &tournamentEvents{hub: s.hub, logger: s.logger},
	})
	if err != nil {
		// Setup invariant violation: abort the tournament rather
		// than run with a broken pool.
		if uerr := s.tournamentRepo.UpdateStatus(ctx, tournamentID, models.StatusCanceled); uerr != nil {
			s.logger.Error("failed to cancel broken tournament",
				slog.Int("tournament", tournamentID), slog.Any("error", uerr))
		}
		return fmt.Errorf("tournament %d setup failed: %w", tournamentID, err)
	}

	if driver.Canceled() {
		s.logger.Info("tournament canceled for insufficient teams",
			slog.Int("tournament", tournamentID), slog.Int("teams", len(driver.Teams())))
		return s.tournamentRepo.UpdateStatus(ctx, tournamentID, models.StatusCanceled)
	}

	s.mu.Lock()
	if _, live := s.drivers[tournamentID]; live {
		s.mu.Unlock()
		return ErrInvalidStatusChange
	}
	s.drivers[tournamentID] = driver
	s.mu.Unlock()

	if err := s.tournamentRepo.UpdateStatus(ctx, tournamentID, models.StatusPlaying); err != nil {
		return fmt.Errorf("failed to mark tournament %d playing: %w", tournamentID, err)
	}

	s.logger.Info("tournament started",
		slog.Int("tournament", tournamentID),
		slog.Int("teams", len(driver.Teams())),
		slog.Int("rounds", len(driver.Rounds())))

	go s.run(driver)
	return nil
}

// run drives one tournament to its conclusion and records the outcome.
// The driver and its graph are discarded when this returns.
func (s *tournamentService) run(driver *brackets.Driver) {
	t := driver.Tournament()
	ctx := context.Background()

	err := driver.Run(ctx)

	s.mu.Lock()
	delete(s.drivers, t.ID)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("tournament run failed",
			slog.Int("tournament", t.ID), slog.Any("error", err))
		if uerr := s.tournamentRepo.UpdateStatus(ctx, t.ID, models.StatusCanceled); uerr != nil {
			s.logger.Error("failed to mark failed tournament canceled",
				slog.Int("tournament", t.ID), slog.Any("error", uerr))
		}
		return
	}

	if err := s.recordResult(ctx, driver); err != nil {
		s.logger.Error("failed to record tournament result",
			slog.Int("tournament", t.ID), slog.Any("error", err))
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, t.ID, models.StatusDone); err != nil {
		s.logger.Error("failed to mark tournament done",
			slog.Int("tournament", t.ID), slog.Any("error", err))
	}
	s.logger.Info("tournament finished", slog.Int("tournament", t.ID))
}

func (s *tournamentService) recordResult(ctx context.Context, driver *brackets.Driver) error {
	t := driver.Tournament()
	final := driver.Rounds()[len(driver.Rounds())-1][0]
	winners := final.Winner()
	if winners == nil {
		return fmt.Errorf("tournament %d finished without a winner", t.ID)
	}

	result := &models.TournamentResult{
		TournamentID: t.ID,
		Winners:      winners.Users,
		Dropped:      driver.Dropped(),
		FinishedAt:   time.Now(),
	}
	result.ArchiveURL = s.archiveBracket(ctx, driver)

	var games []models.GameResult
	for _, round := range driver.Rounds() {
		for _, g := range round {
			w := g.Winner()
			if w == nil {
				continue
			}
			bye := false
			for _, team := range g.Teams() {
				if team.IsBye() {
					bye = true
				}
			}
			games = append(games, models.GameResult{
				TournamentID: t.ID,
				GameID:       g.ID,
				Round:        g.Round,
				Bye:          bye,
				Winners:      w.Users,
			})
		}
	}
	return s.resultRepo.Save(ctx, result, games)
}

// archiveBracket uploads the final bracket snapshot for history and
// rendering. Best effort: archive failures never fail the tournament.
func (s *tournamentService) archiveBracket(ctx context.Context, driver *brackets.Driver) string {
	if s.uploader == nil {
		return ""
	}
	t := driver.Tournament()
	view := driver.View()
	data, err := json.Marshal(view)
	if err != nil {
		s.logger.Error("failed to marshal bracket archive",
			slog.Int("tournament", t.ID), slog.Any("error", err))
		return ""
	}
	key := fmt.Sprintf("brackets/%d.json", t.ID)
	uploaded, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(data))
	if err != nil {
		s.logger.Error("failed to upload bracket archive",
			slog.Int("tournament", t.ID), slog.Any("error", err))
		return ""
	}
	return uploaded.Location
}

func (s *tournamentService) BracketState(tournamentID int) (*brackets.BracketView, error) {
	s.mu.Lock()
	driver, ok := s.drivers[tournamentID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrTournamentNotLive
	}
	view := driver.View()
	return &view, nil
}

func (s *tournamentService) ReportMatchResult(roomID string, report MatchReport) error {
	res := brackets.MatchResult{
		WinningSeats: report.WinningSeats,
		Winners:      report.Winners,
	}
	if report.Error != "" {
		res.Err = errors.New(report.Error)
	}
	if err := s.registry.Complete(roomID, res); err != nil {
		if errors.Is(err, rooms.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	return nil
}

func (s *tournamentService) AutoUpdateTournamentStatusesByDates(ctx context.Context) error {
	now := time.Now()
	list, err := s.tournamentRepo.List(ctx, models.StatusSoon, models.StatusOpen)
	if err != nil {
		return fmt.Errorf("failed to list pending tournaments: %w", err)
	}

	for _, t := range list {
		switch {
		case t.Status == models.StatusSoon && !now.Before(t.OpensAt):
			if err := s.tournamentRepo.UpdateStatus(ctx, t.ID, models.StatusOpen); err != nil {
				s.logger.Error("failed to open registration",
					slog.Int("tournament", t.ID), slog.Any("error", err))
				continue
			}
			s.hub.BroadcastToRoom(tournamentRoom(t.ID), brackets.Message{
				Type:    "registration_open",
				Payload: map[string]any{"tournament_id": t.ID},
			})
		case t.Status == models.StatusOpen && !now.Before(t.StartsAt):
			if err := s.Start(ctx, t.ID); err != nil {
				s.logger.Error("scheduled start failed",
					slog.Int("tournament", t.ID), slog.Any("error", err))
			}
		}
	}
	return nil
}

func (s *tournamentService) Result(ctx context.Context, tournamentID int) (*models.TournamentResult, []models.GameResult, error) {
	result, games, err := s.resultRepo.GetByTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to load result for tournament %d: %w", tournamentID, err)
	}
	return result, games, nil
}

func tournamentRoom(id int) string {
	return fmt.Sprintf("tournament_%d", id)
}

// tournamentEvents relays engine notifications to websocket watchers.
type tournamentEvents struct {
	hub    *brackets.Hub
	logger *slog.Logger
}

func (e *tournamentEvents) ByeAnnounced(t *models.Tournament, user string, round int) {
	e.logger.Info("bye announced",
		slog.Int("tournament", t.ID), slog.String("user", user), slog.Int("round", round))
	e.hub.BroadcastToRoom(tournamentRoom(t.ID), brackets.Message{
		Type: "bye_announced",
		Payload: map[string]any{
			"tournament_id": t.ID,
			"user":          user,
			"round":         round,
		},
	})
}

func (e *tournamentEvents) MatchReady(t *models.Tournament, round int, seats brackets.SeatTable, room brackets.MatchRoom) {
	payload := map[string]any{
		"tournament_id": t.ID,
		"round":         round,
		"seats":         seats,
	}
	if r, ok := room.(*rooms.Room); ok {
		payload["room_id"] = r.ID
	}
	e.logger.Info("match ready", slog.Int("tournament", t.ID), slog.Int("round", round))
	e.hub.BroadcastToRoom(tournamentRoom(t.ID), brackets.Message{
		Type:    "match_ready",
		Payload: payload,
	})
}

func (e *tournamentEvents) TournamentFinished(t *models.Tournament, winners *brackets.Team, room brackets.MatchRoom) {
	e.logger.Info("tournament finished",
		slog.Int("tournament", t.ID),
		slog.String("winner_1", winners.Users[0]),
		slog.String("winner_2", winners.Users[1]))
	e.hub.BroadcastToRoom(tournamentRoom(t.ID), brackets.Message{
		Type: "tournament_finished",
		Payload: map[string]any{
			"tournament_id": t.ID,
			"winners":       winners.Users,
		},
	})
}
