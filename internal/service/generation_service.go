package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bracketiq/bracketiq/internal/bracket"
	"github.com/bracketiq/bracketiq/internal/store"
	users "github.com/bracketiq/bracketiq/internal/user"
)

type GenerationService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	brackets    *store.BracketStore
	users       *store.UserStore
	bracketSvc  *BracketService

	// Oracle backs StrategyOracle; nil unless an external scorer is
	// wired in.
	Oracle OracleFunc

	rng *rand.Rand
}

func NewGenerationService(db *sqlx.DB, tournaments *store.TournamentStore, brackets *store.BracketStore, userStore *store.UserStore) *GenerationService {
	return &GenerationService{
		db:          db,
		tournaments: tournaments,
		brackets:    brackets,
		users:       userStore,
		bracketSvc:  NewBracketService(db, tournaments, brackets),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateBracket fills an entire bracket with predictions from one
// strategy, advancing each predicted winner into the successor overlay
// and recursing as soon as a successor's matchup becomes known. Games
// that already have a prediction are left alone, so re-running is safe
// and resumes a half-filled bracket. Everything commits atomically; a
// strategy that cannot pick a resolvable game aborts the whole run.
func (s *GenerationService) GenerateBracket(ctx context.Context, bracketID uuid.UUID, strategy Strategy) error {
	pick, err := pickerFor(strategy, s.rng, s.Oracle)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	run, err := s.loadGenerationRun(ctx, tx, bracketID)
	if err != nil {
		return err
	}

	// Round-major order; the recursion inside handles the games this
	// pass unlocks.
	for i := range run.games {
		if err := s.predictGame(ctx, tx, run, &run.games[i], strategy, pick); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// generationRun is the in-memory working set for one bracket fill: the
// canonical game tree, sibling pairs, and the bracket's overlay and
// prediction state.
type generationRun struct {
	bracketID   uuid.UUID
	games       []bracket.Game
	gamesByID   map[uuid.UUID]*bracket.Game
	feedersByID map[uuid.UUID][]*bracket.Game
	overlay     map[uuid.UUID]*bracket.BracketGame
	predictions map[uuid.UUID]bool
}

func (s *GenerationService) loadGenerationRun(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID) (*generationRun, error) {
	b, err := s.brackets.GetBracketTx(ctx, tx, bracketID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get bracket: %w", err)
	}

	games, err := s.tournaments.GetGamesTx(ctx, tx, b.TournamentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	run := &generationRun{
		bracketID:   bracketID,
		games:       games,
		gamesByID:   make(map[uuid.UUID]*bracket.Game, len(games)),
		feedersByID: make(map[uuid.UUID][]*bracket.Game),
		overlay:     make(map[uuid.UUID]*bracket.BracketGame, len(games)),
		predictions: make(map[uuid.UUID]bool),
	}
	for i := range run.games {
		g := &run.games[i]
		run.gamesByID[g.ID] = g
		if g.NextGameID != nil {
			run.feedersByID[*g.NextGameID] = append(run.feedersByID[*g.NextGameID], g)
		}
	}

	overlay, err := s.brackets.GetBracketGamesTx(ctx, tx, bracketID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get bracket games: %w", err)
	}
	for i := range overlay {
		run.overlay[overlay[i].GameID] = &overlay[i]
	}

	predictions, err := s.brackets.GetPredictionsTx(ctx, tx, bracketID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get predictions: %w", err)
	}
	for i := range predictions {
		run.predictions[predictions[i].GameID] = true
	}

	return run, nil
}

func (s *GenerationService) predictGame(ctx context.Context, tx *sqlx.Tx, run *generationRun, game *bracket.Game, strategy Strategy, pick PickFunc) error {
	bg := run.overlay[game.ID]
	if bg == nil || !bg.Complete() {
		// Feeders haven't been resolved yet.
		return nil
	}
	if run.predictions[game.ID] {
		return nil
	}

	a := Candidate{TeamID: *bg.Team1ID}
	b := Candidate{TeamID: *bg.Team2ID}
	if bg.Seed1 != nil {
		a.Seed = *bg.Seed1
	}
	if bg.Seed2 != nil {
		b.Seed = *bg.Seed2
	}

	winnerID, err := pick(a, b)
	if err != nil || winnerID == uuid.Nil {
		exhausted := &bracket.StrategyExhaustedError{GameNumber: game.GameNumber, Strategy: string(strategy)}
		if err != nil {
			return fmt.Errorf("%w: %w", exhausted, err)
		}
		return exhausted
	}
	if !bg.HasParticipant(winnerID) {
		return &bracket.InvalidWinnerError{GameNumber: game.GameNumber, WinnerID: winnerID}
	}

	p := bracket.Prediction{
		ID:                uuid.New(),
		BracketID:         run.bracketID,
		GameID:            game.ID,
		PredictedWinnerID: winnerID,
	}
	if game.WinnerID != nil {
		p.IsCorrect = *game.WinnerID == winnerID
		if p.IsCorrect {
			p.PointsEarned = game.Round.Points()
		}
	}
	if err := s.brackets.UpsertPredictionTx(ctx, tx, &p); err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}
	run.predictions[game.ID] = true

	bg.WinnerID = &winnerID
	if err := s.brackets.UpdateBracketGameTx(ctx, tx, bg); err != nil {
		return fmt.Errorf("failed to update bracket game: %w", err)
	}

	if game.NextGameID == nil {
		return nil
	}

	next := run.gamesByID[*game.NextGameID]
	if next == nil {
		return errors.New("next game missing from tournament")
	}

	var sibling *bracket.Game
	for _, feeder := range run.feedersByID[next.ID] {
		if feeder.ID != game.ID {
			sibling = feeder
		}
	}

	nextBG := run.overlay[next.ID]
	if nextBG == nil {
		created, err := s.brackets.GetOrCreateBracketGameTx(ctx, tx, run.bracketID, next.ID)
		if err != nil {
			return fmt.Errorf("failed to get next bracket game: %w", err)
		}
		nextBG = created
		run.overlay[next.ID] = nextBG
	}

	slot := slotForFeeder(game, sibling)
	fillBracketGameSlot(nextBG, slot, winnerID, bg.SeedOf(winnerID))
	if err := s.brackets.UpdateBracketGameTx(ctx, tx, nextBG); err != nil {
		return fmt.Errorf("failed to update next bracket game: %w", err)
	}

	// The successor's matchup may just have become known; resolve it
	// now rather than waiting for the outer pass.
	if nextBG.Complete() {
		return s.predictGame(ctx, tx, run, next, strategy, pick)
	}
	return nil
}

// GenerateBrackets creates count brackets for generated users and fills
// each one with the strategy, continuing the "<label> Bracket <n>"
// numbering from whatever already exists.
func (s *GenerationService) GenerateBrackets(ctx context.Context, tournamentID uuid.UUID, strategy Strategy, count int, userPrefix string) ([]uuid.UUID, error) {
	if count <= 0 {
		return nil, fmt.Errorf("bracket count must be positive")
	}

	existing, err := s.brackets.GetBracketsByTournament(ctx, tournamentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get brackets: %w", err)
	}
	next := 1
	prefix := strategy.Label() + " Bracket "
	for _, b := range existing {
		var n int
		if _, err := fmt.Sscanf(b.Name, prefix+"%d", &n); err == nil && n >= next {
			next = n + 1
		}
	}

	created := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		u := &users.User{
			ID:       uuid.New(),
			Username: fmt.Sprintf("%s_%d", userPrefix, next+i),
		}
		if err := s.users.CreateUser(ctx, u); err != nil {
			return created, fmt.Errorf("failed to create user: %w", err)
		}

		name := fmt.Sprintf("%s%d", prefix, next+i)
		bracketID, err := s.bracketSvc.CreateBracketForUser(ctx, tournamentID, u.ID, name)
		if err != nil {
			return created, err
		}
		if err := s.GenerateBracket(ctx, bracketID, strategy); err != nil {
			return created, err
		}
		created = append(created, bracketID)
	}
	return created, nil
}
