package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bracketiq/bracketiq/internal/bracket"
	"github.com/bracketiq/bracketiq/internal/middleware"
	"github.com/bracketiq/bracketiq/internal/store"
)

type BracketService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	brackets    *store.BracketStore
}

func NewBracketService(db *sqlx.DB, tournaments *store.TournamentStore, brackets *store.BracketStore) *BracketService {
	return &BracketService{db: db, tournaments: tournaments, brackets: brackets}
}

type BracketData struct {
	Bracket     *bracket.Bracket
	Games       []bracket.Game
	Overlay     []bracket.BracketGame
	Predictions []bracket.Prediction
}

// newBracketSnapshot copies the canonical slot state of every game into
// per-bracket overlay rows. The overlay starts in agreement with
// reality and diverges as picks differ from results.
func newBracketSnapshot(bracketID uuid.UUID, games []bracket.Game) []bracket.BracketGame {
	snapshot := make([]bracket.BracketGame, 0, len(games))
	for _, g := range games {
		snapshot = append(snapshot, bracket.BracketGame{
			ID:        uuid.New(),
			BracketID: bracketID,
			GameID:    g.ID,
			Seed1:     g.Seed1,
			Team1ID:   g.Team1ID,
			Seed2:     g.Seed2,
			Team2ID:   g.Team2ID,
		})
	}
	return snapshot
}

// CreateBracket creates a bracket for the session user along with its
// overlay snapshot of the tournament's games.
func (s *BracketService) CreateBracket(ctx context.Context, tournamentID uuid.UUID, name string) (uuid.UUID, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, fmt.Errorf("user ID not found in the context")
	}
	return s.CreateBracketForUser(ctx, tournamentID, userID, name)
}

func (s *BracketService) CreateBracketForUser(ctx context.Context, tournamentID, userID uuid.UUID, name string) (uuid.UUID, error) {
	games, err := s.tournaments.GetGames(ctx, tournamentID.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get games: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	b := bracket.Bracket{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		UserID:       userID,
		Name:         name,
	}
	if err := s.brackets.CreateBracket(ctx, tx, &b); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create bracket: %w", err)
	}

	if err := s.brackets.CreateBracketGames(ctx, tx, newBracketSnapshot(b.ID, games)); err != nil {
		return uuid.Nil, fmt.Errorf("failed to snapshot games: %w", err)
	}

	return b.ID, tx.Commit()
}

func (s *BracketService) GetBracketData(ctx context.Context, id string) (*BracketData, error) {
	b, err := s.brackets.GetBracket(ctx, id)
	if err != nil {
		return nil, err
	}

	games, err := s.tournaments.GetGames(ctx, b.TournamentID.String())
	if err != nil {
		return nil, err
	}

	overlay, err := s.brackets.GetBracketGames(ctx, id)
	if err != nil {
		return nil, err
	}

	predictions, err := s.brackets.GetPredictions(ctx, id)
	if err != nil {
		return nil, err
	}

	return &BracketData{Bracket: b, Games: games, Overlay: overlay, Predictions: predictions}, nil
}

// SavePrediction records the bracket's pick for a game and advances the
// picked team into the successor's overlay slot. Propagation stops
// there: the successor gets its own prediction only when the user (or a
// generation run) resolves it.
func (s *BracketService) SavePrediction(ctx context.Context, bracketID, gameID, winnerID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	b, err := s.brackets.GetBracketTx(ctx, tx, bracketID.String())
	if err != nil {
		return fmt.Errorf("failed to get bracket: %w", err)
	}

	game, err := s.tournaments.GetGameTx(ctx, tx, gameID.String())
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}
	if game.TournamentID != b.TournamentID {
		return fmt.Errorf("game does not belong to the bracket's tournament")
	}

	// The bracket's own view of the matchup decides who is pickable;
	// fall back to the canonical game when no overlay row exists.
	bg, err := s.brackets.GetBracketGameTx(ctx, tx, bracketID.String(), gameID.String())
	var winnerSeed *int
	switch {
	case err == nil:
		if !bg.HasParticipant(winnerID) {
			return &bracket.InvalidWinnerError{GameNumber: game.GameNumber, WinnerID: winnerID}
		}
		winnerSeed = bg.SeedOf(winnerID)
	case errors.Is(err, sql.ErrNoRows):
		if !game.HasParticipant(winnerID) {
			return &bracket.InvalidWinnerError{GameNumber: game.GameNumber, WinnerID: winnerID}
		}
		bg = nil
		winnerSeed = game.SeedOf(winnerID)
	default:
		return fmt.Errorf("failed to get bracket game: %w", err)
	}

	p := bracket.Prediction{
		ID:                uuid.New(),
		BracketID:         bracketID,
		GameID:            gameID,
		PredictedWinnerID: winnerID,
	}
	// Picks made after the result is in are scored immediately.
	if game.WinnerID != nil {
		p.IsCorrect = *game.WinnerID == winnerID
		if p.IsCorrect {
			p.PointsEarned = game.Round.Points()
		}
	}
	if err := s.brackets.UpsertPredictionTx(ctx, tx, &p); err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}

	if bg != nil {
		bg.WinnerID = &winnerID
		if err := s.brackets.UpdateBracketGameTx(ctx, tx, bg); err != nil {
			return fmt.Errorf("failed to update bracket game: %w", err)
		}
	}

	if err := s.propagatePick(ctx, tx, game, bracketID, winnerID, winnerSeed); err != nil {
		return err
	}

	return tx.Commit()
}

// propagatePick advances a predicted winner into the successor game's
// overlay slot for this bracket.
func (s *BracketService) propagatePick(ctx context.Context, tx *sqlx.Tx, game *bracket.Game, bracketID, winnerID uuid.UUID, winnerSeed *int) error {
	if game.NextGameID == nil {
		return nil
	}

	sibling, err := s.tournaments.GetSiblingGameTx(ctx, tx, game.NextGameID.String(), game.ID.String())
	if err != nil {
		return fmt.Errorf("failed to get sibling game: %w", err)
	}

	next, err := s.brackets.GetOrCreateBracketGameTx(ctx, tx, bracketID, *game.NextGameID)
	if err != nil {
		return fmt.Errorf("failed to get next bracket game: %w", err)
	}

	slot := slotForFeeder(game, sibling)
	fillBracketGameSlot(next, slot, winnerID, winnerSeed)

	if err := s.brackets.UpdateBracketGameTx(ctx, tx, next); err != nil {
		return fmt.Errorf("failed to update next bracket game: %w", err)
	}
	return nil
}
