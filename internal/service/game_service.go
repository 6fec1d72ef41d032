package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bracketiq/bracketiq/internal/bracket"
	"github.com/bracketiq/bracketiq/internal/store"
)

type GameService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	brackets    *store.BracketStore
}

func NewGameService(db *sqlx.DB, tournaments *store.TournamentStore, brackets *store.BracketStore) *GameService {
	return &GameService{db: db, tournaments: tournaments, brackets: brackets}
}

// RecordResult enters the authoritative result for a game: sets the
// winner (and scores when given), propagates the winner into the
// successor's slot, and re-evaluates every prediction made on the game.
// All of it commits atomically; validation failures leave nothing
// behind. Recording the same winner twice is a no-op.
func (s *GameService) RecordResult(ctx context.Context, gameID, winnerID uuid.UUID, score1, score2 *int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	game, err := s.tournaments.GetGameTx(ctx, tx, gameID.String())
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	if !game.HasParticipant(winnerID) {
		return &bracket.InvalidWinnerError{GameNumber: game.GameNumber, WinnerID: winnerID}
	}

	game.WinnerID = &winnerID
	game.Score1 = score1
	game.Score2 = score2
	if err := game.Validate(); err != nil {
		return err
	}

	if err := s.tournaments.UpdateGameTx(ctx, tx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	if err := s.propagateResult(ctx, tx, game, winnerID); err != nil {
		return err
	}

	if err := s.rescorePredictions(ctx, tx, game, winnerID); err != nil {
		return err
	}

	return tx.Commit()
}

// propagateResult writes the winner into the canonical successor game.
// Nothing to do for the championship.
func (s *GameService) propagateResult(ctx context.Context, tx *sqlx.Tx, game *bracket.Game, winnerID uuid.UUID) error {
	if game.NextGameID == nil {
		return nil
	}

	next, err := s.tournaments.GetGameTx(ctx, tx, game.NextGameID.String())
	if err != nil {
		return fmt.Errorf("failed to get next game: %w", err)
	}

	sibling, err := s.tournaments.GetSiblingGameTx(ctx, tx, next.ID.String(), game.ID.String())
	if err != nil {
		return fmt.Errorf("failed to get sibling game: %w", err)
	}

	slot := slotForFeeder(game, sibling)
	fillGameSlot(next, slot, winnerID, game.SeedOf(winnerID))

	if err := s.tournaments.UpdateGameTx(ctx, tx, next); err != nil {
		return fmt.Errorf("failed to update next game: %w", err)
	}
	return nil
}

// rescorePredictions recomputes correctness and points for every
// prediction on the game, inside the same transaction as the result
// write so no reader sees a new winner next to a stale score.
func (s *GameService) rescorePredictions(ctx context.Context, tx *sqlx.Tx, game *bracket.Game, winnerID uuid.UUID) error {
	predictions, err := s.brackets.GetPredictionsForGameTx(ctx, tx, game.ID.String())
	if err != nil {
		return fmt.Errorf("failed to get predictions: %w", err)
	}

	for i := range predictions {
		p := &predictions[i]
		isCorrect := p.PredictedWinnerID == winnerID
		points := 0
		if isCorrect {
			points = game.Round.Points()
		}
		if p.IsCorrect == isCorrect && p.PointsEarned == points {
			continue
		}
		p.IsCorrect = isCorrect
		p.PointsEarned = points
		if err := s.brackets.UpdatePredictionScoreTx(ctx, tx, p); err != nil {
			return fmt.Errorf("failed to update prediction: %w", err)
		}
	}
	return nil
}
