package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bracketiq/bracketiq/internal/bracket"
)

type BracketStore struct {
	db *sqlx.DB
}

func NewBracketStore(db *sqlx.DB) *BracketStore {
	return &BracketStore{db: db}
}

func (s *BracketStore) CreateBracket(ctx context.Context, tx *sqlx.Tx, b *bracket.Bracket) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO brackets (id, tournament_id, user_id, name)
		VALUES (:id, :tournament_id, :user_id, :name)`, b)
	return err
}

func (s *BracketStore) GetBracket(ctx context.Context, id string) (*bracket.Bracket, error) {
	var b bracket.Bracket
	err := s.db.GetContext(ctx, &b, "SELECT * FROM brackets WHERE id = ?", id)
	return &b, err
}

func (s *BracketStore) GetBracketTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Bracket, error) {
	var b bracket.Bracket
	err := tx.GetContext(ctx, &b, "SELECT * FROM brackets WHERE id = ?", id)
	return &b, err
}

func (s *BracketStore) GetBracketsByTournament(ctx context.Context, tournamentID string) ([]bracket.Bracket, error) {
	var brackets []bracket.Bracket
	err := s.db.SelectContext(ctx, &brackets, "SELECT * FROM brackets WHERE tournament_id = ? ORDER BY created_at ASC", tournamentID)
	return brackets, err
}

func (s *BracketStore) GetBracketsByUser(ctx context.Context, userID string) ([]bracket.Bracket, error) {
	var brackets []bracket.Bracket
	err := s.db.SelectContext(ctx, &brackets, "SELECT * FROM brackets WHERE user_id = ? ORDER BY created_at DESC", userID)
	return brackets, err
}

const insertBracketGameQuery = `INSERT INTO bracket_games (id, bracket_id, game_id, seed_1, team_1_id, seed_2, team_2_id, winner_id)
	VALUES (:id, :bracket_id, :game_id, :seed_1, :team_1_id, :seed_2, :team_2_id, :winner_id)`

const updateBracketGameQuery = `UPDATE bracket_games SET
	seed_1 = :seed_1,
	team_1_id = :team_1_id,
	seed_2 = :seed_2,
	team_2_id = :team_2_id,
	winner_id = :winner_id
	WHERE id = :id`

func (s *BracketStore) CreateBracketGames(ctx context.Context, tx *sqlx.Tx, bracketGames []bracket.BracketGame) error {
	if len(bracketGames) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, insertBracketGameQuery, bracketGames)
	return err
}

func (s *BracketStore) GetBracketGames(ctx context.Context, bracketID string) ([]bracket.BracketGame, error) {
	var bracketGames []bracket.BracketGame
	err := s.db.SelectContext(ctx, &bracketGames, "SELECT * FROM bracket_games WHERE bracket_id = ?", bracketID)
	return bracketGames, err
}

func (s *BracketStore) GetBracketGamesTx(ctx context.Context, tx *sqlx.Tx, bracketID string) ([]bracket.BracketGame, error) {
	var bracketGames []bracket.BracketGame
	err := tx.SelectContext(ctx, &bracketGames, "SELECT * FROM bracket_games WHERE bracket_id = ?", bracketID)
	return bracketGames, err
}

func (s *BracketStore) GetBracketGameTx(ctx context.Context, tx *sqlx.Tx, bracketID, gameID string) (*bracket.BracketGame, error) {
	var bg bracket.BracketGame
	err := tx.GetContext(ctx, &bg, "SELECT * FROM bracket_games WHERE bracket_id = ? AND game_id = ?", bracketID, gameID)
	return &bg, err
}

// GetOrCreateBracketGameTx fetches the overlay row for (bracket, game),
// creating an empty one when the bracket has not reached that game yet.
func (s *BracketStore) GetOrCreateBracketGameTx(ctx context.Context, tx *sqlx.Tx, bracketID, gameID uuid.UUID) (*bracket.BracketGame, error) {
	var bg bracket.BracketGame
	err := tx.GetContext(ctx, &bg, "SELECT * FROM bracket_games WHERE bracket_id = ? AND game_id = ?", bracketID, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		bg = bracket.BracketGame{
			ID:        uuid.New(),
			BracketID: bracketID,
			GameID:    gameID,
		}
		if _, err := tx.NamedExecContext(ctx, insertBracketGameQuery, &bg); err != nil {
			return nil, err
		}
		return &bg, nil
	}
	if err != nil {
		return nil, err
	}
	return &bg, nil
}

func (s *BracketStore) UpdateBracketGameTx(ctx context.Context, tx *sqlx.Tx, bg *bracket.BracketGame) error {
	_, err := tx.NamedExecContext(ctx, updateBracketGameQuery, bg)
	return err
}

func (s *BracketStore) GetPredictions(ctx context.Context, bracketID string) ([]bracket.Prediction, error) {
	var predictions []bracket.Prediction
	err := s.db.SelectContext(ctx, &predictions, "SELECT * FROM predictions WHERE bracket_id = ?", bracketID)
	return predictions, err
}

func (s *BracketStore) GetPredictionsTx(ctx context.Context, tx *sqlx.Tx, bracketID string) ([]bracket.Prediction, error) {
	var predictions []bracket.Prediction
	err := tx.SelectContext(ctx, &predictions, "SELECT * FROM predictions WHERE bracket_id = ?", bracketID)
	return predictions, err
}

// UpsertPredictionTx creates or replaces a bracket's pick for a game.
// Changing a pick resets the derived score fields; they are recomputed
// when the actual result comes in.
func (s *BracketStore) UpsertPredictionTx(ctx context.Context, tx *sqlx.Tx, p *bracket.Prediction) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO predictions (id, bracket_id, game_id, predicted_winner_id, is_correct, points_earned)
		VALUES (:id, :bracket_id, :game_id, :predicted_winner_id, :is_correct, :points_earned)
		ON CONFLICT (bracket_id, game_id) DO UPDATE SET
			predicted_winner_id = excluded.predicted_winner_id,
			is_correct = excluded.is_correct,
			points_earned = excluded.points_earned`, p)
	return err
}

func (s *BracketStore) GetPredictionsForGameTx(ctx context.Context, tx *sqlx.Tx, gameID string) ([]bracket.Prediction, error) {
	var predictions []bracket.Prediction
	err := tx.SelectContext(ctx, &predictions, "SELECT * FROM predictions WHERE game_id = ?", gameID)
	return predictions, err
}

func (s *BracketStore) UpdatePredictionScoreTx(ctx context.Context, tx *sqlx.Tx, p *bracket.Prediction) error {
	_, err := tx.NamedExecContext(ctx, `UPDATE predictions SET
		is_correct = :is_correct,
		points_earned = :points_earned
		WHERE id = :id`, p)
	return err
}
