package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/bracketiq/bracketiq/internal/bracket"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, year, name, start_date, end_date)
		VALUES (:id, :year, :name, :start_date, :end_date)`, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id string) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, "SELECT * FROM tournaments WHERE id = ?", id)
	return &tournament, err
}

func (s *TournamentStore) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments ORDER BY year DESC")
	return tournaments, err
}

const insertGameQuery = `INSERT INTO games (id, tournament_id, round, region, game_number, seed_1, team_1_id, seed_2, team_2_id, winner_id, score_1, score_2, game_date, next_game_id)
	VALUES (:id, :tournament_id, :round, :region, :game_number, :seed_1, :team_1_id, :seed_2, :team_2_id, :winner_id, :score_1, :score_2, :game_date, :next_game_id)`

const updateGameQuery = `UPDATE games SET
	seed_1 = :seed_1,
	team_1_id = :team_1_id,
	seed_2 = :seed_2,
	team_2_id = :team_2_id,
	winner_id = :winner_id,
	score_1 = :score_1,
	score_2 = :score_2,
	game_date = :game_date,
	next_game_id = :next_game_id
	WHERE id = :id`

func (s *TournamentStore) CreateGames(ctx context.Context, tx *sqlx.Tx, games []bracket.Game) error {
	if len(games) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, insertGameQuery, games)
	return err
}

func (s *TournamentStore) GetGames(ctx context.Context, tournamentID string) ([]bracket.Game, error) {
	var games []bracket.Game
	err := s.db.SelectContext(ctx, &games, "SELECT * FROM games WHERE tournament_id = ? ORDER BY round ASC, game_number ASC", tournamentID)
	return games, err
}

func (s *TournamentStore) GetGamesTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) ([]bracket.Game, error) {
	var games []bracket.Game
	err := tx.SelectContext(ctx, &games, "SELECT * FROM games WHERE tournament_id = ? ORDER BY round ASC, game_number ASC", tournamentID)
	return games, err
}

func (s *TournamentStore) GetGame(ctx context.Context, id string) (*bracket.Game, error) {
	var game bracket.Game
	err := s.db.GetContext(ctx, &game, "SELECT * FROM games WHERE id = ?", id)
	return &game, err
}

func (s *TournamentStore) GetGameTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Game, error) {
	var game bracket.Game
	err := tx.GetContext(ctx, &game, "SELECT * FROM games WHERE id = ?", id)
	return &game, err
}

func (s *TournamentStore) UpdateGameTx(ctx context.Context, tx *sqlx.Tx, game *bracket.Game) error {
	_, err := tx.NamedExecContext(ctx, updateGameQuery, game)
	return err
}

// GetSiblingGameTx returns the other game feeding the same successor, or
// nil when the game is the successor's only feeder.
func (s *TournamentStore) GetSiblingGameTx(ctx context.Context, tx *sqlx.Tx, nextGameID string, excludeID string) (*bracket.Game, error) {
	var game bracket.Game
	err := tx.GetContext(ctx, &game, "SELECT * FROM games WHERE next_game_id = ? AND id != ?", nextGameID, excludeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}
