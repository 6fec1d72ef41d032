package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/bracketiq/bracketiq/internal/bracket"
)

type TeamStore struct {
	db *sqlx.DB
}

func NewTeamStore(db *sqlx.DB) *TeamStore {
	return &TeamStore{db: db}
}

func (s *TeamStore) CreateTeams(ctx context.Context, tx *sqlx.Tx, teams []bracket.Team) error {
	if len(teams) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO teams (id, name, short_name, mascot)
		VALUES (:id, :name, :short_name, :mascot)`, teams)
	return err
}

func (s *TeamStore) CreateTeam(ctx context.Context, team *bracket.Team) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO teams (id, name, short_name, mascot)
		VALUES (:id, :name, :short_name, :mascot)`, team)
	return err
}

func (s *TeamStore) GetTeam(ctx context.Context, id string) (*bracket.Team, error) {
	var team bracket.Team
	err := s.db.GetContext(ctx, &team, "SELECT * FROM teams WHERE id = ?", id)
	return &team, err
}

func (s *TeamStore) GetTeamByNameTx(ctx context.Context, tx *sqlx.Tx, name string) (*bracket.Team, error) {
	var team bracket.Team
	err := tx.GetContext(ctx, &team, "SELECT * FROM teams WHERE name = ?", name)
	return &team, err
}

func (s *TeamStore) ListTeams(ctx context.Context) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := s.db.SelectContext(ctx, &teams, "SELECT * FROM teams ORDER BY name ASC")
	return teams, err
}
