package bracket

import (
	"time"

	"github.com/google/uuid"
)

// Bracket is one user's set of picks for a tournament.
type Bracket struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`
	UserID       uuid.UUID `db:"user_id"`
	Name         string    `db:"name"`
	CreatedAt    time.Time `db:"created_at"`
}

// BracketGame is the per-bracket overlay of a game: which teams this
// bracket believes will occupy the game's slots along its predicted
// path. It diverges from the canonical Game as soon as a pick differs
// from an actual result.
type BracketGame struct {
	ID        uuid.UUID `db:"id"`
	BracketID uuid.UUID `db:"bracket_id"`
	GameID    uuid.UUID `db:"game_id"`

	Seed1   *int       `db:"seed_1"`
	Team1ID *uuid.UUID `db:"team_1_id"`
	Seed2   *int       `db:"seed_2"`
	Team2ID *uuid.UUID `db:"team_2_id"`

	WinnerID *uuid.UUID `db:"winner_id"`
}

func (bg *BracketGame) HasParticipant(teamID uuid.UUID) bool {
	if bg.Team1ID != nil && *bg.Team1ID == teamID {
		return true
	}
	return bg.Team2ID != nil && *bg.Team2ID == teamID
}

func (bg *BracketGame) SeedOf(teamID uuid.UUID) *int {
	if bg.Team1ID != nil && *bg.Team1ID == teamID {
		return bg.Seed1
	}
	if bg.Team2ID != nil && *bg.Team2ID == teamID {
		return bg.Seed2
	}
	return nil
}

// Complete reports whether both slots are known, i.e. the game is ready
// for a prediction within this bracket.
func (bg *BracketGame) Complete() bool {
	return bg.Team1ID != nil && bg.Team2ID != nil
}
