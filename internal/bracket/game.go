package bracket

import (
	"time"

	"github.com/google/uuid"
)

type Region string

const (
	RegionEast      Region = "EAST"
	RegionWest      Region = "WEST"
	RegionMidwest   Region = "MIDWEST"
	RegionSouth     Region = "SOUTH"
	RegionFirstFour Region = "FIRST_FOUR"
)

// BracketRegions are the four regions that make up the main bracket,
// in Final Four pairing order (EAST plays SOUTH, WEST plays MIDWEST).
var BracketRegions = []Region{RegionSouth, RegionEast, RegionWest, RegionMidwest}

// Game is one node of the bracket tree. Both team slots are nullable
// until filled by seeding or by propagation from a predecessor game.
// NextGameID points at the game this one's winner feeds into; it is nil
// only for the championship.
type Game struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`

	Round      Round  `db:"round"`
	Region     Region `db:"region"`
	GameNumber int    `db:"game_number"`

	Seed1   *int       `db:"seed_1"`
	Team1ID *uuid.UUID `db:"team_1_id"`
	Seed2   *int       `db:"seed_2"`
	Team2ID *uuid.UUID `db:"team_2_id"`

	WinnerID *uuid.UUID `db:"winner_id"`
	Score1   *int       `db:"score_1"`
	Score2   *int       `db:"score_2"`

	GameDate   *time.Time `db:"game_date"`
	NextGameID *uuid.UUID `db:"next_game_id"`

	CreatedAt time.Time `db:"created_at"`
}

// HasParticipant reports whether teamID occupies one of the game's slots.
func (g *Game) HasParticipant(teamID uuid.UUID) bool {
	if g.Team1ID != nil && *g.Team1ID == teamID {
		return true
	}
	return g.Team2ID != nil && *g.Team2ID == teamID
}

// SeedOf returns the seed the given participant carries into this game.
func (g *Game) SeedOf(teamID uuid.UUID) *int {
	if g.Team1ID != nil && *g.Team1ID == teamID {
		return g.Seed1
	}
	if g.Team2ID != nil && *g.Team2ID == teamID {
		return g.Seed2
	}
	return nil
}

func (g *Game) Decided() bool {
	return g.WinnerID != nil
}

// Validate enforces the structural invariants: a winner must be one of
// the participants, scores come in pairs, and an entered score line must
// agree with the winner.
func (g *Game) Validate() error {
	if g.WinnerID != nil && !g.HasParticipant(*g.WinnerID) {
		return &InvalidWinnerError{GameNumber: g.GameNumber, WinnerID: *g.WinnerID}
	}
	if (g.Score1 == nil) != (g.Score2 == nil) {
		return &InconsistentScoreError{GameNumber: g.GameNumber, Reason: "both scores must be entered together"}
	}
	if g.Score1 != nil && g.Score2 != nil {
		if g.WinnerID == nil {
			return &InconsistentScoreError{GameNumber: g.GameNumber, Reason: "winner must be set if scores are entered"}
		}
		if *g.Score1 > *g.Score2 && (g.Team1ID == nil || *g.WinnerID != *g.Team1ID) {
			return &InconsistentScoreError{GameNumber: g.GameNumber, Reason: "winner must be team 1 when team 1's score is higher"}
		}
		if *g.Score2 > *g.Score1 && (g.Team2ID == nil || *g.WinnerID != *g.Team2ID) {
			return &InconsistentScoreError{GameNumber: g.GameNumber, Reason: "winner must be team 2 when team 2's score is higher"}
		}
	}
	return nil
}
