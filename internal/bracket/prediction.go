package bracket

import (
	"time"

	"github.com/google/uuid"
)

// Prediction is a bracket's chosen winner for one game. IsCorrect and
// PointsEarned are derived from the actual result; they are written only
// when a game's winner is recorded and recomputed on corrections.
type Prediction struct {
	ID                uuid.UUID `db:"id"`
	BracketID         uuid.UUID `db:"bracket_id"`
	GameID            uuid.UUID `db:"game_id"`
	PredictedWinnerID uuid.UUID `db:"predicted_winner_id"`
	IsCorrect         bool      `db:"is_correct"`
	PointsEarned      int       `db:"points_earned"`
	CreatedAt         time.Time `db:"created_at"`
}

// CalculatePoints derives the points this prediction is worth given the
// round it was made in. First Four games are always worth zero.
func (p *Prediction) CalculatePoints(round Round) int {
	if !p.IsCorrect {
		return 0
	}
	return round.Points()
}
