package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

// InvalidWinnerError reports a winner or prediction that is not one of
// the game's known participants. It is raised before any mutation.
type InvalidWinnerError struct {
	GameNumber int
	WinnerID   uuid.UUID
}

func (e *InvalidWinnerError) Error() string {
	return fmt.Sprintf("team %s is not a participant of game %d", e.WinnerID, e.GameNumber)
}

// DataIntegrityError reports a bracket structure that cannot be built.
type DataIntegrityError struct {
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return "bracket structure: " + e.Reason
}

// InconsistentScoreError reports a score line that contradicts itself or
// the recorded winner.
type InconsistentScoreError struct {
	GameNumber int
	Reason     string
}

func (e *InconsistentScoreError) Error() string {
	return fmt.Sprintf("game %d: %s", e.GameNumber, e.Reason)
}

// StrategyExhaustedError reports a generation strategy that could not
// produce a winner for a game whose participants are known.
type StrategyExhaustedError struct {
	GameNumber int
	Strategy   string
}

func (e *StrategyExhaustedError) Error() string {
	return fmt.Sprintf("strategy %s produced no winner for game %d", e.Strategy, e.GameNumber)
}
