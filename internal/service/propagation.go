package service

import (
	"github.com/google/uuid"

	"github.com/bracketiq/bracketiq/internal/bracket"
)

// Slot assignment for winner propagation. Both the live result path and
// bracket generation route through these helpers so the two callers can
// never drift apart on which slot a feeder fills.

// slotForFeeder maps a feeder game onto its successor's slot. When two
// games feed the same successor, the one with the lower game number owns
// slot 1 and the other owns slot 2, independent of call order or current
// slot occupancy. A zero return means the pairing could not be
// determined (the game is its successor's only feeder, as with a First
// Four game playing into a half-seeded Round of 64 game).
func slotForFeeder(feeder, sibling *bracket.Game) int {
	if sibling == nil {
		return 0
	}
	if feeder.GameNumber < sibling.GameNumber {
		return 1
	}
	return 2
}

// resolveSlot picks a slot when the pairing is unknown: the slot already
// holding this team (repeat call), then the slot seeded for this feeder
// (a First Four correction), then the first empty slot.
func resolveSlot(teamID uuid.UUID, seed *int, team1ID, team2ID *uuid.UUID, seed1, seed2 *int) int {
	switch {
	case team1ID != nil && *team1ID == teamID:
		return 1
	case team2ID != nil && *team2ID == teamID:
		return 2
	case seed != nil && seed1 != nil && *seed1 == *seed:
		return 1
	case seed != nil && seed2 != nil && *seed2 == *seed:
		return 2
	case team1ID == nil:
		return 1
	default:
		return 2
	}
}

func fillGameSlot(next *bracket.Game, slot int, teamID uuid.UUID, seed *int) {
	if slot == 0 {
		slot = resolveSlot(teamID, seed, next.Team1ID, next.Team2ID, next.Seed1, next.Seed2)
	}
	if slot == 1 {
		next.Team1ID = &teamID
		next.Seed1 = seed
	} else {
		next.Team2ID = &teamID
		next.Seed2 = seed
	}
}

func fillBracketGameSlot(next *bracket.BracketGame, slot int, teamID uuid.UUID, seed *int) {
	if slot == 0 {
		slot = resolveSlot(teamID, seed, next.Team1ID, next.Team2ID, next.Seed1, next.Seed2)
	}
	if slot == 1 {
		next.Team1ID = &teamID
		next.Seed1 = seed
	} else {
		next.Team2ID = &teamID
		next.Seed2 = seed
	}
}
