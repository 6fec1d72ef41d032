package service

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// Strategy selects how a generated bracket picks winners.
type Strategy string

const (
	StrategyRandom               Strategy = "RANDOM"
	StrategyHigherSeed           Strategy = "HIGHER_SEED"
	StrategyHigherSeedWithUpsets Strategy = "HIGHER_SEED_WITH_UPSETS"
	StrategyOracle               Strategy = "ORACLE"
)

// Fraction of games where the upset strategy picks against the seeds.
const upsetChance = 0.2

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyRandom, StrategyHigherSeed, StrategyHigherSeedWithUpsets, StrategyOracle:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

func (s Strategy) Label() string {
	switch s {
	case StrategyRandom:
		return "Random Choice"
	case StrategyHigherSeed:
		return "Higher Seed"
	case StrategyHigherSeedWithUpsets:
		return "Higher Seed With Upsets"
	case StrategyOracle:
		return "Oracle"
	}
	return string(s)
}

// Candidate is one side of a matchup as a strategy sees it.
type Candidate struct {
	TeamID uuid.UUID
	Seed   int
}

// PickFunc chooses a winner between two candidates. The generation
// engine is strategy-agnostic: every strategy reduces to one of these.
type PickFunc func(a, b Candidate) (uuid.UUID, error)

// OracleFunc is the external prediction boundary: an injected scorer
// returning a winner and a confidence. The engine does not care how the
// oracle ranks teams.
type OracleFunc func(a, b Candidate) (uuid.UUID, float64, error)

// higherSeed picks the numerically lower seed. Equal seeds should not
// occur in a correctly seeded bracket; when they do (First Four games
// pair two teams on the same seed line), the first slot wins.
func higherSeed(a, b Candidate) uuid.UUID {
	if b.Seed < a.Seed {
		return b.TeamID
	}
	return a.TeamID
}

func pickerFor(strategy Strategy, rng *rand.Rand, oracle OracleFunc) (PickFunc, error) {
	switch strategy {
	case StrategyRandom:
		return func(a, b Candidate) (uuid.UUID, error) {
			if rng.Intn(2) == 0 {
				return a.TeamID, nil
			}
			return b.TeamID, nil
		}, nil

	case StrategyHigherSeed:
		return func(a, b Candidate) (uuid.UUID, error) {
			return higherSeed(a, b), nil
		}, nil

	case StrategyHigherSeedWithUpsets:
		return func(a, b Candidate) (uuid.UUID, error) {
			favorite := higherSeed(a, b)
			// One independent draw per game.
			if rng.Float64() < upsetChance {
				if favorite == a.TeamID {
					return b.TeamID, nil
				}
				return a.TeamID, nil
			}
			return favorite, nil
		}, nil

	case StrategyOracle:
		if oracle == nil {
			return nil, fmt.Errorf("no oracle configured")
		}
		return func(a, b Candidate) (uuid.UUID, error) {
			winner, _, err := oracle(a, b)
			if err != nil {
				return uuid.Nil, err
			}
			if winner != a.TeamID && winner != b.TeamID {
				return uuid.Nil, fmt.Errorf("oracle picked a team outside the matchup")
			}
			return winner, nil
		}, nil
	}

	return nil, fmt.Errorf("unknown strategy %q", strategy)
}
