package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bracketiq/bracketiq/internal/bracket"
)

func (e *testEnv) generationBracket(t *testing.T, tournamentID uuid.UUID, username string) uuid.UUID {
	t.Helper()
	userID := e.createUser(t, username)
	bracketID, err := e.bracketSvc.CreateBracketForUser(context.Background(), tournamentID, userID, username+" bracket")
	require.NoError(t, err)
	return bracketID
}

func (e *testEnv) overlayByGame(t *testing.T, bracketID uuid.UUID) (map[uuid.UUID]bracket.BracketGame, []bracket.Prediction) {
	t.Helper()
	data, err := e.bracketSvc.GetBracketData(context.Background(), bracketID.String())
	require.NoError(t, err)

	overlay := make(map[uuid.UUID]bracket.BracketGame, len(data.Overlay))
	for _, bg := range data.Overlay {
		overlay[bg.GameID] = bg
	}
	return overlay, data.Predictions
}

func TestGenerateBracketHigherSeed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournamentID := env.createFullTournament(t)
	bracketID := env.generationBracket(t, tournamentID, "chalk_bot")

	require.NoError(t, env.generationSvc.GenerateBracket(ctx, bracketID, StrategyHigherSeed))

	overlay, predictions := env.overlayByGame(t, bracketID)
	require.Len(t, predictions, 67)

	for _, p := range predictions {
		bg, ok := overlay[p.GameID]
		require.True(t, ok)
		require.NotNil(t, bg.Team1ID)
		require.NotNil(t, bg.Team2ID)
		require.NotNil(t, bg.Seed1)
		require.NotNil(t, bg.Seed2)

		expected := *bg.Team1ID
		if *bg.Seed2 < *bg.Seed1 {
			expected = *bg.Team2ID
		}
		assert.Equal(t, expected, p.PredictedWinnerID)
	}

	// Chalk all the way: a one seed wins it all.
	games := env.loadGames(t, tournamentID)
	for _, g := range games {
		if g.Round != bracket.Championship {
			continue
		}
		bg := overlay[g.ID]
		require.NotNil(t, bg.WinnerID)
		require.NotNil(t, bg.SeedOf(*bg.WinnerID))
		assert.Equal(t, 1, *bg.SeedOf(*bg.WinnerID))
	}
}

func TestGenerateBracketIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournamentID := env.createFullTournament(t)
	bracketID := env.generationBracket(t, tournamentID, "rerun_bot")

	require.NoError(t, env.generationSvc.GenerateBracket(ctx, bracketID, StrategyHigherSeed))
	_, first := env.overlayByGame(t, bracketID)

	require.NoError(t, env.generationSvc.GenerateBracket(ctx, bracketID, StrategyHigherSeed))
	_, second := env.overlayByGame(t, bracketID)

	require.Len(t, second, 67, "rerun must not duplicate predictions")

	winners := make(map[uuid.UUID]uuid.UUID, len(first))
	for _, p := range first {
		winners[p.GameID] = p.PredictedWinnerID
	}
	for _, p := range second {
		assert.Equal(t, winners[p.GameID], p.PredictedWinnerID)
	}
}

func TestGenerateBracketRandomPicksParticipants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournamentID := env.createFullTournament(t)
	bracketID := env.generationBracket(t, tournamentID, "dice_bot")

	require.NoError(t, env.generationSvc.GenerateBracket(ctx, bracketID, StrategyRandom))

	overlay, predictions := env.overlayByGame(t, bracketID)
	require.Len(t, predictions, 67)
	for _, p := range predictions {
		bg := overlay[p.GameID]
		assert.True(t, bg.HasParticipant(p.PredictedWinnerID))
	}
}

func TestGenerateBracketResumesPartialBracket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournamentID := env.createFullTournament(t)
	bracketID := env.generationBracket(t, tournamentID, "resume_bot")

	// A hand-made upset pick must survive the generation run.
	g1, _, _ := siblingPair(t, env.loadGames(t, tournamentID))
	underdog := *g1.Team2ID
	require.NoError(t, env.bracketSvc.SavePrediction(ctx, bracketID, g1.ID, underdog))

	require.NoError(t, env.generationSvc.GenerateBracket(ctx, bracketID, StrategyHigherSeed))

	_, predictions := env.overlayByGame(t, bracketID)
	require.Len(t, predictions, 67)
	for _, p := range predictions {
		if p.GameID == g1.ID {
			assert.Equal(t, underdog, p.PredictedWinnerID)
		}
	}
}

func TestGenerateBracketOracle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournamentID := env.createFullTournament(t)
	bracketID := env.generationBracket(t, tournamentID, "oracle_bot")

	// An oracle that always backs the second slot.
	env.generationSvc.Oracle = func(a, b Candidate) (uuid.UUID, float64, error) {
		return b.TeamID, 0.51, nil
	}

	require.NoError(t, env.generationSvc.GenerateBracket(ctx, bracketID, StrategyOracle))

	overlay, predictions := env.overlayByGame(t, bracketID)
	require.Len(t, predictions, 67)
	for _, p := range predictions {
		bg := overlay[p.GameID]
		require.NotNil(t, bg.Team2ID)
		assert.Equal(t, *bg.Team2ID, p.PredictedWinnerID)
	}
}

func TestGenerateBracketOracleFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournamentID := env.createFullTournament(t)
	bracketID := env.generationBracket(t, tournamentID, "flaky_bot")

	env.generationSvc.Oracle = func(a, b Candidate) (uuid.UUID, float64, error) {
		return uuid.Nil, 0, fmt.Errorf("model offline")
	}

	err := env.generationSvc.GenerateBracket(ctx, bracketID, StrategyOracle)
	var exhausted *bracket.StrategyExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, string(StrategyOracle), exhausted.Strategy)

	_, predictions := env.overlayByGame(t, bracketID)
	assert.Empty(t, predictions, "a failed run must not leave partial predictions")
}

func TestGenerateBracketWithoutOracle(t *testing.T) {
	env := newTestEnv(t)
	tournamentID := env.createFullTournament(t)
	bracketID := env.generationBracket(t, tournamentID, "hopeful_bot")

	err := env.generationSvc.GenerateBracket(context.Background(), bracketID, StrategyOracle)
	require.Error(t, err)
}

func TestGenerateBrackets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournamentID := env.createFullTournament(t)

	created, err := env.generationSvc.GenerateBrackets(ctx, tournamentID, StrategyHigherSeed, 2, "seedbot")
	require.NoError(t, err)
	require.Len(t, created, 2)

	names := make([]string, 0, len(created))
	for _, id := range created {
		b, err := env.brackets.GetBracket(ctx, id.String())
		require.NoError(t, err)
		names = append(names, b.Name)

		_, predictions := env.overlayByGame(t, id)
		assert.Len(t, predictions, 67)
	}
	assert.Equal(t, []string{"Higher Seed Bracket 1", "Higher Seed Bracket 2"}, names)

	// Numbering continues past what already exists.
	more, err := env.generationSvc.GenerateBrackets(ctx, tournamentID, StrategyHigherSeed, 1, "seedbot")
	require.NoError(t, err)
	require.Len(t, more, 1)

	b, err := env.brackets.GetBracket(ctx, more[0].String())
	require.NoError(t, err)
	assert.Equal(t, "Higher Seed Bracket 3", b.Name)
}

func TestGenerateBracketsRejectsBadCount(t *testing.T) {
	env := newTestEnv(t)
	tournamentID := env.createFullTournament(t)

	_, err := env.generationSvc.GenerateBrackets(context.Background(), tournamentID, StrategyHigherSeed, 0, "seedbot")
	require.Error(t, err)
}
