package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bracketiq/bracketiq/internal/bracket"
)

func TestPointsForRound(t *testing.T) {
	assert.Equal(t, 0, PointsForRound(bracket.FirstFour))
	assert.Equal(t, 1, PointsForRound(bracket.RoundOf64))
	assert.Equal(t, 32, PointsForRound(bracket.Championship))
}

func TestPredictionPoints(t *testing.T) {
	team1 := uuid.New()
	team2 := uuid.New()
	game := &bracket.Game{Round: bracket.Sweet16, Team1ID: &team1, Team2ID: &team2}
	p := &bracket.Prediction{PredictedWinnerID: team1}

	assert.Zero(t, PredictionPoints(p, nil))
	assert.Zero(t, PredictionPoints(p, game), "undecided game is worth nothing yet")

	game.WinnerID = &team2
	assert.Zero(t, PredictionPoints(p, game))

	game.WinnerID = &team1
	assert.Equal(t, 4, PredictionPoints(p, game))
}

func TestPerfectBracketScores63(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournamentID, games, teamA, _ := env.createChainTournament(t)

	userID := env.createUser(t, "prophet")
	bracketID, err := env.bracketSvc.CreateBracketForUser(ctx, tournamentID, userID, "Perfect Bracket")
	require.NoError(t, err)

	// Predict team1 everywhere, then let every game play out that way
	// in round order.
	for _, g := range games {
		require.NoError(t, env.bracketSvc.SavePrediction(ctx, bracketID, g.ID, teamA))
		require.NoError(t, env.gameSvc.RecordResult(ctx, g.ID, teamA, nil, nil))
	}

	score, err := env.scoringSvc.BracketScore(ctx, bracketID.String())
	require.NoError(t, err)
	assert.Equal(t, 63, score)

	maxPossible, err := env.scoringSvc.BracketMaxPossibleScore(ctx, bracketID.String())
	require.NoError(t, err)
	assert.Equal(t, score, maxPossible, "all games decided, nothing left to win")
}

func TestFirstFourNeverScoresPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournamentID, games, teamA, _ := env.createChainTournament(t)

	userID := env.createUser(t, "early_bird")
	bracketID, err := env.bracketSvc.CreateBracketForUser(ctx, tournamentID, userID, "Early Bracket")
	require.NoError(t, err)

	firstFour := games[0]
	require.Equal(t, bracket.FirstFour, firstFour.Round)

	require.NoError(t, env.bracketSvc.SavePrediction(ctx, bracketID, firstFour.ID, teamA))
	require.NoError(t, env.gameSvc.RecordResult(ctx, firstFour.ID, teamA, nil, nil))

	predictions, err := env.brackets.GetPredictions(ctx, bracketID.String())
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.True(t, predictions[0].IsCorrect)
	assert.Zero(t, predictions[0].PointsEarned)

	score, err := env.scoringSvc.BracketScore(ctx, bracketID.String())
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestMaxPossibleScoreOnlyShrinks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournamentID, games, teamA, teamB := env.createChainTournament(t)

	userID := env.createUser(t, "realist")
	bracketID, err := env.bracketSvc.CreateBracketForUser(ctx, tournamentID, userID, "Realist Bracket")
	require.NoError(t, err)

	for _, g := range games {
		require.NoError(t, env.bracketSvc.SavePrediction(ctx, bracketID, g.ID, teamA))
	}

	score, err := env.scoringSvc.BracketScore(ctx, bracketID.String())
	require.NoError(t, err)
	assert.Zero(t, score)
	maxPossible, err := env.scoringSvc.BracketMaxPossibleScore(ctx, bracketID.String())
	require.NoError(t, err)
	assert.Equal(t, 63, maxPossible)

	prev := maxPossible
	for i, g := range games {
		// The Round of 64 pick busts; everything else comes true.
		winner := teamA
		if g.Round == bracket.RoundOf64 {
			winner = teamB
		}
		require.NoError(t, env.gameSvc.RecordResult(ctx, g.ID, winner, nil, nil))

		maxPossible, err = env.scoringSvc.BracketMaxPossibleScore(ctx, bracketID.String())
		require.NoError(t, err)
		assert.LessOrEqual(t, maxPossible, prev, "after result %d", i+1)
		prev = maxPossible
	}

	score, err = env.scoringSvc.BracketScore(ctx, bracketID.String())
	require.NoError(t, err)
	assert.Equal(t, 62, score)
	assert.Equal(t, score, maxPossible)
}

func TestTournamentLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournamentID, games, teamA, teamB := env.createChainTournament(t)

	chalkID, err := env.bracketSvc.CreateBracketForUser(ctx, tournamentID, env.createUser(t, "chalk"), "Chalk Bracket")
	require.NoError(t, err)
	chaosID, err := env.bracketSvc.CreateBracketForUser(ctx, tournamentID, env.createUser(t, "chaos"), "Chaos Bracket")
	require.NoError(t, err)

	for _, g := range games {
		require.NoError(t, env.bracketSvc.SavePrediction(ctx, chalkID, g.ID, teamA))
		require.NoError(t, env.bracketSvc.SavePrediction(ctx, chaosID, g.ID, teamB))
	}

	var roundOf64 bracket.Game
	for _, g := range games {
		if g.Round == bracket.RoundOf64 {
			roundOf64 = g
		}
	}
	require.NoError(t, env.gameSvc.RecordResult(ctx, roundOf64.ID, teamA, nil, nil))

	leaderboard, err := env.scoringSvc.TournamentLeaderboard(ctx, tournamentID.String())
	require.NoError(t, err)
	require.Len(t, leaderboard, 2)

	assert.Equal(t, chalkID, leaderboard[0].Bracket.ID)
	assert.Equal(t, 1, leaderboard[0].Score)
	assert.Equal(t, 63, leaderboard[0].MaxPossibleScore)

	assert.Equal(t, chaosID, leaderboard[1].Bracket.ID)
	assert.Zero(t, leaderboard[1].Score)
	assert.Equal(t, 62, leaderboard[1].MaxPossibleScore)
}
