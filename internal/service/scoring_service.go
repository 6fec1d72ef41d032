package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bracketiq/bracketiq/internal/bracket"
	"github.com/bracketiq/bracketiq/internal/store"
)

type ScoringService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	brackets    *store.BracketStore
}

func NewScoringService(db *sqlx.DB, tournaments *store.TournamentStore, brackets *store.BracketStore) *ScoringService {
	return &ScoringService{db: db, tournaments: tournaments, brackets: brackets}
}

// PointsForRound is the scoring table: 0 for the First Four, then
// 1, 2, 4, 8, 16, 32.
func PointsForRound(r bracket.Round) int {
	return r.Points()
}

// PredictionPoints is the realized value of one prediction: zero until
// the game has an actual winner, zero when the pick missed, the round's
// value otherwise.
func PredictionPoints(p *bracket.Prediction, game *bracket.Game) int {
	if game == nil || game.WinnerID == nil {
		return 0
	}
	if *game.WinnerID != p.PredictedWinnerID {
		return 0
	}
	return game.Round.Points()
}

type BracketScore struct {
	Bracket          *bracket.Bracket `json:"bracket"`
	Score            int              `json:"score"`
	MaxPossibleScore int              `json:"max_possible_score"`
}

// BracketScore sums realized points over the bracket's predictions. A
// bracket correct from the Round of 64 through the championship scores
// 63; First Four picks never contribute.
func (s *ScoringService) BracketScore(ctx context.Context, bracketID string) (int, error) {
	score, _, err := s.scoreBracket(ctx, bracketID)
	return score, err
}

// BracketMaxPossibleScore adds, on top of the realized score, the value
// of every pick whose game is still undecided. It can only shrink as
// results come in, and converges on BracketScore once every game has a
// winner.
func (s *ScoringService) BracketMaxPossibleScore(ctx context.Context, bracketID string) (int, error) {
	_, maxPossible, err := s.scoreBracket(ctx, bracketID)
	return maxPossible, err
}

func (s *ScoringService) scoreBracket(ctx context.Context, bracketID string) (int, int, error) {
	b, err := s.brackets.GetBracket(ctx, bracketID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get bracket: %w", err)
	}

	games, err := s.tournaments.GetGames(ctx, b.TournamentID.String())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get games: %w", err)
	}
	gamesByID := make(map[uuid.UUID]*bracket.Game, len(games))
	for i := range games {
		gamesByID[games[i].ID] = &games[i]
	}

	predictions, err := s.brackets.GetPredictions(ctx, bracketID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get predictions: %w", err)
	}

	score := 0
	remaining := 0
	for i := range predictions {
		p := &predictions[i]
		game := gamesByID[p.GameID]
		if game == nil {
			continue
		}
		if game.WinnerID == nil {
			remaining += game.Round.Points()
			continue
		}
		score += PredictionPoints(p, game)
	}

	return score, score + remaining, nil
}

// TournamentLeaderboard scores every bracket of a tournament, best
// realized score first.
func (s *ScoringService) TournamentLeaderboard(ctx context.Context, tournamentID string) ([]BracketScore, error) {
	brackets, err := s.brackets.GetBracketsByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get brackets: %w", err)
	}

	leaderboard := make([]BracketScore, 0, len(brackets))
	for i := range brackets {
		score, maxPossible, err := s.scoreBracket(ctx, brackets[i].ID.String())
		if err != nil {
			return nil, err
		}
		leaderboard = append(leaderboard, BracketScore{
			Bracket:          &brackets[i],
			Score:            score,
			MaxPossibleScore: maxPossible,
		})
	}

	sort.SliceStable(leaderboard, func(i, j int) bool {
		return leaderboard[i].Score > leaderboard[j].Score
	})
	return leaderboard, nil
}
