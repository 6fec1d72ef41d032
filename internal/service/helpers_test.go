package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/bracketiq/bracketiq/internal/bracket"
	"github.com/bracketiq/bracketiq/internal/db"
	"github.com/bracketiq/bracketiq/internal/store"
	users "github.com/bracketiq/bracketiq/internal/user"
	"github.com/bracketiq/bracketiq/internal/utils"
)

// setupTestDB opens a fresh in-memory database and applies the
// migrations. A single connection keeps the memory database alive for
// the whole test.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	require.NoError(t, db.RunMigrations(database.DB, "../../migrations"))

	t.Cleanup(func() { database.Close() })
	return database
}

type testEnv struct {
	db          *sqlx.DB
	teams       *store.TeamStore
	tournaments *store.TournamentStore
	brackets    *store.BracketStore
	users       *store.UserStore

	tournamentSvc *TournamentService
	gameSvc       *GameService
	bracketSvc    *BracketService
	scoringSvc    *ScoringService
	generationSvc *GenerationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := setupTestDB(t)
	teams := store.NewTeamStore(database)
	tournaments := store.NewTournamentStore(database)
	brackets := store.NewBracketStore(database)
	userStore := store.NewUserStore(database)

	return &testEnv{
		db:          database,
		teams:       teams,
		tournaments: tournaments,
		brackets:    brackets,
		users:       userStore,

		tournamentSvc: NewTournamentService(database, tournaments, teams),
		gameSvc:       NewGameService(database, tournaments, brackets),
		bracketSvc:    NewBracketService(database, tournaments, brackets),
		scoringSvc:    NewScoringService(database, tournaments, brackets),
		generationSvc: NewGenerationService(database, tournaments, brackets, userStore),
	}
}

func (e *testEnv) createTeam(t *testing.T, name string) uuid.UUID {
	t.Helper()
	team := bracket.Team{ID: uuid.New(), Name: name, ShortName: name}
	require.NoError(t, e.teams.CreateTeam(context.Background(), &team))
	return team.ID
}

func (e *testEnv) createUser(t *testing.T, username string) uuid.UUID {
	t.Helper()
	u := users.User{ID: uuid.New(), Username: username}
	require.NoError(t, e.users.CreateUser(context.Background(), &u))
	return u.ID
}

// fullFieldSeeding creates the 68 teams of a complete field: seeds 1-15
// named in every region, with every seed-16 line decided by a First Four
// game.
func (e *testEnv) fullFieldSeeding(t *testing.T) Seeding {
	t.Helper()

	seeding := Seeding{Regions: make(map[bracket.Region]map[int]string)}
	for _, region := range bracket.BracketRegions {
		seeds := make(map[int]string)
		for seed := 1; seed <= 15; seed++ {
			name := fmt.Sprintf("%s Seed %d", region, seed)
			e.createTeam(t, name)
			seeds[seed] = name
		}
		seeding.Regions[region] = seeds

		team1 := fmt.Sprintf("%s Play-In A", region)
		team2 := fmt.Sprintf("%s Play-In B", region)
		e.createTeam(t, team1)
		e.createTeam(t, team2)
		seeding.FirstFour = append(seeding.FirstFour, FirstFourPairing{
			Team1:  team1,
			Team2:  team2,
			Region: region,
			Seed:   16,
		})
	}
	return seeding
}

func (e *testEnv) createFullTournament(t *testing.T) uuid.UUID {
	t.Helper()

	seeding := e.fullFieldSeeding(t)
	start := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 20)

	id, err := e.tournamentSvc.CreateTournament(context.Background(), 2026, "National Championship", start, end, seeding)
	require.NoError(t, err)
	return id
}

// createChainTournament builds the minimal seven-game bracket: one game
// per round, all chained, with the same two teams seeded 1 and 2 in
// every game.
func (e *testEnv) createChainTournament(t *testing.T) (uuid.UUID, []bracket.Game, uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	teamA := e.createTeam(t, "Chain Favorites")
	teamB := e.createTeam(t, "Chain Underdogs")

	tournament := bracket.Tournament{
		ID:        uuid.New(),
		Year:      2026,
		Name:      "Chain Invitational",
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	}

	rounds := bracket.Rounds()
	games := make([]bracket.Game, 0, len(rounds))
	for i, round := range rounds {
		games = append(games, bracket.Game{
			ID:           uuid.New(),
			TournamentID: tournament.ID,
			Round:        round,
			Region:       bracket.RegionEast,
			GameNumber:   i + 1,
			Seed1:        utils.Ptr(1),
			Team1ID:      &teamA,
			Seed2:        utils.Ptr(2),
			Team2ID:      &teamB,
		})
	}
	for i := 0; i < len(games)-1; i++ {
		games[i].NextGameID = &games[i+1].ID
	}

	tx, err := e.db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, e.tournaments.CreateTournament(ctx, tx, &tournament))

	reversed := make([]bracket.Game, len(games))
	for i, g := range games {
		reversed[len(games)-1-i] = g
	}
	require.NoError(t, e.tournaments.CreateGames(ctx, tx, reversed))
	require.NoError(t, tx.Commit())

	return tournament.ID, games, teamA, teamB
}

func (e *testEnv) loadGames(t *testing.T, tournamentID uuid.UUID) []bracket.Game {
	t.Helper()
	games, err := e.tournaments.GetGames(context.Background(), tournamentID.String())
	require.NoError(t, err)
	return games
}

func (e *testEnv) loadGame(t *testing.T, gameID uuid.UUID) *bracket.Game {
	t.Helper()
	game, err := e.tournaments.GetGame(context.Background(), gameID.String())
	require.NoError(t, err)
	return game
}

func gamesByRound(games []bracket.Game) map[bracket.Round][]bracket.Game {
	byRound := make(map[bracket.Round][]bracket.Game)
	for _, g := range games {
		byRound[g.Round] = append(byRound[g.Round], g)
	}
	return byRound
}

// feedersOf maps each game ID to the games whose winners feed into it.
func feedersOf(games []bracket.Game) map[uuid.UUID][]bracket.Game {
	feeders := make(map[uuid.UUID][]bracket.Game)
	for _, g := range games {
		if g.NextGameID != nil {
			feeders[*g.NextGameID] = append(feeders[*g.NextGameID], g)
		}
	}
	return feeders
}

// siblingPair finds a successor game whose two feeders are both fully
// seeded, returning the feeders ordered by game number.
func siblingPair(t *testing.T, games []bracket.Game) (g1, g2, next *bracket.Game) {
	t.Helper()

	byID := make(map[uuid.UUID]*bracket.Game, len(games))
	for i := range games {
		byID[games[i].ID] = &games[i]
	}

	for nextID, feeders := range feedersOf(games) {
		if len(feeders) != 2 {
			continue
		}
		a, b := byID[feeders[0].ID], byID[feeders[1].ID]
		if a.Team1ID == nil || a.Team2ID == nil || b.Team1ID == nil || b.Team2ID == nil {
			continue
		}
		if a.GameNumber > b.GameNumber {
			a, b = b, a
		}
		return a, b, byID[nextID]
	}
	t.Fatal("no fully seeded sibling pair found")
	return nil, nil, nil
}
