package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bracketiq/bracketiq/internal/bracket"
	"github.com/bracketiq/bracketiq/internal/store"
	"github.com/bracketiq/bracketiq/internal/utils"
)

// Round of 64 pairings in bracket order within a region.
var roundOf64Matchups = [8][2]int{
	{1, 16}, {8, 9}, {5, 12}, {4, 13}, {6, 11}, {3, 14}, {7, 10}, {2, 15},
}

// finalFourMatchups pairs regional champions.
var finalFourMatchups = [2][2]bracket.Region{
	{bracket.RegionSouth, bracket.RegionEast},
	{bracket.RegionWest, bracket.RegionMidwest},
}

type TournamentService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	teams       *store.TeamStore
}

func NewTournamentService(db *sqlx.DB, tournaments *store.TournamentStore, teams *store.TeamStore) *TournamentService {
	return &TournamentService{db: db, tournaments: tournaments, teams: teams}
}

// FirstFourPairing is one play-in game: two teams competing for a single
// seed line of a region's main bracket.
type FirstFourPairing struct {
	Team1  string         `json:"team1"`
	Team2  string         `json:"team2"`
	Region bracket.Region `json:"region"`
	Seed   int            `json:"seed"`
}

// Seeding assigns team names to every seed line. Seed lines decided by a
// First Four game carry no entry in Regions; the pairing covers them.
type Seeding struct {
	FirstFour []FirstFourPairing              `json:"first_four"`
	Regions   map[bracket.Region]map[int]string `json:"regions"`
}

type TournamentData struct {
	Tournament *bracket.Tournament
	Games      []bracket.Game
}

func (s *TournamentService) GetTournamentData(ctx context.Context, id string) (*TournamentData, error) {
	tournament, err := s.tournaments.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	games, err := s.tournaments.GetGames(ctx, id)
	if err != nil {
		return nil, err
	}

	return &TournamentData{Tournament: tournament, Games: games}, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	return s.tournaments.ListTournaments(ctx)
}

// CreateTournament creates the tournament and builds its full game tree
// from the seeding in one transaction. A seed name that cannot be
// resolved to a team aborts the whole build.
func (s *TournamentService) CreateTournament(ctx context.Context, year int, name string, startDate, endDate time.Time, seeding Seeding) (uuid.UUID, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	tournament := bracket.Tournament{
		ID:        uuid.New(),
		Year:      year,
		Name:      name,
		StartDate: startDate,
		EndDate:   endDate,
	}

	if err := s.tournaments.CreateTournament(ctx, tx, &tournament); err != nil {
		return uuid.Nil, err
	}

	if _, err := s.createTournamentGames(ctx, tx, &tournament, seeding); err != nil {
		return uuid.Nil, err
	}

	return tournament.ID, tx.Commit()
}

func (s *TournamentService) createTournamentGames(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament, seeding Seeding) ([]bracket.Game, error) {
	if err := validateSeeding(seeding); err != nil {
		return nil, err
	}

	// Sized up front: later rounds hold pointers into this slice while
	// wiring next_game links, so it must never reallocate.
	games := make([]bracket.Game, 0, len(seeding.FirstFour)+63)
	gameNumber := 1

	// Seed lines fed by a First Four game, keyed by (region, seed).
	type seedLine struct {
		region bracket.Region
		seed   int
	}
	firstFourByLine := make(map[seedLine]*bracket.Game)

	gameDate := tournament.StartDate

	// First Four games come first; each one is tied to the region and
	// seed line its winner will occupy.
	for _, pairing := range seeding.FirstFour {
		team1, err := s.resolveTeam(ctx, tx, pairing.Team1)
		if err != nil {
			return nil, err
		}
		team2, err := s.resolveTeam(ctx, tx, pairing.Team2)
		if err != nil {
			return nil, err
		}

		games = append(games, bracket.Game{
			ID:           uuid.New(),
			TournamentID: tournament.ID,
			Round:        bracket.FirstFour,
			Region:       pairing.Region,
			GameNumber:   gameNumber,
			Seed1:        utils.Ptr(pairing.Seed),
			Team1ID:      &team1.ID,
			Seed2:        utils.Ptr(pairing.Seed),
			Team2ID:      &team2.ID,
			GameDate:     utils.Ptr(gameDate),
		})
		firstFourByLine[seedLine{pairing.Region, pairing.Seed}] = &games[len(games)-1]
		gameNumber++
		gameDate = gameDate.Add(2 * time.Hour)
	}

	// Round of 64, region by region. A slot decided by a play-in game
	// stays empty and the play-in game is back-linked to fill it later.
	gameDate = tournament.StartDate.AddDate(0, 0, 2)
	gamesByRegion := make(map[bracket.Region][]*bracket.Game)

	for _, region := range bracket.BracketRegions {
		seeds := seeding.Regions[region]

		for _, matchup := range roundOf64Matchups {
			game := bracket.Game{
				ID:           uuid.New(),
				TournamentID: tournament.ID,
				Round:        bracket.RoundOf64,
				Region:       region,
				GameNumber:   gameNumber,
				Seed1:        utils.Ptr(matchup[0]),
				Seed2:        utils.Ptr(matchup[1]),
				GameDate:     utils.Ptr(gameDate),
			}

			for slot, seed := range matchup {
				if ff := firstFourByLine[seedLine{region, seed}]; ff != nil {
					ff.NextGameID = &game.ID
					continue
				}
				name, ok := seeds[seed]
				if !ok {
					return nil, &bracket.DataIntegrityError{
						Reason: fmt.Sprintf("no team assigned to %s seed %d", region, seed),
					}
				}
				team, err := s.resolveTeam(ctx, tx, name)
				if err != nil {
					return nil, err
				}
				if slot == 0 {
					game.Team1ID = &team.ID
				} else {
					game.Team2ID = &team.ID
				}
			}

			games = append(games, game)
			gamesByRegion[region] = append(gamesByRegion[region], &games[len(games)-1])
			gameNumber++
			gameDate = gameDate.Add(time.Hour)
		}
	}

	// Regional rounds halve each time, pairing adjacent games.
	for round := bracket.RoundOf32; round <= bracket.Elite8; round++ {
		gameDate = gameDate.AddDate(0, 0, 2)
		for _, region := range bracket.BracketRegions {
			feeders := gamesByRegion[region]
			if len(feeders)%2 != 0 {
				return nil, &bracket.DataIntegrityError{
					Reason: fmt.Sprintf("%s has %d games entering %s", region, len(feeders), round.Label()),
				}
			}

			next := make([]*bracket.Game, 0, len(feeders)/2)
			for i := 0; i < len(feeders); i += 2 {
				game := bracket.Game{
					ID:           uuid.New(),
					TournamentID: tournament.ID,
					Round:        round,
					Region:       region,
					GameNumber:   gameNumber,
					GameDate:     utils.Ptr(gameDate),
				}
				games = append(games, game)
				created := &games[len(games)-1]

				feeders[i].NextGameID = &created.ID
				feeders[i+1].NextGameID = &created.ID
				next = append(next, created)
				gameNumber++
				gameDate = gameDate.Add(time.Hour)
			}
			gamesByRegion[region] = next
		}
	}

	// Final Four crosses regions, then the championship.
	gameDate = gameDate.AddDate(0, 0, 2)
	var finalFourGames []*bracket.Game
	for _, pair := range finalFourMatchups {
		game := bracket.Game{
			ID:           uuid.New(),
			TournamentID: tournament.ID,
			Round:        bracket.FinalFour,
			Region:       bracket.RegionFirstFour,
			GameNumber:   gameNumber,
			GameDate:     utils.Ptr(gameDate),
		}
		games = append(games, game)
		created := &games[len(games)-1]

		for _, region := range pair {
			regional := gamesByRegion[region]
			if len(regional) != 1 {
				return nil, &bracket.DataIntegrityError{
					Reason: fmt.Sprintf("%s produced %d regional finals", region, len(regional)),
				}
			}
			regional[0].NextGameID = &created.ID
		}
		finalFourGames = append(finalFourGames, created)
		gameNumber++
		gameDate = gameDate.Add(time.Hour)
	}

	championship := bracket.Game{
		ID:           uuid.New(),
		TournamentID: tournament.ID,
		Round:        bracket.Championship,
		Region:       bracket.RegionFirstFour,
		GameNumber:   gameNumber,
		GameDate:     utils.Ptr(tournament.EndDate),
	}
	games = append(games, championship)
	for _, ff := range finalFourGames {
		ff.NextGameID = &games[len(games)-1].ID
	}

	// Insert later rounds first so next_game_id always references an
	// existing row.
	reversed := make([]bracket.Game, len(games))
	for i, g := range games {
		reversed[len(games)-1-i] = g
	}
	if err := s.tournaments.CreateGames(ctx, tx, reversed); err != nil {
		return nil, err
	}

	return games, nil
}

func (s *TournamentService) resolveTeam(ctx context.Context, tx *sqlx.Tx, name string) (*bracket.Team, error) {
	team, err := s.teams.GetTeamByNameTx(ctx, tx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &bracket.DataIntegrityError{Reason: "no team named " + name}
	}
	if err != nil {
		return nil, err
	}
	return team, nil
}

func validateSeeding(seeding Seeding) error {
	firstFourLines := make(map[bracket.Region]map[int]bool)
	for _, pairing := range seeding.FirstFour {
		if firstFourLines[pairing.Region] == nil {
			firstFourLines[pairing.Region] = make(map[int]bool)
		}
		if firstFourLines[pairing.Region][pairing.Seed] {
			return &bracket.DataIntegrityError{
				Reason: fmt.Sprintf("duplicate First Four pairing for %s seed %d", pairing.Region, pairing.Seed),
			}
		}
		firstFourLines[pairing.Region][pairing.Seed] = true
	}

	for _, region := range bracket.BracketRegions {
		seeds, ok := seeding.Regions[region]
		if !ok {
			return &bracket.DataIntegrityError{Reason: string(region) + " region is not seeded"}
		}
		for seed := 1; seed <= 16; seed++ {
			if _, named := seeds[seed]; !named && !firstFourLines[region][seed] {
				return &bracket.DataIntegrityError{
					Reason: fmt.Sprintf("%s seed %d is neither named nor decided by a First Four game", region, seed),
				}
			}
		}
	}
	return nil
}
