package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bracketiq/bracketiq/internal/bracket"
	"github.com/bracketiq/bracketiq/internal/httputil"
	"github.com/bracketiq/bracketiq/internal/middleware"
	"github.com/bracketiq/bracketiq/internal/service"
	"github.com/bracketiq/bracketiq/internal/store"
)

func newRouter(database *sqlx.DB, sessionManager *scs.SessionManager) http.Handler {
	teamStore := store.NewTeamStore(database)
	tournamentStore := store.NewTournamentStore(database)
	bracketStore := store.NewBracketStore(database)
	userStore := store.NewUserStore(database)

	tournamentService := service.NewTournamentService(database, tournamentStore, teamStore)
	gameService := service.NewGameService(database, tournamentStore, bracketStore)
	bracketService := service.NewBracketService(database, tournamentStore, bracketStore)
	scoringService := service.NewScoringService(database, tournamentStore, bracketStore)
	generationService := service.NewGenerationService(database, tournamentStore, bracketStore, userStore)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.WithSessionUser(sessionManager, userStore))

	r.Get("/teams", func(w http.ResponseWriter, r *http.Request) {
		teams, err := teamStore.ListTeams(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to list teams", err)
			return
		}
		writeJSON(w, http.StatusOK, teams)
	})

	r.Post("/teams", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name      string `json:"name"`
			ShortName string `json:"short_name"`
			Mascot    string `json:"mascot"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		if req.Name == "" {
			httputil.BadRequest(w, "Team name is required", nil)
			return
		}

		team := bracket.Team{ID: uuid.New(), Name: req.Name, ShortName: req.ShortName, Mascot: req.Mascot}
		if err := teamStore.CreateTeam(r.Context(), &team); err != nil {
			httputil.InternalServerError(w, "Failed to create team", err)
			return
		}
		writeJSON(w, http.StatusCreated, team)
	})

	// Bulk creation for loading a season's field in one call.
	r.Post("/teams/bulk", func(w http.ResponseWriter, r *http.Request) {
		var req []struct {
			Name      string `json:"name"`
			ShortName string `json:"short_name"`
			Mascot    string `json:"mascot"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}

		teams := make([]bracket.Team, 0, len(req))
		for _, t := range req {
			if t.Name == "" {
				httputil.BadRequest(w, "Team name is required", nil)
				return
			}
			teams = append(teams, bracket.Team{ID: uuid.New(), Name: t.Name, ShortName: t.ShortName, Mascot: t.Mascot})
		}

		tx, err := database.BeginTxx(r.Context(), nil)
		if err != nil {
			httputil.InternalServerError(w, "Failed to create teams", err)
			return
		}
		defer tx.Rollback()
		if err := teamStore.CreateTeams(r.Context(), tx, teams); err != nil {
			httputil.InternalServerError(w, "Failed to create teams", err)
			return
		}
		if err := tx.Commit(); err != nil {
			httputil.InternalServerError(w, "Failed to create teams", err)
			return
		}
		writeJSON(w, http.StatusCreated, teams)
	})

	r.Get("/teams/{id}", func(w http.ResponseWriter, r *http.Request) {
		team, err := teamStore.GetTeam(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, team)
	})

	r.Get("/me/brackets", func(w http.ResponseWriter, r *http.Request) {
		u := middleware.GetSessionUser(r.Context())
		if u == nil {
			httputil.InternalServerError(w, "No session user", nil)
			return
		}
		brackets, err := bracketStore.GetBracketsByUser(r.Context(), u.ID.String())
		if err != nil {
			httputil.InternalServerError(w, "Failed to list brackets", err)
			return
		}
		writeJSON(w, http.StatusOK, brackets)
	})

	r.Get("/tournaments", func(w http.ResponseWriter, r *http.Request) {
		tournaments, err := tournamentService.ListTournaments(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to list tournaments", err)
			return
		}
		writeJSON(w, http.StatusOK, tournaments)
	})

	r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Year      int             `json:"year"`
			Name      string          `json:"name"`
			StartDate time.Time       `json:"start_date"`
			EndDate   time.Time       `json:"end_date"`
			Seeding   service.Seeding `json:"seeding"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		if req.Name == "" {
			httputil.BadRequest(w, "Tournament name is required", nil)
			return
		}

		id, err := tournamentService.CreateTournament(r.Context(), req.Year, req.Name, req.StartDate, req.EndDate, req.Seeding)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
	})

	r.Get("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		data, err := tournamentService.GetTournamentData(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	})

	r.Get("/tournaments/{id}/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		leaderboard, err := scoringService.TournamentLeaderboard(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, leaderboard)
	})

	// Result entry: the score feed or an admin reports a finished game.
	r.Post("/games/{id}/result", func(w http.ResponseWriter, r *http.Request) {
		gameID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid game id", err)
			return
		}

		var req struct {
			WinnerID uuid.UUID `json:"winner_id"`
			Score1   *int      `json:"score1"`
			Score2   *int      `json:"score2"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}

		if err := gameService.RecordResult(r.Context(), gameID, req.WinnerID, req.Score1, req.Score2); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/brackets", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TournamentID uuid.UUID `json:"tournament_id"`
			Name         string    `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		if req.Name == "" {
			httputil.BadRequest(w, "Bracket name is required", nil)
			return
		}

		id, err := bracketService.CreateBracket(r.Context(), req.TournamentID, req.Name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
	})

	r.Get("/brackets/{id}", func(w http.ResponseWriter, r *http.Request) {
		data, err := bracketService.GetBracketData(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	})

	r.Post("/brackets/{id}/predictions", func(w http.ResponseWriter, r *http.Request) {
		bracketID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid bracket id", err)
			return
		}

		var req struct {
			GameID   uuid.UUID `json:"game_id"`
			WinnerID uuid.UUID `json:"winner_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}

		if err := bracketService.SavePrediction(r.Context(), bracketID, req.GameID, req.WinnerID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/brackets/{id}/generate", func(w http.ResponseWriter, r *http.Request) {
		bracketID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid bracket id", err)
			return
		}

		var req struct {
			Strategy string `json:"strategy"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		strategy, err := service.ParseStrategy(req.Strategy)
		if err != nil {
			httputil.BadRequest(w, "Invalid strategy", err)
			return
		}

		if err := generationService.GenerateBracket(r.Context(), bracketID, strategy); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/brackets/{id}/score", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		score, err := scoringService.BracketScore(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		maxPossible, err := scoringService.BracketMaxPossibleScore(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"score": score, "max_possible_score": maxPossible})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing left to do but log.
		slog.Error("failed to encode response", "error", err)
	}
}

// writeServiceError maps domain errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var invalidWinner *bracket.InvalidWinnerError
	var inconsistentScore *bracket.InconsistentScoreError
	var dataIntegrity *bracket.DataIntegrityError
	var exhausted *bracket.StrategyExhaustedError

	switch {
	case errors.As(err, &invalidWinner):
		httputil.BadRequest(w, invalidWinner.Error(), nil)
	case errors.As(err, &inconsistentScore):
		httputil.BadRequest(w, inconsistentScore.Error(), nil)
	case errors.As(err, &dataIntegrity):
		httputil.BadRequest(w, dataIntegrity.Error(), nil)
	case errors.As(err, &exhausted):
		httputil.Conflict(w, exhausted.Error(), nil)
	case errors.Is(err, sql.ErrNoRows):
		httputil.NotFound(w, "Not found", err)
	default:
		httputil.InternalServerError(w, "Request failed", err)
	}
}
