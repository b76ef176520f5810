package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/playsquare/gamesession-backend/internal/apperror"
)

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleCreateGame")

	game, err := that.games.CreateSession(r.Context())
	if err != nil {
		log.Error("failed to create session", "error", err)
		http.Error(w, "failed to create game", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleGetGame")

	game, err := that.games.GetSession(r.Context(), r.PathValue("id"))
	if errors.Is(err, apperror.ErrSessionNotFound) {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get session", "error", err)
		http.Error(w, "failed to get game", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleListGames")

	games, err := that.games.ListSessions(r.Context())
	if err != nil {
		log.Error("failed to list sessions", "error", err)
		http.Error(w, "failed to list games", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, http.StatusOK, games)
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}
