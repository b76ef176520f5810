package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/playsquare/gamesession-backend/internal/entity"
)

type gameService interface {
	CreateSession(ctx context.Context) (*entity.Game, error)
	GetSession(ctx context.Context, id string) (*entity.Game, error)
	ListSessions(ctx context.Context) ([]*entity.Game, error)
}

type Server struct {
	logger *slog.Logger
	games  gameService
}

func New(logger *slog.Logger, games gameService) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		games:  games,
	}
}

// Handler - builds the route table.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.handlePing)
	mux.HandleFunc("POST /api/games", that.handleCreateGame)
	mux.HandleFunc("GET /api/games", that.handleListGames)
	mux.HandleFunc("GET /api/games/{id}", that.handleGetGame)

	return mux
}

// Start - starts the REST server.
func (that *Server) Start(port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
