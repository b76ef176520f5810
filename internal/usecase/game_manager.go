package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/playsquare/gamesession-backend/internal/apperror"
	"github.com/playsquare/gamesession-backend/internal/entity"
	"github.com/playsquare/gamesession-backend/internal/room"
)

const (
	ActionGameUpdate = "game:update"
	ActionGameJoined = "game:joined"
)

type sessionRepo interface {
	Create(ctx context.Context) (*entity.Game, error)
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	List(ctx context.Context) ([]*entity.Game, error)
	Mutate(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error)
}

// GamePayload is the full-state broadcast sent after every accepted move.
type GamePayload struct {
	Game *entity.Game `json:"game"`
}

// JoinNotice is broadcast to a room when a new participant arrives.
type JoinNotice struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Message   string `json:"message"`
}

// GameManager is the protocol layer between connections and game state: it
// resolves roles, applies moves through the session repository and fans the
// resulting state out to the room.
type GameManager struct {
	logger   *slog.Logger
	sessions sessionRepo
	rooms    *room.Manager
}

func NewGameManager(logger *slog.Logger, sessions sessionRepo, rooms *room.Manager) *GameManager {
	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		sessions: sessions,
		rooms:    rooms,
	}
}

func (that *GameManager) CreateSession(ctx context.Context) (*entity.Game, error) {
	game, err := that.sessions.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	that.logger.Info("session created", "sessionID", game.ID)

	return game, nil
}

func (that *GameManager) GetSession(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return game, nil
}

func (that *GameManager) ListSessions(ctx context.Context) ([]*entity.Game, error) {
	games, err := that.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return games, nil
}

// JoinSession subscribes conn to a session's room. It returns the assigned
// role and the current game state, and notifies the rest of the room. The
// session must exist; joining never creates one.
func (that *GameManager) JoinSession(ctx context.Context, conn room.Connection, sessionID string) (room.Role, *entity.Game, error) {
	if _, err := that.sessions.GetByID(ctx, sessionID); err != nil {
		return "", nil, fmt.Errorf("failed to get session: %w", err)
	}

	role, err := that.rooms.Join(sessionID, conn)
	if err != nil {
		return "", nil, fmt.Errorf("failed to join: %w", err)
	}

	// Snapshot only after membership. A move accepted while the join is
	// in flight then reaches the joiner either in this snapshot or as a
	// broadcast; a duplicate full state is harmless, a missed one is not.
	game, err := that.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get session: %w", err)
	}

	that.rooms.BroadcastExcept(sessionID, conn, room.Event{
		Action: ActionGameJoined,
		Payload: JoinNotice{
			SessionID: sessionID,
			Role:      string(role),
			Message:   fmt.Sprintf("Player %s has joined %s", role, sessionID),
		},
	})

	that.logger.Info("connection joined session", "sessionID", sessionID, "connID", conn.ID(), "role", role)

	return role, game, nil
}

// SubmitMove applies one move on behalf of conn. Any rule violation, unknown
// session or missing move right is reported to the caller as ErrIllegalMove
// wrapping the reason; nothing is broadcast in that case. On success every
// room member receives the full updated state.
func (that *GameManager) SubmitMove(ctx context.Context, conn room.Connection, sessionID string, cell int) (*entity.Game, error) {
	role, ok := that.rooms.Role(sessionID, conn)
	if !ok {
		return nil, fmt.Errorf("%w: connection %s has not joined session %s", apperror.ErrIllegalMove, conn.ID(), sessionID)
	}

	if !role.CanMove() {
		return nil, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, apperror.ErrObserverMove)
	}

	game, err := that.sessions.Mutate(ctx, sessionID, func(game *entity.Game) error {
		return game.ApplyMove(role.Mark(), cell)
	})

	if errors.Is(err, apperror.ErrInvalidMove) || errors.Is(err, apperror.ErrSessionNotFound) {
		return nil, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to make move: %w", err)
	}

	// Delivery happens outside any lock; a slow or dead member never
	// holds up the others or the mutation itself.
	that.rooms.Broadcast(sessionID, room.Event{
		Action:  ActionGameUpdate,
		Payload: GamePayload{Game: game},
	})

	log := that.logger.With("sessionID", sessionID, "connID", conn.ID())
	if game.IsFinished() {
		log.Info("game finished", "winner", game.Winner)
	} else {
		log.Info("move accepted", "cell", cell, "role", role)
	}

	return game, nil
}

// Disconnect drops conn from every room it joined.
func (that *GameManager) Disconnect(conn room.Connection) {
	left := that.rooms.LeaveAll(conn)
	if len(left) > 0 {
		that.logger.Info("connection left sessions", "connID", conn.ID(), "sessions", left)
	}
}
