package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/playsquare/gamesession-backend/internal/apperror"
)

func (that *Server) handleNewGame(ctx context.Context, conn *Conn, msg *Message) error {
	log := that.logger.With("method", "handleNewGame", "connID", conn.ID())

	game, err := that.games.CreateSession(ctx)
	if err != nil {
		log.Error("failed to create session", "error", err)
		that.sendError(conn, msg.Action, "failed to create a new game")
		return nil
	}

	return that.sendResponse(conn, msg.Action, ResponsePayload{Game: game})
}

func (that *Server) handleJoinGame(ctx context.Context, conn *Conn, msg *Message) error {
	log := that.logger.With("method", "handleJoinGame", "connID", conn.ID())

	var payload JoinPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		that.sendError(conn, msg.Action, "invalid payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.SessionID == "" {
		that.sendError(conn, msg.Action, "session_id is required")
		return nil
	}

	role, game, err := that.games.JoinSession(ctx, conn, payload.SessionID)

	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		that.sendError(conn, msg.Action, "Game not found")
		return nil
	case errors.Is(err, apperror.ErrRoomFull):
		that.sendError(conn, msg.Action, "Game is already full")
		return nil
	case err != nil:
		log.Error("failed to join session", "sessionID", payload.SessionID, "error", err)
		that.sendError(conn, msg.Action, "failed to join game")
		return nil
	}

	return that.sendResponse(conn, msg.Action, ResponsePayload{Role: string(role), Game: game})
}

func (that *Server) handleGameTurn(ctx context.Context, conn *Conn, msg *Message) error {
	var payload MovePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		that.sendError(conn, msg.Action, "invalid payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.SessionID == "" || payload.Cell == nil {
		that.sendError(conn, msg.Action, "session_id and cell are required")
		return nil
	}

	// On success the room broadcast already reaches this connection; only
	// rejections produce a direct response.
	if _, err := that.games.SubmitMove(ctx, conn, payload.SessionID, *payload.Cell); err != nil {
		that.sendError(conn, msg.Action, moveErrorMessage(err))
	}

	return nil
}

// moveErrorMessage maps a move rejection to its client-facing text.
func moveErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		return "Game not found"
	case errors.Is(err, apperror.ErrGameFinished):
		return "Game has already ended"
	case errors.Is(err, apperror.ErrCellOccupied):
		return "Cell is already occupied"
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, apperror.ErrInvalidCell):
		return "Invalid cell index"
	case errors.Is(err, apperror.ErrObserverMove):
		return "Observers cannot make moves"
	default:
		return "failed to make move"
	}
}

func (that *Server) handleGameState(ctx context.Context, conn *Conn, msg *Message) error {
	var payload StatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		that.sendError(conn, msg.Action, "invalid payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	game, err := that.games.GetSession(ctx, payload.SessionID)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		that.sendError(conn, msg.Action, "Game not found")
		return nil
	}

	if err != nil {
		that.sendError(conn, msg.Action, "failed to get game")
		return nil
	}

	return that.sendResponse(conn, msg.Action, ResponsePayload{Game: game})
}

func (that *Server) handleGameList(ctx context.Context, conn *Conn, msg *Message) error {
	games, err := that.games.ListSessions(ctx)
	if err != nil {
		that.sendError(conn, msg.Action, "failed to list games")
		return nil
	}

	return that.sendResponse(conn, msg.Action, ResponsePayload{Games: games})
}
