package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playsquare/gamesession-backend/internal/entity"
	"github.com/playsquare/gamesession-backend/internal/room"
)

type gameService interface {
	CreateSession(ctx context.Context) (*entity.Game, error)
	GetSession(ctx context.Context, id string) (*entity.Game, error)
	ListSessions(ctx context.Context) ([]*entity.Game, error)

	JoinSession(ctx context.Context, conn room.Connection, sessionID string) (room.Role, *entity.Game, error)
	SubmitMove(ctx context.Context, conn room.Connection, sessionID string, cell int) (*entity.Game, error)
	Disconnect(conn room.Connection)
}

type handlerFunc func(ctx context.Context, conn *Conn, msg *Message) error

type Server struct {
	logger *slog.Logger
	games  gameService

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, games gameService) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		games:  games,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from a separate origin; access
			// control is out of scope here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		handlers: make(map[string]handlerFunc),
	}

	server.handlers["game:new"] = server.handleNewGame
	server.handlers["game:join"] = server.handleJoinGame
	server.handlers["game:turn"] = server.handleGameTurn
	server.handlers["game:state"] = server.handleGameState
	server.handlers["game:list"] = server.handleGameList

	return server
}

// Handler - builds the route table.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	return mux
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(ctx),
		ReadTimeout:  0, // connections are long-lived
		WriteTimeout: 0,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	socket, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := newConn(that.logger, socket)
	log = log.With("connID", conn.ID())
	log.Info("connection established")

	defer func() {
		that.games.Disconnect(conn)
		conn.close()
		log.Info("connection closed")
	}()

	that.readLoop(ctx, conn)
}

// readLoop processes inbound messages until the client goes away. Handler
// failures are reported to this connection only and never end the loop.
func (that *Server) readLoop(ctx context.Context, conn *Conn) {
	log := that.logger.With("method", "readLoop", "connID", conn.ID())

	for {
		var msg Message
		if err := conn.socket.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("unexpected close", "error", err)
			}
			return
		}

		handler, ok := that.handlers[msg.Action]
		if !ok {
			that.sendError(conn, msg.Action, fmt.Sprintf("unknown action %q", msg.Action))
			continue
		}

		if err := handler(ctx, conn, &msg); err != nil {
			log.Error("error processing message", "action", msg.Action, "error", err)
		}
	}
}

func (that *Server) sendResponse(conn *Conn, action string, payload ResponsePayload) error {
	if err := conn.Send(room.Event{Action: action, Payload: payload}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}

func (that *Server) sendError(conn *Conn, action, errorMsg string) {
	if err := that.sendResponse(conn, action, ResponsePayload{Error: errorMsg}); err != nil {
		that.logger.Error("failed to send error response", "connID", conn.ID(), "error", err)
	}
}
