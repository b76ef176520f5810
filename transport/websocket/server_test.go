package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playsquare/gamesession-backend/internal/entity"
	"github.com/playsquare/gamesession-backend/internal/repository"
	"github.com/playsquare/gamesession-backend/internal/room"
	"github.com/playsquare/gamesession-backend/internal/usecase"
)

const readWait = 5 * time.Second

// wireEvent mirrors the outbound envelope as seen by a client.
type wireEvent struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type wirePayload struct {
	Role    string         `json:"role"`
	Game    *entity.Game   `json:"game"`
	Games   []*entity.Game `json:"games"`
	Error   string         `json:"error"`
	Message string         `json:"message"`
}

type client struct {
	t    *testing.T
	conn *websocket.Conn
}

func newTestServer(t *testing.T, enforceCapacity bool) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := usecase.NewGameManager(logger, repository.NewMemorySessionRepository(), room.NewManager(enforceCapacity))

	ts := httptest.NewServer(New(logger, manager).Handler(context.Background()))
	t.Cleanup(ts.Close)

	return ts
}

func dial(t *testing.T, ts *httptest.Server) *client {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &client{t: t, conn: conn}
}

func (that *client) send(action string, payload any) {
	that.t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(that.t, err)

	require.NoError(that.t, that.conn.WriteJSON(Message{Action: action, Payload: raw}))
}

func (that *client) read() (string, wirePayload) {
	that.t.Helper()

	require.NoError(that.t, that.conn.SetReadDeadline(time.Now().Add(readWait)))

	var event wireEvent
	require.NoError(that.t, that.conn.ReadJSON(&event))

	var payload wirePayload
	require.NoError(that.t, json.Unmarshal(event.Payload, &payload))

	return event.Action, payload
}

func (that *client) createGame() *entity.Game {
	that.t.Helper()

	that.send("game:new", struct{}{})

	action, payload := that.read()
	require.Equal(that.t, "game:new", action)
	require.Empty(that.t, payload.Error)
	require.NotNil(that.t, payload.Game)

	return payload.Game
}

func (that *client) join(sessionID string) (string, wirePayload) {
	that.t.Helper()

	that.send("game:join", JoinPayload{SessionID: sessionID})

	return that.read()
}

func (that *client) move(sessionID string, cell int) {
	that.t.Helper()

	that.send("game:turn", MovePayload{SessionID: sessionID, Cell: &cell})
}

func TestServer_GameFlow(t *testing.T) {
	ts := newTestServer(t, false)

	clientA := dial(t, ts)
	clientB := dial(t, ts)

	// Given: A creates and joins a game
	game := clientA.createGame()

	_, joined := clientA.join(game.ID)
	require.Empty(t, joined.Error)
	assert.Equal(t, "X", joined.Role)
	assert.Equal(t, game.ID, joined.Game.ID)

	// When: B joins
	_, joined = clientB.join(game.ID)
	require.Empty(t, joined.Error)
	assert.Equal(t, "O", joined.Role)

	// Then: A is notified about B's arrival
	action, notice := clientA.read()
	assert.Equal(t, usecase.ActionGameJoined, action)
	assert.Contains(t, notice.Message, "Player O has joined")

	// When: A plays cell 0
	clientA.move(game.ID, 0)

	// Then: both clients receive the full updated state
	for _, c := range []*client{clientA, clientB} {
		action, update := c.read()
		require.Equal(t, usecase.ActionGameUpdate, action)
		require.NotNil(t, update.Game)
		assert.Equal(t, entity.PlayerX, update.Game.Board[0])
		assert.Equal(t, entity.PlayerO, update.Game.Turn)
		assert.Len(t, update.Game.Moves, 1)
	}
}

func TestServer_RejectedMoveGoesToSenderOnly(t *testing.T) {
	ts := newTestServer(t, false)

	clientA := dial(t, ts)
	clientB := dial(t, ts)

	game := clientA.createGame()

	_, joined := clientA.join(game.ID)
	require.Empty(t, joined.Error)
	_, joined = clientB.join(game.ID)
	require.Empty(t, joined.Error)
	clientA.read() // join notice for B

	// When: B moves out of turn
	clientB.move(game.ID, 0)

	// Then: B alone gets an error event with the plain client-facing text
	action, payload := clientB.read()
	assert.Equal(t, "game:turn", action)
	assert.Equal(t, "Not your turn", payload.Error)

	// And: A's next event is a real update, once X finally moves
	clientA.move(game.ID, 4)

	action, update := clientA.read()
	require.Equal(t, usecase.ActionGameUpdate, action)
	assert.Equal(t, entity.PlayerX, update.Game.Board[4])
}

func TestServer_JoinErrors(t *testing.T) {
	t.Run("Joining a nonexistent game", func(t *testing.T) {
		ts := newTestServer(t, false)
		c := dial(t, ts)

		_, payload := c.join("GameSession_404")

		assert.Equal(t, "Game not found", payload.Error)
	})

	t.Run("Joining a full game with capacity enforced", func(t *testing.T) {
		ts := newTestServer(t, true)

		clientA := dial(t, ts)
		game := clientA.createGame()

		_, joined := clientA.join(game.ID)
		require.Empty(t, joined.Error)

		clientB := dial(t, ts)
		_, joined = clientB.join(game.ID)
		require.Empty(t, joined.Error)

		clientC := dial(t, ts)
		_, payload := clientC.join(game.ID)
		assert.Equal(t, "Game is already full", payload.Error)
	})
}

func TestServer_StateAndList(t *testing.T) {
	ts := newTestServer(t, false)
	c := dial(t, ts)

	game := c.createGame()

	// When: requesting the state back
	c.send("game:state", StatePayload{SessionID: game.ID})
	action, payload := c.read()
	require.Equal(t, "game:state", action)
	require.Empty(t, payload.Error)
	assert.Equal(t, game.ID, payload.Game.ID)

	// When: listing sessions
	c.send("game:list", struct{}{})
	action, payload = c.read()
	require.Equal(t, "game:list", action)
	require.Len(t, payload.Games, 1)
	assert.Equal(t, game.ID, payload.Games[0].ID)
}

func TestServer_UnknownAction(t *testing.T) {
	ts := newTestServer(t, false)
	c := dial(t, ts)

	c.send("game:dance", struct{}{})

	_, payload := c.read()
	assert.NotEmpty(t, payload.Error)
}
