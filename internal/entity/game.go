package entity

import (
	"fmt"

	"github.com/playsquare/gamesession-backend/internal/apperror"
)

const (
	PlayerX = "X"
	PlayerO = "O"

	WinnerDraw = "Draw"

	EmptyCell = ""

	BoardSize = 9
)

// WinCombos are the 8 winning triples of a 3x3 board, checked in this
// fixed order: rows, columns, diagonals.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Move is one accepted move, recorded in application order.
type Move struct {
	Player string `json:"player"`
	Cell   int    `json:"index"`
}

// Game is the authoritative state of one session. It knows nothing about
// connections or locking; callers serialize access per session.
type Game struct {
	ID     string            `json:"id"`
	Board  [BoardSize]string `json:"board"`
	Turn   string            `json:"current_player"`
	Winner string            `json:"winner,omitempty"`
	Moves  []Move            `json:"moves"`
}

func NewGame(id string) *Game {
	return &Game{
		ID:    id,
		Turn:  PlayerX,
		Moves: []Move{},
	}
}

// ApplyMove validates and applies one move for player at cell. On success the
// cell is set, the move is appended to the log and the game result is
// re-evaluated; the turn flips only if the game is still open. Every
// rejection wraps apperror.ErrInvalidMove and leaves the game untouched.
func (that *Game) ApplyMove(player string, cell int) error {
	if that.IsFinished() {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidMove, apperror.ErrGameFinished)
	}

	if cell < 0 || cell >= BoardSize {
		return fmt.Errorf("%w: %w %d", apperror.ErrInvalidMove, apperror.ErrInvalidCell, cell)
	}

	if that.Board[cell] != EmptyCell {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidMove, apperror.ErrCellOccupied)
	}

	if that.Turn != player {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidMove, apperror.ErrNotYourTurn)
	}

	that.Board[cell] = player
	that.Moves = append(that.Moves, Move{Player: player, Cell: cell})

	that.updateGameState()

	return nil
}

// DetermineResult returns "X" or "O" if a triple is filled, WinnerDraw if the
// board is full with no triple, or EmptyCell while the game is still open.
// Win is checked before draw so a final winning move is never a draw.
func (that *Game) DetermineResult() string {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	for _, cell := range that.Board {
		if cell == EmptyCell {
			return EmptyCell
		}
	}

	return WinnerDraw
}

func (that *Game) updateGameState() {
	switch result := that.DetermineResult(); result {
	case PlayerX, PlayerO, WinnerDraw:
		that.Winner = result
		that.Turn = EmptyCell
	default:
		that.Turn = toggleMark(that.Turn)
	}
}

func (that *Game) IsFinished() bool {
	return that.Winner != EmptyCell
}

// Snapshot returns a deep copy safe to hand to other goroutines once the
// per-session lock is released.
func (that *Game) Snapshot() *Game {
	clone := *that
	clone.Moves = make([]Move, len(that.Moves))
	copy(clone.Moves, that.Moves)

	return &clone
}

func toggleMark(currentMark string) string {
	if currentMark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
