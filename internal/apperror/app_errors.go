package apperror

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRoomFull        = errors.New("room is already full")

	// ErrInvalidMove is the engine-level rejection; every concrete rule
	// violation wraps it so callers can still match the specific reason.
	ErrInvalidMove = errors.New("invalid move")

	// ErrIllegalMove is the protocol-level rejection, reported to the
	// submitting connection only.
	ErrIllegalMove = errors.New("illegal move")

	ErrGameFinished = errors.New("game is already finished")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrInvalidCell  = errors.New("invalid cell index")
	ErrObserverMove = errors.New("observers cannot make moves")
)
