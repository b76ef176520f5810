package websocket

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/playsquare/gamesession-backend/internal/apperror"
)

func TestMoveErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: %w", apperror.ErrIllegalMove, apperror.ErrNotYourTurn), "Not your turn"},
		{fmt.Errorf("%w: %w", apperror.ErrIllegalMove, apperror.ErrCellOccupied), "Cell is already occupied"},
		{fmt.Errorf("%w: %w", apperror.ErrIllegalMove, apperror.ErrGameFinished), "Game has already ended"},
		{fmt.Errorf("%w: %w", apperror.ErrIllegalMove, apperror.ErrInvalidCell), "Invalid cell index"},
		{fmt.Errorf("%w: %w", apperror.ErrIllegalMove, apperror.ErrObserverMove), "Observers cannot make moves"},
		{fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, "GameSession_404"), "Game not found"},
		{errors.New("some internal failure"), "failed to make move"},
	}

	for _, tt := range tests {
		got := moveErrorMessage(tt.err)

		// The wrap chain stays server-side; clients only see the text.
		assert.Equal(t, tt.want, got)
	}
}
