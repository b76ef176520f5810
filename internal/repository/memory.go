package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/playsquare/gamesession-backend/internal/apperror"
	"github.com/playsquare/gamesession-backend/internal/entity"
)

// memorySessions is the default, process-lifetime session store. The outer
// lock guards the map and creation order; each entry carries its own mutex so
// mutations on different sessions never contend.
type memorySessions struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	order    []string
	nextID   int64
}

type sessionEntry struct {
	mu   sync.Mutex
	game *entity.Game
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySessions{
		sessions: make(map[string]*sessionEntry),
	}
}

func (that *memorySessions) Create(_ context.Context) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.nextID++
	id := fmt.Sprintf("GameSession_%d", that.nextID)

	game := entity.NewGame(id)
	that.sessions[id] = &sessionEntry{game: game}
	that.order = append(that.order, id)

	return game.Snapshot(), nil
}

func (that *memorySessions) GetByID(_ context.Context, id string) (*entity.Game, error) {
	entry, err := that.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	return entry.game.Snapshot(), nil
}

func (that *memorySessions) List(_ context.Context) ([]*entity.Game, error) {
	that.mu.RLock()
	entries := make([]*sessionEntry, 0, len(that.order))
	for _, id := range that.order {
		entries = append(entries, that.sessions[id])
	}
	that.mu.RUnlock()

	games := make([]*entity.Game, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		games = append(games, entry.game.Snapshot())
		entry.mu.Unlock()
	}

	return games, nil
}

func (that *memorySessions) Mutate(_ context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error) {
	entry, err := that.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err = fn(entry.game); err != nil {
		return nil, err
	}

	return entry.game.Snapshot(), nil
}

func (that *memorySessions) entry(id string) (*sessionEntry, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	entry, ok := that.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	return entry, nil
}
