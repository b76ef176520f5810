package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/playsquare/gamesession-backend/internal/apperror"
	"github.com/playsquare/gamesession-backend/internal/entity"
)

const (
	sessionKeyPrefix  = "session:"
	sessionCounterKey = "session:next-id"
	sessionIndexKey   = "session:index"
)

// dbSessions stores games as JSON documents in Redis. Mutation still has to
// be serialized in-process: Redis gives atomic reads and writes but not an
// atomic read-modify-write of a document, so each id gets its own lock.
type dbSessions struct {
	client *redis.Client

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRedisSessionRepository(client *redis.Client) SessionRepository {
	return &dbSessions{
		client: client,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (that *dbSessions) Create(ctx context.Context) (*entity.Game, error) {
	seq, err := that.client.Incr(ctx, sessionCounterKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate session id: %w", err)
	}

	game := entity.NewGame(fmt.Sprintf("GameSession_%d", seq))

	if err = that.save(ctx, game); err != nil {
		return nil, err
	}

	if err = that.client.RPush(ctx, sessionIndexKey, game.ID).Err(); err != nil {
		return nil, fmt.Errorf("failed to index session: %w", err)
	}

	return game, nil
}

func (that *dbSessions) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, sessionKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var game entity.Game
	if err = json.Unmarshal([]byte(response), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &game, nil
}

func (that *dbSessions) List(ctx context.Context) ([]*entity.Game, error) {
	ids, err := that.client.LRange(ctx, sessionIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	games := make([]*entity.Game, 0, len(ids))
	for _, id := range ids {
		game, err := that.GetByID(ctx, id)
		if errors.Is(err, apperror.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		games = append(games, game)
	}

	return games, nil
}

func (that *dbSessions) Mutate(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error) {
	lock := that.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	game, err := that.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = fn(game); err != nil {
		return nil, err
	}

	if err = that.save(ctx, game); err != nil {
		return nil, err
	}

	return game, nil
}

func (that *dbSessions) save(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	if err = that.client.Set(ctx, sessionKeyPrefix+game.ID, gameJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

func (that *dbSessions) sessionLock(id string) *sync.Mutex {
	that.mu.Lock()
	defer that.mu.Unlock()

	lock, ok := that.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		that.locks[id] = lock
	}

	return lock
}
