package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/tablesync/internal/dependencies/clock"
	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/storage"
)

// errTxConflict is returned when an optimistic transaction keeps losing
var errTxConflict = errors.New("redis transaction retries exhausted")

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	clock  clock.Clock
}

// New creates a new Redis storage instance
func New(cfg Config, clk clock.Clock) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg, clk), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, clk clock.Clock) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = 1
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		clock:  clk,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ping checks the connection
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// watch runs fn as an optimistic transaction over keys, retrying when a
// watched key changes before EXEC
func (s *Storage) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < s.cfg.MaxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return errTxConflict
}

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, in model.NewPlayer) (*model.Player, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	id, err := s.client.Incr(ctx, playerSeqKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("allocate player id: %w", err)
	}

	player := in.Build(s.clock.Now())
	player.ID = model.PlayerID(id)

	data, err := json.Marshal(player)
	if err != nil {
		return nil, err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, playerKey(player.ID), data, 0)
		pipe.ZAdd(ctx, playersIndexKey(), redis.Z{Score: float64(player.ID), Member: int64(player.ID)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save player: %w", err)
	}
	return player, nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return getPlayer(ctx, s.client, id)
}

func getPlayer(ctx context.Context, c redis.Cmdable, id model.PlayerID) (*model.Player, error) {
	data, err := c.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	ids, err := s.client.ZRange(ctx, playersIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Player{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf("%s:player:%s", keyPrefix, id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var player model.Player
		if err := json.Unmarshal([]byte(str), &player); err != nil {
			return nil, err
		}
		players = append(players, &player)
	}
	return players, nil
}

func (s *Storage) UpdatePlayerField(ctx context.Context, id model.PlayerID, field model.PlayerField, value model.FieldValue) (*model.Player, error) {
	if err := field.Check(value); err != nil {
		return nil, err
	}

	key := playerKey(id)
	var updated *model.Player
	err := s.watch(ctx, func(tx *redis.Tx) error {
		player, err := getPlayer(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := field.Apply(player, value); err != nil {
			return err
		}
		data, err := json.Marshal(player)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			updated = player
		}
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Message operations

func (s *Storage) CreateMessage(ctx context.Context, in model.NewMessage) (*model.Message, error) {
	msg, err := in.Build(s.clock.Now())
	if err != nil {
		return nil, err
	}

	key := playerKey(in.PlayerID)
	err = s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return model.ErrPlayerNotFound
		}

		id, err := tx.Incr(ctx, messageSeqKey()).Result()
		if err != nil {
			return fmt.Errorf("allocate message id: %w", err)
		}
		msg.ID = model.MessageID(id)

		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, messageKey(msg.ID), data, 0)
			pipe.ZAdd(ctx, messagesForPlayerIndexKey(in.PlayerID), redis.Z{Score: float64(msg.ID), Member: id})
			return nil
		})
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Storage) ListMessagesForPlayer(ctx context.Context, id model.PlayerID) ([]*model.Message, error) {
	exists, err := s.client.Exists(ctx, playerKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, model.ErrPlayerNotFound
	}

	ids, err := s.client.ZRange(ctx, messagesForPlayerIndexKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Message{}, nil
	}

	keys := make([]string, len(ids))
	for i, msgID := range ids {
		keys[i] = fmt.Sprintf("%s:message:%s", keyPrefix, msgID)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]*model.Message, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var msg model.Message
		if err := json.Unmarshal([]byte(str), &msg); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}
