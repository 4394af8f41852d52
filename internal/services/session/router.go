package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/tablesync/internal/dependencies/clock"
	"github.com/mcoot/tablesync/internal/dependencies/random"
	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/storage"
)

// Broadcaster fans an event out to every connected participant
type Broadcaster interface {
	Broadcast(event model.Event)
}

// Metrics records the outcome of inbound events
type Metrics interface {
	EventProcessed(event string)
	EventDropped(event, reason string)
}

// Config holds router settings
type Config struct {
	// OpTimeout bounds every store call made for one event
	OpTimeout time.Duration
	// DiceSides is the die rolled when a client does not supply a roll
	DiceSides int
}

// DefaultConfig returns default router configuration
func DefaultConfig() Config {
	return Config{
		OpTimeout: 5 * time.Second,
		DiceSides: 20,
	}
}

// Router validates inbound events, persists their effects and emits the
// resulting broadcasts.
//
// Mutations are serialised by a single lock held from validation through
// enqueueing the broadcast, so every participant sees broadcasts in the
// order the store committed them.
type Router struct {
	store       storage.Store
	broadcaster Broadcaster
	clock       clock.Clock
	random      random.Random
	metrics     Metrics
	logger      *slog.Logger
	cfg         Config

	mu sync.Mutex
}

// NewRouter creates a new Router
func NewRouter(
	store storage.Store,
	broadcaster Broadcaster,
	clock clock.Clock,
	random random.Random,
	metrics Metrics,
	logger *slog.Logger,
	cfg Config,
) *Router {
	defaults := DefaultConfig()
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = defaults.OpTimeout
	}
	if cfg.DiceSides <= 0 {
		cfg.DiceSides = defaults.DiceSides
	}
	return &Router{
		store:       store,
		broadcaster: broadcaster,
		clock:       clock,
		random:      random,
		metrics:     metrics,
		logger:      logger.With(slog.String("component", "router")),
		cfg:         cfg,
	}
}

// mutate runs fn under the processing lock with a bounded context. When fn
// succeeds the event it returns is broadcast before the lock is released.
func (r *Router) mutate(ctx context.Context, event string, fn func(ctx context.Context) (*model.Event, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
	defer cancel()

	out, err := fn(opCtx)
	if err != nil {
		r.drop(event, err)
		return err
	}

	r.broadcaster.Broadcast(*out)
	r.metrics.EventProcessed(event)
	return nil
}

// read runs a store query with a bounded context. Reads do not take the
// processing lock.
func (r *Router) read(ctx context.Context, event string, fn func(ctx context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
	defer cancel()

	if err := fn(opCtx); err != nil {
		r.drop(event, err)
		return err
	}
	r.metrics.EventProcessed(event)
	return nil
}

// Reject records an event the caller refused before handing it to the
// router, such as an unauthorized or undecodable frame
func (r *Router) Reject(event string, err error) {
	r.drop(event, err)
}

func (r *Router) drop(event string, err error) {
	reason := DropReason(err)
	r.logger.Warn("event dropped",
		slog.String("event", event),
		slog.String("reason", reason),
		slog.Any("error", err))
	r.metrics.EventDropped(event, reason)
}

func (r *Router) newEvent(t model.EventType, payload any) *model.Event {
	return &model.Event{
		Type:      t,
		Timestamp: r.clock.Now(),
		Payload:   payload,
	}
}

// CreatePlayer registers a new player and announces them to everyone
func (r *Router) CreatePlayer(ctx context.Context, in model.NewPlayer) (*model.Player, error) {
	var player *model.Player
	err := r.mutate(ctx, "create_player", func(ctx context.Context) (*model.Event, error) {
		p, err := r.store.CreatePlayer(ctx, in)
		if err != nil {
			return nil, err
		}
		player = p
		return r.newEvent(model.EventPlayerCreated, model.PlayerCreatedPayload{
			ID:   p.ID,
			Name: p.PlayerName,
		}), nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("player created",
		slog.Int64("player_id", int64(player.ID)),
		slog.String("player_name", player.PlayerName))
	return player, nil
}

// GetPlayer returns one player
func (r *Router) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player *model.Player
	err := r.read(ctx, "get_player", func(ctx context.Context) error {
		p, err := r.store.GetPlayer(ctx, id)
		player = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// ListPlayers returns every player in creation order. Callers must have
// passed the host gate.
func (r *Router) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	var players []*model.Player
	err := r.read(ctx, "list_players", func(ctx context.Context) error {
		p, err := r.store.ListPlayers(ctx)
		players = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return players, nil
}

// RollRequest describes a dice roll. A nil Roll asks the server to roll a
// die with Sides faces, or the configured default when Sides is zero.
type RollRequest struct {
	PlayerID model.PlayerID
	Roll     *int
	Sides    int
}

// RollDice records a roll as the player's last roll and announces it
func (r *Router) RollDice(ctx context.Context, req RollRequest) (*model.Player, error) {
	var player *model.Player
	err := r.mutate(ctx, "roll_dice", func(ctx context.Context) (*model.Event, error) {
		roll := 0
		if req.Roll != nil {
			roll = *req.Roll
		} else {
			sides := req.Sides
			if sides <= 0 {
				sides = r.cfg.DiceSides
			}
			roll = r.random.Roll(sides)
		}

		p, err := r.store.UpdatePlayerField(ctx, req.PlayerID, model.FieldLastDiceRoll, model.IntValue(roll))
		if err != nil {
			return nil, err
		}
		player = p
		return r.newEvent(model.EventPlayerRolled, model.PlayerRolledPayload{
			ID:   p.ID,
			Name: p.PlayerName,
			Roll: roll,
		}), nil
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// UpdateStat sets a player's current HP or stamina. A missing value is
// rejected with ErrInvalidFieldValue.
func (r *Router) UpdateStat(ctx context.Context, id model.PlayerID, stat model.StatType, value *int) (*model.Player, error) {
	var player *model.Player
	err := r.mutate(ctx, "update_stat", func(ctx context.Context) (*model.Event, error) {
		field, err := stat.Field()
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, model.ErrInvalidFieldValue
		}
		p, err := r.store.UpdatePlayerField(ctx, id, field, model.IntValue(*value))
		if err != nil {
			return nil, err
		}
		player = p
		return r.newEvent(model.EventStatUpdated, model.StatUpdatedPayload{
			ID:    id,
			Type:  stat,
			Value: *value,
		}), nil
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// UpdatePlayerField sets one allow-listed field
func (r *Router) UpdatePlayerField(ctx context.Context, id model.PlayerID, field model.PlayerField, value model.FieldValue) (*model.Player, error) {
	var player *model.Player
	err := r.mutate(ctx, "update_player_field", func(ctx context.Context) (*model.Event, error) {
		if err := field.Check(value); err != nil {
			return nil, err
		}
		p, err := r.store.UpdatePlayerField(ctx, id, field, value)
		if err != nil {
			return nil, err
		}
		player = p
		return r.newEvent(model.EventPlayerUpdated, model.PlayerUpdatedPayload{
			ID:    id,
			Field: field,
			Value: value.Any(),
		}), nil
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// UpdatePlayerFieldJSON decodes a raw JSON value for field and sets it
func (r *Router) UpdatePlayerFieldJSON(ctx context.Context, id model.PlayerID, field model.PlayerField, raw json.RawMessage) (*model.Player, error) {
	value, err := field.DecodeValue(raw)
	if err != nil {
		r.drop("update_player_field", err)
		return nil, err
	}
	return r.UpdatePlayerField(ctx, id, field, value)
}

// SendHostMessage stores a message from the host to a player and emits it
// on that player's chat channel. Callers must have passed the host gate.
func (r *Router) SendHostMessage(ctx context.Context, id model.PlayerID, content string, mode model.Mode) (*model.Message, error) {
	return r.sendMessage(ctx, "host_message", model.NewMessage{
		PlayerID: id,
		Sender:   model.SenderHost,
		Content:  content,
		Mode:     mode,
	})
}

// SendPlayerMessage stores an in-character message from a player
func (r *Router) SendPlayerMessage(ctx context.Context, id model.PlayerID, content string) (*model.Message, error) {
	return r.sendMessage(ctx, "player_message", model.NewMessage{
		PlayerID: id,
		Sender:   model.SenderPlayer,
		Content:  content,
		Mode:     model.ModeRP,
	})
}

func (r *Router) sendMessage(ctx context.Context, event string, in model.NewMessage) (*model.Message, error) {
	var msg *model.Message
	err := r.mutate(ctx, event, func(ctx context.Context) (*model.Event, error) {
		m, err := r.store.CreateMessage(ctx, in)
		if err != nil {
			return nil, err
		}
		msg = m
		return r.newEvent(model.MessageEventType(m.PlayerID), m), nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns a player's chat history in creation order
func (r *Router) ListMessages(ctx context.Context, id model.PlayerID) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.read(ctx, "get_messages", func(ctx context.Context) error {
		m, err := r.store.ListMessagesForPlayer(ctx, id)
		messages = m
		return err
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Heartbeat echoes a liveness ping to everyone. It touches no state and
// cannot fail.
func (r *Router) Heartbeat() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.broadcaster.Broadcast(*r.newEvent(model.EventHeartbeat, model.HeartbeatPayload{}))
	r.metrics.EventProcessed("increment")
}

// Ping checks that the store is reachable
func (r *Router) Ping(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
	defer cancel()
	return r.store.Ping(opCtx)
}
