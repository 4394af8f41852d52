package memory

import (
	"context"
	"sync"

	"github.com/mcoot/tablesync/internal/dependencies/clock"
	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu    sync.RWMutex
	clock clock.Clock

	players      map[model.PlayerID]*model.Player
	playerOrder  []model.PlayerID
	messages     map[model.PlayerID][]*model.Message
	nextPlayerID model.PlayerID
	nextMessage  model.MessageID
}

// New creates a new in-memory storage instance
func New(clk clock.Clock) *Storage {
	return &Storage{
		clock:    clk,
		players:  make(map[model.PlayerID]*model.Player),
		messages: make(map[model.PlayerID][]*model.Message),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, in model.NewPlayer) (*model.Player, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	player := in.Build(s.clock.Now())
	s.nextPlayerID++
	player.ID = s.nextPlayerID

	s.players[player.ID] = player
	s.playerOrder = append(s.playerOrder, player.ID)
	return player.Clone(), nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player.Clone(), nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]*model.Player, 0, len(s.playerOrder))
	for _, id := range s.playerOrder {
		players = append(players, s.players[id].Clone())
	}
	return players, nil
}

func (s *Storage) UpdatePlayerField(ctx context.Context, id model.PlayerID, field model.PlayerField, value model.FieldValue) (*model.Player, error) {
	if err := field.Check(value); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}

	// Apply to a copy so a failure leaves the stored player untouched
	updated := player.Clone()
	if err := field.Apply(updated, value); err != nil {
		return nil, err
	}
	s.players[id] = updated
	return updated.Clone(), nil
}

// Message operations

func (s *Storage) CreateMessage(ctx context.Context, in model.NewMessage) (*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[in.PlayerID]; !ok {
		return nil, model.ErrPlayerNotFound
	}

	msg, err := in.Build(s.clock.Now())
	if err != nil {
		return nil, err
	}
	s.nextMessage++
	msg.ID = s.nextMessage

	s.messages[in.PlayerID] = append(s.messages[in.PlayerID], msg)
	copied := *msg
	return &copied, nil
}

func (s *Storage) ListMessagesForPlayer(ctx context.Context, id model.PlayerID) ([]*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.players[id]; !ok {
		return nil, model.ErrPlayerNotFound
	}

	stored := s.messages[id]
	messages := make([]*model.Message, 0, len(stored))
	for _, m := range stored {
		copied := *m
		messages = append(messages, &copied)
	}
	return messages, nil
}

// Lifecycle

func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Storage) Close() error {
	return nil
}
