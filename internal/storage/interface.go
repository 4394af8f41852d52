package storage

//go:generate mockgen -package=mocks -destination=mocks/mock_store.go github.com/mcoot/tablesync/internal/storage Store

import (
	"context"

	"github.com/mcoot/tablesync/internal/model"
)

// Store defines the interface for data persistence.
//
// Every mutating call is its own atomic unit: either the whole change is
// committed or nothing is.
type Store interface {
	// Player operations
	CreatePlayer(ctx context.Context, in model.NewPlayer) (*model.Player, error)
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	ListPlayers(ctx context.Context) ([]*model.Player, error)
	UpdatePlayerField(ctx context.Context, id model.PlayerID, field model.PlayerField, value model.FieldValue) (*model.Player, error)

	// Message operations
	CreateMessage(ctx context.Context, in model.NewMessage) (*model.Message, error)
	ListMessagesForPlayer(ctx context.Context, id model.PlayerID) ([]*model.Message, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
