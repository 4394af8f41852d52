// Package postgres provides the PostgreSQL-backed store used by hosted
// deployments that set DATABASE_URL.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/tablesync/internal/dependencies/clock"
	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/storage"
)

//go:embed schema.sql
var schema string

const playerColumns = `id, player_name, power, power_description, sex, physical_description,
	curr_hp, max_hp, curr_stam, max_stam, last_dice_roll, created_at`

// Config holds pool settings
type Config struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

// DefaultConfig returns pool defaults for the given database URL
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		MaxConns:        10,
		MinConns:        2,
		MaxConnIdleTime: 5 * time.Minute,
	}
}

// Store persists players and messages in PostgreSQL
type Store struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

// Ensure Store implements the interface
var _ storage.Store = (*Store)(nil)

// Connect opens a pool, verifies it and applies the embedded schema
func Connect(ctx context.Context, cfg Config, clk clock.Clock) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool, clock: clk}, nil
}

// Close releases every pooled connection
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks a pooled connection
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func scanPlayer(row pgx.Row) (*model.Player, error) {
	var p model.Player
	err := row.Scan(
		&p.ID,
		&p.PlayerName,
		&p.Power,
		&p.PowerDescription,
		&p.Sex,
		&p.PhysicalDescription,
		&p.CurrHP,
		&p.MaxHP,
		&p.CurrStam,
		&p.MaxStam,
		&p.LastDiceRoll,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func getPlayer(ctx context.Context, q interface {
	QueryRow(context.Context, string, ...any) pgx.Row
}, id model.PlayerID) (*model.Player, error) {
	p, err := scanPlayer(q.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, int64(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

// Player operations

func (s *Store) CreatePlayer(ctx context.Context, in model.NewPlayer) (*model.Player, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	player := in.Build(s.clock.Now())

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`INSERT INTO players (
			   player_name, power, power_description, sex, physical_description,
			   curr_hp, max_hp, curr_stam, max_stam, last_dice_roll, created_at
			 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id`,
			player.PlayerName,
			player.Power,
			player.PowerDescription,
			player.Sex,
			player.PhysicalDescription,
			player.CurrHP,
			player.MaxHP,
			player.CurrStam,
			player.MaxStam,
			player.LastDiceRoll,
			player.CreatedAt,
		).Scan(&player.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("insert player: %w", err)
	}
	return player, nil
}

func (s *Store) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return getPlayer(ctx, s.pool, id)
}

func (s *Store) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	players := []*model.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

func (s *Store) UpdatePlayerField(ctx context.Context, id model.PlayerID, field model.PlayerField, value model.FieldValue) (*model.Player, error) {
	if err := field.Check(value); err != nil {
		return nil, err
	}

	var updated *model.Player
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// field is allow-listed by Check, so it is safe as an identifier
		p, err := scanPlayer(tx.QueryRow(ctx,
			fmt.Sprintf(`UPDATE players SET %s = $1 WHERE id = $2 RETURNING `+playerColumns,
				pgx.Identifier{string(field)}.Sanitize()),
			value.Any(), int64(id),
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrPlayerNotFound
			}
			return fmt.Errorf("update player: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Message operations

func (s *Store) CreateMessage(ctx context.Context, in model.NewMessage) (*model.Message, error) {
	msg, err := in.Build(s.clock.Now())
	if err != nil {
		return nil, err
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// FOR SHARE holds the player row until commit
		var exists bool
		err := tx.QueryRow(ctx, `SELECT true FROM players WHERE id = $1 FOR SHARE`, int64(in.PlayerID)).Scan(&exists)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrPlayerNotFound
			}
			return fmt.Errorf("lock player: %w", err)
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO messages (player_id, sender, content, mode, created_at)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			int64(msg.PlayerID),
			string(msg.Sender),
			msg.Content,
			string(msg.Mode),
			msg.CreatedAt,
		).Scan(&msg.ID)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Store) ListMessagesForPlayer(ctx context.Context, id model.PlayerID) ([]*model.Message, error) {
	if _, err := getPlayer(ctx, s.pool, id); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, player_id, sender, content, mode, created_at
		 FROM messages WHERE player_id = $1 ORDER BY id`,
		int64(id),
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []*model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.PlayerID, &m.Sender, &m.Content, &m.Mode, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = m.CreatedAt.UTC()
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
