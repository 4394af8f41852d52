// Package sqlite provides the SQLite-backed store, the default for a single
// host machine.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/tablesync/internal/dependencies/clock"
	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/storage"
)

//go:embed schema.sql
var schema string

const playerColumns = `id, player_name, power, power_description, sex, physical_description,
	curr_hp, max_hp, curr_stam, max_stam, last_dice_roll, created_at`

// Store persists players and messages in SQLite
type Store struct {
	sqlDB *sql.DB
	clock clock.Clock
}

// Ensure Store implements the interface
var _ storage.Store = (*Store)(nil)

func toMicros(value time.Time) int64 {
	return value.UTC().UnixMicro()
}

func fromMicros(value int64) time.Time {
	return time.UnixMicro(value).UTC()
}

// Open opens a SQLite store at path and applies the embedded schema
func Open(ctx context.Context, path string, clk clock.Clock) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite has a single writer; one connection keeps transactions from
	// contending for the write lock.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, clock: clk}, nil
}

// Close closes the SQLite handle
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping checks the database handle
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// withTx runs fn in a transaction, committing on success and rolling back
// on any error
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*model.Player, error) {
	var (
		p         model.Player
		createdAt int64
	)
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
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = fromMicros(createdAt)
	return &p, nil
}

func scanMessage(row rowScanner) (*model.Message, error) {
	var (
		m         model.Message
		createdAt int64
	)
	if err := row.Scan(&m.ID, &m.PlayerID, &m.Sender, &m.Content, &m.Mode, &createdAt); err != nil {
		return nil, err
	}
	m.CreatedAt = fromMicros(createdAt)
	return &m, nil
}

func getPlayer(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, id model.PlayerID) (*model.Player, error) {
	row := q.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, int64(id))
	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO players (
			   player_name, power, power_description, sex, physical_description,
			   curr_hp, max_hp, curr_stam, max_stam, last_dice_roll, created_at
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
			toMicros(player.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert player: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("player id: %w", err)
		}
		player.ID = model.PlayerID(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

func (s *Store) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return getPlayer(ctx, s.sqlDB, id)
}

func (s *Store) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY id`)
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
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		// field is allow-listed by Check, so it is safe as a column name
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE players SET %s = ? WHERE id = ?`, field),
			value.Any(), int64(id),
		)
		if err != nil {
			return fmt.Errorf("update player: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update player: %w", err)
		}
		if n == 0 {
			return model.ErrPlayerNotFound
		}
		updated, err = getPlayer(ctx, tx, id)
		return err
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

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getPlayer(ctx, tx, in.PlayerID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO messages (player_id, sender, content, mode, created_at) VALUES (?, ?, ?, ?, ?)`,
			int64(msg.PlayerID),
			string(msg.Sender),
			msg.Content,
			string(msg.Mode),
			toMicros(msg.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("message id: %w", err)
		}
		msg.ID = model.MessageID(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Store) ListMessagesForPlayer(ctx context.Context, id model.PlayerID) ([]*model.Message, error) {
	if _, err := getPlayer(ctx, s.sqlDB, id); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, player_id, sender, content, mode, created_at
		 FROM messages WHERE player_id = ? ORDER BY id`,
		int64(id),
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []*model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
