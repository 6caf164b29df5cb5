package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/1broseidon/tabdeck/internal/container"
	"github.com/1broseidon/tabdeck/internal/drag"
)

var ErrNotFound = errors.New("not found")

// Store persists ordering snapshots and the committed-move log. It is the
// persistence collaborator: the shell never calls it directly, the daemon
// snapshots through it after debounced change notifications.
type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("chmod db path: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// TabEntry is one tab's position in an ordering snapshot.
type TabEntry struct {
	Tab     container.TabID
	Locator string
}

// ContainerOrder is one container's ordered tabs in a snapshot.
type ContainerOrder struct {
	Container container.Container
	Entries   []TabEntry
}

// ReplaceOrderings replaces the whole orderings table with the given
// snapshot in one transaction. Snapshots are wholesale: the table always
// reflects exactly one consistent shell state.
func (s *Store) ReplaceOrderings(ctx context.Context, orders []ContainerOrder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM orderings`); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear orderings: %w", err)
	}

	now := ts(time.Now())
	for _, order := range orders {
		if order.Container.IsNone() {
			continue
		}
		for pos, entry := range order.Entries {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO orderings(container_kind, space_id, position, tab_id, locator, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`, order.Container.Kind.String(), string(order.Container.Space), pos, string(entry.Tab), entry.Locator, now); err != nil {
				tx.Rollback() //nolint:errcheck
				return fmt.Errorf("insert ordering row: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadOrderings reads the last persisted snapshot, grouped by container in
// position order.
func (s *Store) LoadOrderings(ctx context.Context) ([]ContainerOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT container_kind, space_id, position, tab_id, locator
FROM orderings
ORDER BY container_kind ASC, space_id ASC, position ASC
`)
	if err != nil {
		return nil, fmt.Errorf("query orderings: %w", err)
	}
	defer rows.Close()

	out := make([]ContainerOrder, 0)
	for rows.Next() {
		var (
			kindStr string
			spaceID string
			pos     int
			tabID   string
			locator string
		)
		if err := rows.Scan(&kindStr, &spaceID, &pos, &tabID, &locator); err != nil {
			return nil, fmt.Errorf("scan ordering row: %w", err)
		}
		kind, err := container.ParseKind(kindStr)
		if err != nil {
			return nil, fmt.Errorf("parse ordering kind: %w", err)
		}
		c := container.Container{Kind: kind, Space: container.SpaceID(spaceID)}
		entry := TabEntry{Tab: container.TabID(tabID), Locator: locator}
		if n := len(out); n > 0 && out[n-1].Container.Equal(c) {
			out[n-1].Entries = append(out[n-1].Entries, entry)
			continue
		}
		out = append(out, ContainerOrder{Container: c, Entries: []TabEntry{entry}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iter orderings: %w", err)
	}
	return out, nil
}

// MoveRecord is one committed drag operation in the move log.
type MoveRecord struct {
	MoveID      string
	Tab         container.TabID
	From        container.Container
	FromIndex   int
	To          container.Container
	ToIndex     int
	CommittedAt time.Time
}

// RecordMove appends a committed drag operation to the move log.
func (s *Store) RecordMove(ctx context.Context, op drag.Operation) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO moves(move_id, tab_id, from_kind, from_space, from_position, to_kind, to_space, to_position, committed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, uuid.NewString(), string(op.Item),
		op.From.Kind.String(), string(op.From.Space), op.FromIndex,
		op.To.Kind.String(), string(op.To.Space), op.ToIndex,
		ts(time.Now()))
	if err != nil {
		return fmt.Errorf("insert move: %w", err)
	}
	return nil
}

// ListMoves returns the most recent committed moves, newest first.
func (s *Store) ListMoves(ctx context.Context, limit int) ([]MoveRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT move_id, tab_id, from_kind, from_space, from_position, to_kind, to_space, to_position, committed_at
FROM moves
ORDER BY committed_at DESC, move_id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	out := make([]MoveRecord, 0, limit)
	for rows.Next() {
		var (
			rec         MoveRecord
			tabID       string
			fromKind    string
			fromSpace   string
			toKind      string
			toSpace     string
			committedAt string
		)
		if err := rows.Scan(&rec.MoveID, &tabID, &fromKind, &fromSpace, &rec.FromIndex, &toKind, &toSpace, &rec.ToIndex, &committedAt); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		rec.Tab = container.TabID(tabID)
		rec.From, err = parseContainer(fromKind, fromSpace)
		if err != nil {
			return nil, fmt.Errorf("parse move from: %w", err)
		}
		rec.To, err = parseContainer(toKind, toSpace)
		if err != nil {
			return nil, fmt.Errorf("parse move to: %w", err)
		}
		rec.CommittedAt, err = parseTS(committedAt)
		if err != nil {
			return nil, fmt.Errorf("parse move committed_at: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iter moves: %w", err)
	}
	return out, nil
}

// CountRows returns the row count of a table, used in tests and status.
func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table))
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows %s: %w", table, err)
	}
	return count, nil
}

func parseContainer(kindStr, spaceID string) (container.Container, error) {
	kind, err := container.ParseKind(kindStr)
	if err != nil {
		return container.None, err
	}
	c := container.Container{Kind: kind}
	if kind == container.KindSpacePinned || kind == container.KindSpaceRegular {
		c.Space = container.SpaceID(spaceID)
	}
	return c, nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
