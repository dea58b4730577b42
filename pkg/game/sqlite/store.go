// Package sqlite provides a SQLite-backed session store.
//
// Records carry an expiry timestamp refreshed on every write; reads treat
// expired rows as absent, matching the retention contract of game.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/flerk3n/SGS-ZK-gaming/pkg/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
  session_id       INTEGER PRIMARY KEY,
  player1          TEXT NOT NULL,
  player2          TEXT NOT NULL,
  stake1           TEXT,
  stake2           TEXT,
  commitment       BLOB NOT NULL,
  cards            BLOB NOT NULL,
  score1           INTEGER NOT NULL,
  score2           INTEGER NOT NULL,
  current_turn     TEXT NOT NULL,
  pending_position INTEGER,
  pending_value    INTEGER,
  pairs_found      INTEGER NOT NULL,
  active           INTEGER NOT NULL,
  expires_at_ms    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry ON sessions (expires_at_ms);
`

// Store persists game sessions in SQLite.
type Store struct {
	sqlDB     *sql.DB
	retention time.Duration
	now       func() time.Time
}

// Open opens (creating if necessary) a SQLite session store. A zero retention
// disables expiry.
func Open(path string, retention time.Duration) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, retention: retention, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put upserts the session and refreshes its retention horizon.
func (s *Store) Put(ctx context.Context, session *game.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var expiresAt int64
	if s.retention > 0 {
		expiresAt = s.now().Add(s.retention).UTC().UnixMilli()
	}

	cards := make([]byte, len(session.Cards))
	for i, c := range session.Cards {
		cards[i] = byte(c)
	}

	var pendingPos, pendingVal sql.NullInt64
	if session.Pending != nil {
		pendingPos = sql.NullInt64{Int64: int64(session.Pending.Position), Valid: true}
		pendingVal = sql.NullInt64{Int64: int64(session.Pending.Value), Valid: true}
	}

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO sessions (
		  session_id, player1, player2, stake1, stake2, commitment, cards,
		  score1, score2, current_turn, pending_position, pending_value,
		  pairs_found, active, expires_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
		  cards = excluded.cards,
		  score1 = excluded.score1,
		  score2 = excluded.score2,
		  current_turn = excluded.current_turn,
		  pending_position = excluded.pending_position,
		  pending_value = excluded.pending_value,
		  pairs_found = excluded.pairs_found,
		  active = excluded.active,
		  expires_at_ms = excluded.expires_at_ms`,
		session.ID, session.Player1, session.Player2,
		stakeText(session.Stake1), stakeText(session.Stake2),
		session.Commitment[:], cards,
		session.Score1, session.Score2, session.CurrentTurn,
		pendingPos, pendingVal,
		session.PairsFound, session.Active, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("persist session %d: %w", session.ID, err)
	}
	return nil
}

// Get loads a session, treating expired rows as absent.
func (s *Store) Get(ctx context.Context, sessionID uint32) (*game.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT player1, player2, stake1, stake2, commitment, cards,
		       score1, score2, current_turn, pending_position, pending_value,
		       pairs_found, active, expires_at_ms
		FROM sessions WHERE session_id = ?`, sessionID)

	var (
		session                = game.Session{ID: sessionID}
		stake1, stake2         sql.NullString
		commitment, cards      []byte
		pendingPos, pendingVal sql.NullInt64
		expiresAt              int64
	)
	err := row.Scan(
		&session.Player1, &session.Player2, &stake1, &stake2,
		&commitment, &cards,
		&session.Score1, &session.Score2, &session.CurrentTurn,
		&pendingPos, &pendingVal,
		&session.PairsFound, &session.Active, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", sessionID, err)
	}

	if expiresAt > 0 && s.now().UTC().UnixMilli() > expiresAt {
		_, _ = s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
		return nil, game.ErrNotFound
	}

	copy(session.Commitment[:], commitment)
	session.Cards = make([]game.CardState, len(cards))
	for i, c := range cards {
		session.Cards[i] = game.CardState(c)
	}
	if session.Stake1, err = stakeValue(stake1); err != nil {
		return nil, fmt.Errorf("load session %d: %w", sessionID, err)
	}
	if session.Stake2, err = stakeValue(stake2); err != nil {
		return nil, fmt.Errorf("load session %d: %w", sessionID, err)
	}
	if pendingPos.Valid {
		session.Pending = &game.PendingFlip{
			Position: uint32(pendingPos.Int64),
			Value:    uint8(pendingVal.Int64),
		}
	}
	return &session, nil
}

// PurgeExpired removes every session past its retention horizon. Callers may
// run it periodically; correctness does not depend on it since Get treats
// expired rows as absent.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at_ms > 0 AND expires_at_ms < ?`,
		s.now().UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return res.RowsAffected()
}

// Stakes are decimal strings so the full signed 128-bit range survives the
// round trip.
func stakeText(v *big.Int) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}

func stakeValue(v sql.NullString) (*big.Int, error) {
	if !v.Valid {
		return nil, nil
	}
	i, ok := new(big.Int).SetString(v.String, 10)
	if !ok {
		return nil, fmt.Errorf("malformed stake %q", v.String)
	}
	return i, nil
}
