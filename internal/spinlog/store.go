// Package spinlog keeps a queryable ledger of resolved spins in SQLite. The
// app opens it in memory, so the ledger lives only as long as the process.
package spinlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MJE43/roulette-desktop/internal/engine"
	"github.com/MJE43/roulette-desktop/internal/roulette"
)

const memoryDSN = ":memory:"

// Spin is one ledger row.
type Spin struct {
	ID           int64          `json:"id"`
	SessionID    string         `json:"sessionId"`
	Round        int            `json:"round"`
	Kind         roulette.Kind  `json:"kind"`
	Selector     string         `json:"selector"`
	Amount       int64          `json:"amount"`
	Outcome      int            `json:"outcome"`
	Color        roulette.Color `json:"color"`
	Payout       int64          `json:"payout"`
	Win          bool           `json:"win"`
	BalanceAfter int64          `json:"balanceAfter"`
	Simulated    bool           `json:"simulated"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// SpinsPage is a paginated spins response.
type SpinsPage struct {
	Spins      []Spin `json:"spins"`
	TotalCount int    `json:"totalCount"`
	Page       int    `json:"page"`
	PerPage    int    `json:"perPage"`
	TotalPages int    `json:"totalPages"`
}

// SessionSummary aggregates the ledger rows of one session.
type SessionSummary struct {
	SessionID string    `json:"sessionId"`
	Spins     int       `json:"spins"`
	Simulated int       `json:"simulated"`
	Wins      int       `json:"wins"`
	Wagered   int64     `json:"wagered"`
	Paid      int64     `json:"paid"`
	FirstAt   time.Time `json:"firstAt"`
}

type Store struct {
	db *sql.DB
}

// Open opens the ledger at path. An empty path opens a private in-memory
// database on a single connection.
func Open(path string) (*Store, error) {
	if path == "" {
		path = memoryDSN
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("spinlog: open db: %w", err)
	}
	if path == memoryDSN {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS spins (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			kind TEXT NOT NULL,
			selector TEXT NOT NULL,
			amount INTEGER NOT NULL,
			outcome INTEGER NOT NULL,
			color TEXT NOT NULL,
			payout INTEGER NOT NULL,
			win BOOLEAN NOT NULL DEFAULT 0,
			balance_after INTEGER NOT NULL,
			simulated BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_spins_session_round ON spins(session_id, round)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("spinlog: migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InsertBatch records spins in a single transaction.
func (s *Store) InsertBatch(recs []engine.SpinRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("spinlog: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO spins (session_id, round, kind, selector, amount, outcome, color, payout, win, balance_after, simulated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("spinlog: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		at := r.At
		if at.IsZero() {
			at = time.Now()
		}
		_, err := stmt.Exec(
			r.SessionID, r.Round, string(r.Bet.Kind), r.Bet.Selector, r.Bet.Amount,
			r.Outcome, string(roulette.PocketColor(r.Outcome)), r.Payout, r.Win,
			r.BalanceAfter, r.Simulated, at.UTC(),
		)
		if err != nil {
			return fmt.Errorf("spinlog: insert round %d: %w", r.Round, err)
		}
	}
	return tx.Commit()
}

// ListSpins returns spins of a session, newest first.
func (s *Store) ListSpins(sessionID string, page, perPage int) (*SpinsPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 50
	}
	offset := (page - 1) * perPage

	var total int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM spins WHERE session_id = ?", sessionID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("spinlog: count spins: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, round, kind, selector, amount, outcome, color, payout, win, balance_after, simulated, created_at
		 FROM spins WHERE session_id = ? ORDER BY round DESC LIMIT ? OFFSET ?`,
		sessionID, perPage, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("spinlog: list spins: %w", err)
	}
	defer rows.Close()

	spins := make([]Spin, 0, perPage)
	for rows.Next() {
		var sp Spin
		var kind, color string
		if err := rows.Scan(&sp.ID, &sp.SessionID, &sp.Round, &kind, &sp.Selector, &sp.Amount,
			&sp.Outcome, &color, &sp.Payout, &sp.Win, &sp.BalanceAfter, &sp.Simulated, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("spinlog: scan spin: %w", err)
		}
		sp.Kind, sp.Color = roulette.Kind(kind), roulette.Color(color)
		spins = append(spins, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("spinlog: list spins: %w", err)
	}

	totalPages := total / perPage
	if total%perPage > 0 {
		totalPages++
	}

	return &SpinsPage{
		Spins:      spins,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// Sessions summarises every session in the ledger, most recent first.
func (s *Store) Sessions() ([]SessionSummary, error) {
	rows, err := s.db.Query(
		`SELECT session_id, COUNT(*), COALESCE(SUM(simulated), 0), COALESCE(SUM(win), 0),
		        COALESCE(SUM(amount), 0), COALESCE(SUM(payout), 0), MIN(id)
		 FROM spins GROUP BY session_id ORDER BY MIN(id) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("spinlog: list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	var firstIDs []int64
	for rows.Next() {
		var sum SessionSummary
		var firstID int64
		if err := rows.Scan(&sum.SessionID, &sum.Spins, &sum.Simulated, &sum.Wins,
			&sum.Wagered, &sum.Paid, &firstID); err != nil {
			return nil, fmt.Errorf("spinlog: scan session: %w", err)
		}
		out = append(out, sum)
		firstIDs = append(firstIDs, firstID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("spinlog: list sessions: %w", err)
	}
	rows.Close()

	for i, id := range firstIDs {
		if err := s.db.QueryRow("SELECT created_at FROM spins WHERE id = ?", id).Scan(&out[i].FirstAt); err != nil {
			return nil, fmt.Errorf("spinlog: session start: %w", err)
		}
	}
	return out, nil
}
