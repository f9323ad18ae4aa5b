// Package store persists ledger and blotter records in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/financials"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Times are stored in UTC with a fixed width, so that they sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite is a financials.Journal backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

var (
	_ financials.Journal     = (*SQLite)(nil)
	_ financials.FundJournal = (*SQLite)(nil)
)

// Open opens, or creates, the database at path.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema in %s: %w", path, err)
	}

	return &SQLite{db: db}, nil
}

// execer is implemented by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func zoneOffset(t time.Time) int {
	_, offset := t.Zone()
	return offset
}

func encodeExtra(x financials.Extra) (sql.NullString, error) {
	if len(x) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(x)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeExtra(s sql.NullString) (financials.Extra, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var x financials.Extra
	if err := json.Unmarshal([]byte(s.String), &x); err != nil {
		return nil, fmt.Errorf("invalid extra %q: %w", s.String, err)
	}
	return x, nil
}

func insertCash(db execer, e financials.CashEntry) error {
	extra, err := encodeExtra(e.Extra)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO cash (id, time, utc_offset, amount, tag, extra)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, formatTime(e.Time), zoneOffset(e.Time), e.Amount.String(), e.Tag, extra,
	)
	if err != nil {
		return fmt.Errorf("insert cash entry %s: %w", e.ID, err)
	}
	return nil
}

// RecordCash stores a cash entry.
func (s *SQLite) RecordCash(e financials.CashEntry) error {
	return insertCash(s.db, e)
}

// RecordTrade stores a trade and its cash effect in a single transaction.
func (s *SQLite) RecordTrade(t financials.Trade, e financials.CashEntry) error {
	extra, err := encodeExtra(t.Extra)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO trades (id, time, utc_offset, symbol, mode, quantity, price, tag, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, formatTime(t.Time), zoneOffset(t.Time), t.Symbol, string(t.Mode), t.Quantity.String(), t.Price.String(), t.Tag, extra,
	)
	if err != nil {
		return fmt.Errorf("insert trade %s: %w", t.ID, err)
	}
	if err := insertCash(tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordFund stores a pending fund.
func (s *SQLite) RecordFund(f financials.PendingFund) error {
	extra, err := encodeExtra(f.Extra)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO funds (id, due, utc_offset, amount, tag, extra)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, formatTime(f.Due), zoneOffset(f.Due), f.Amount.String(), f.Tag, extra,
	)
	if err != nil {
		return fmt.Errorf("insert fund %s: %w", f.ID, err)
	}
	return nil
}

// CancelFund marks a pending fund as cancelled.
func (s *SQLite) CancelFund(fundID string) error {
	res, err := s.db.Exec(`UPDATE funds SET cancelled = 1 WHERE id = ? AND cancelled = 0`, fundID)
	if err != nil {
		return fmt.Errorf("cancel fund %s: %w", fundID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", financials.ErrUnknownFund, fundID)
	}
	return nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// parseTime reads a stored time back in the zone it was recorded in: the
// local zone when its offset matches, a fixed zone otherwise.
func parseTime(s string, offset int) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if local := t.In(time.Local); zoneOffset(local) == offset {
		return local, nil
	}
	return t.In(time.FixedZone("", offset)), nil
}

func scanCash(row scanner) (financials.CashEntry, error) {
	var (
		e          financials.CashEntry
		ts, amount string
		offset     int
		extra      sql.NullString
	)
	if err := row.Scan(&e.ID, &ts, &offset, &amount, &e.Tag, &extra); err != nil {
		return e, err
	}
	var err error
	if e.Time, err = parseTime(ts, offset); err != nil {
		return e, err
	}
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return e, fmt.Errorf("invalid amount %q in cash entry %s: %w", amount, e.ID, err)
	}
	e.Extra, err = decodeExtra(extra)
	return e, err
}

func scanTrade(row scanner) (financials.Trade, error) {
	var (
		t                 financials.Trade
		ts, mode, qty, px string
		offset            int
		extra             sql.NullString
	)
	if err := row.Scan(&t.ID, &ts, &offset, &t.Symbol, &mode, &qty, &px, &t.Tag, &extra); err != nil {
		return t, err
	}
	var err error
	if t.Time, err = parseTime(ts, offset); err != nil {
		return t, err
	}
	if t.Mode, err = financials.ParseMode(mode); err != nil {
		return t, err
	}
	if t.Quantity, err = financials.ParseQuantity(qty); err != nil {
		return t, err
	}
	if t.Price, err = financials.ParsePrice(px); err != nil {
		return t, err
	}
	t.Extra, err = decodeExtra(extra)
	return t, err
}

func scanFund(row scanner) (financials.PendingFund, error) {
	var (
		f           financials.PendingFund
		due, amount string
		offset      int
		extra       sql.NullString
	)
	if err := row.Scan(&f.ID, &due, &offset, &amount, &f.Tag, &extra); err != nil {
		return f, err
	}
	var err error
	if f.Due, err = parseTime(due, offset); err != nil {
		return f, err
	}
	if f.Amount, err = financials.ParseAmount(amount); err != nil {
		return f, err
	}
	f.Extra, err = decodeExtra(extra)
	return f, err
}

// collect runs a query and scans every row.
func collect[T any](db *sql.DB, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Load reads every record, in the order they were written.
// Cancelled funds are left out.
func (s *SQLite) Load() (financials.Records, error) {
	var recs financials.Records
	var err error
	recs.Cash, err = collect(s.db, scanCash, `SELECT id, time, utc_offset, amount, tag, extra FROM cash ORDER BY seq`)
	if err != nil {
		return recs, fmt.Errorf("load cash: %w", err)
	}
	recs.Trades, err = collect(s.db, scanTrade, `
		SELECT id, time, utc_offset, symbol, mode, quantity, price, tag, extra
		FROM trades ORDER BY seq`)
	if err != nil {
		return recs, fmt.Errorf("load trades: %w", err)
	}
	recs.Funds, err = collect(s.db, scanFund, `
		SELECT id, due, utc_offset, amount, tag, extra
		FROM funds WHERE cancelled = 0 ORDER BY seq`)
	if err != nil {
		return recs, fmt.Errorf("load funds: %w", err)
	}
	return recs, nil
}

// CashEntry returns a single cash entry by id.
func (s *SQLite) CashEntry(id string) (financials.CashEntry, error) {
	row := s.db.QueryRow(`SELECT id, time, utc_offset, amount, tag, extra FROM cash WHERE id = ?`, id)
	e, err := scanCash(row)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("cash entry %q not found", id)
	}
	return e, err
}

// CashBetween returns the cash entries whose time is within [from, to),
// sorted by time. A zero bound is open.
func (s *SQLite) CashBetween(from, to time.Time) ([]financials.CashEntry, error) {
	lo, hi := "", "9999"
	if !from.IsZero() {
		lo = formatTime(from)
	}
	if !to.IsZero() {
		hi = formatTime(to)
	}
	entries, err := collect(s.db, scanCash, `
		SELECT id, time, utc_offset, amount, tag, extra
		FROM cash
		WHERE time >= ? AND time < ?
		ORDER BY time ASC, seq ASC`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("query cash between %v and %v: %w", from, to, err)
	}
	return entries, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
