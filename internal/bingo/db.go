package bingo

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/skybingo/bingobot/internal/errs"
)

// Schema sets up the tables describing the current event and the mapping
// from global event numbers to kind-specific ones.
func Schema(db *sql.DB) error {
	_, err := db.Exec(`
		-- Stores data about the current bingo
		CREATE TABLE IF NOT EXISTS current_bingo_global (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			current_bingo INTEGER,
			current_bingo_starts INTEGER,
			current_bingo_ends INTEGER,
			is_network_bingo INTEGER
		);

		-- Maps global bingo IDs to (kind, kind-specific ID),
		-- e.g. global 21 -> extreme #2
		CREATE TABLE IF NOT EXISTS bingo_kind_id_map (
			bingo INTEGER PRIMARY KEY,
			bingo_kind INTEGER NOT NULL,
			kind_specific_id INTEGER NOT NULL,
			UNIQUE(bingo_kind, kind_specific_id)
		);
	`)
	return err
}

// Current describes the registered current event. ID is the authoritative
// epoch for cache validity; Starts and Ends are unix seconds.
type Current struct {
	ID     uint8
	Starts int64
	Ends   int64
}

// GetCurrent reads the current event row. A nil result means no event has
// been registered yet.
type GetCurrent struct{}

func (GetCurrent) Execute(db *sql.DB) (*Current, error) {
	row := db.QueryRow(`
		SELECT current_bingo, current_bingo_starts, current_bingo_ends
		FROM current_bingo_global WHERE id=1
	`)

	var id, starts, ends sql.NullInt64
	if err := row.Scan(&id, &starts, &ends); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch current bingo: %w", err)
	}
	if !id.Valid || !starts.Valid || !ends.Valid {
		return nil, nil
	}

	return &Current{ID: uint8(id.Int64), Starts: starts.Int64, Ends: ends.Int64}, nil
}

// SetCurrent upserts the current event row, leaving the network-bingo flag
// untouched.
type SetCurrent struct {
	ID     uint8
	Starts int64
	Ends   int64
}

func (r SetCurrent) Execute(db *sql.DB) (struct{}, error) {
	_, err := db.Exec(`
		INSERT INTO current_bingo_global (id, current_bingo, current_bingo_starts, current_bingo_ends)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current_bingo = excluded.current_bingo,
			current_bingo_starts = excluded.current_bingo_starts,
			current_bingo_ends = excluded.current_bingo_ends
	`, r.ID, r.Starts, r.Ends)
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to update current bingo: %w", err)
	}
	return struct{}{}, nil
}

// SetNetworkActive flags whether a network-wide bingo event is running.
type SetNetworkActive struct {
	Active bool
}

func (r SetNetworkActive) Execute(db *sql.DB) (struct{}, error) {
	_, err := db.Exec(`
		INSERT INTO current_bingo_global (id, is_network_bingo)
		VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET
			is_network_bingo = excluded.is_network_bingo
	`, r.Active)
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to update network bingo status: %w", err)
	}
	return struct{}{}, nil
}

// GetNetworkActive reads the network-bingo flag; an absent row reads false.
type GetNetworkActive struct{}

func (GetNetworkActive) Execute(db *sql.DB) (bool, error) {
	row := db.QueryRow(`SELECT is_network_bingo FROM current_bingo_global WHERE id=1`)

	var active sql.NullBool
	if err := row.Scan(&active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to fetch network bingo status: %w", err)
	}
	return active.Valid && active.Bool, nil
}

// AddMapping records that global event ID belongs to the given kind,
// assigning the next free kind-specific number for special kinds.
type AddMapping struct {
	ID   uint8
	Kind Kind
}

func (r AddMapping) Execute(db *sql.DB) (Bingo, error) {
	kindID := r.ID
	if r.Kind != KindNormal {
		row := db.QueryRow(
			`SELECT MAX(kind_specific_id) FROM bingo_kind_id_map WHERE bingo_kind=?`,
			uint8(r.Kind),
		)
		var max sql.NullInt64
		if err := row.Scan(&max); err != nil {
			return Bingo{}, fmt.Errorf("failed to assign kind-specific bingo id: %w", err)
		}
		kindID = 0
		if max.Valid {
			kindID = uint8(max.Int64) + 1
		}
	}

	_, err := db.Exec(`
		INSERT OR IGNORE INTO bingo_kind_id_map (bingo, bingo_kind, kind_specific_id)
		VALUES (?, ?, ?)
	`, r.ID, uint8(r.Kind), kindID)
	if err != nil {
		return Bingo{}, fmt.Errorf("failed to insert bingo id mapping: %w", err)
	}

	unique := r.ID
	return Bingo{KindID: kindID, Kind: r.Kind, Unique: &unique}, nil
}

// CompleteData resolves raw event numbers to full identifiers through the
// mapping table; unmapped numbers come back as plain normal bingos.
type CompleteData struct {
	IDs []uint8
}

func (r CompleteData) Execute(db *sql.DB) ([]Bingo, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bingo kind mappings: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		SELECT bingo, bingo_kind, kind_specific_id
		FROM bingo_kind_id_map
		WHERE bingo=?
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bingo kind mappings: %w", err)
	}
	defer stmt.Close()

	bingos := make([]Bingo, 0, len(r.IDs))
	for _, id := range r.IDs {
		var unique, kind, kindID uint8
		err := stmt.QueryRow(id).Scan(&unique, &kind, &kindID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			bingos = append(bingos, Bingo{KindID: id, Kind: KindNormal})
		case err != nil:
			return nil, fmt.Errorf("failed to fetch bingo kind mappings: %w", err)
		default:
			u := unique
			bingos = append(bingos, Bingo{KindID: kindID, Kind: KindFromUint8(kind), Unique: &u})
		}
	}

	return bingos, tx.Commit()
}

// RawResult carries the outcome of a maintainer-issued raw statement.
type RawResult struct {
	// Rows holds a header line followed by formatted result rows when the
	// statement returned rows; otherwise Affected is set.
	Rows     []string
	Affected int64
}

// RawQueryReadOnly runs a maintainer-provided statement, refusing anything
// that could write.
type RawQueryReadOnly struct {
	SQL string
}

func (r RawQueryReadOnly) Execute(db *sql.DB) (RawResult, error) {
	upper := strings.ToUpper(strings.TrimSpace(r.SQL))
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "VALUES") {
		return RawResult{}, errs.Userf("the provided SQL statement isn't read-only")
	}

	rows, err := db.Query(r.SQL)
	if err != nil {
		return RawResult{}, errs.User(fmt.Errorf("invalid SQL: %w", err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return RawResult{}, err
	}

	formatted := []string{strings.Join(columns, " | "), ""}
	values := make([]any, len(columns))
	for i := range values {
		values[i] = new(sql.NullString)
	}
	for rows.Next() {
		if err := rows.Scan(values...); err != nil {
			return RawResult{}, err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			ns := v.(*sql.NullString)
			if ns.Valid {
				cells[i] = ns.String
			} else {
				cells[i] = "NULL"
			}
		}
		formatted = append(formatted, strings.Join(cells, " | "))
	}

	return RawResult{Rows: formatted}, rows.Err()
}

// RawBatch runs a maintainer-provided script verbatim.
type RawBatch struct {
	SQL string
}

func (r RawBatch) Execute(db *sql.DB) (struct{}, error) {
	_, err := db.Exec(r.SQL)
	return struct{}{}, err
}
