package hob

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/skybingo/bingobot/internal/bingo"
)

// Schema creates the Hall of Bingo tables. Player and subentry rows cascade
// with their parent entry.
func Schema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS hob_entries_oneoff (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			comment TEXT,
			bingo INTEGER NOT NULL,
			bingo_kind INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS hob_oneoff_players (
			entry_id INTEGER NOT NULL,
			player TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY(entry_id, player),
			FOREIGN KEY(entry_id) REFERENCES hob_entries_oneoff(id) ON DELETE CASCADE
		);
		CREATE TABLE IF NOT EXISTS hob_entries_ongoing (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			comment TEXT
		);
		CREATE TABLE IF NOT EXISTS hob_ongoing_subentries (
			id INTEGER PRIMARY KEY,
			entry_id INTEGER NOT NULL,
			player TEXT NOT NULL,
			value TEXT NOT NULL,
			bingo INTEGER NOT NULL,
			bingo_kind INTEGER NOT NULL,
			FOREIGN KEY(entry_id) REFERENCES hob_entries_ongoing(id) ON DELETE CASCADE
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create HoB tables: %w", err)
	}
	return nil
}

// The one-off queries join the kind mapping so entries carry their global
// event number for sorting; unmapped events sort by their kind-specific one.
const oneoffColumns = `
	SELECT e.id, e.title, e.comment, e.bingo, e.bingo_kind, m.bingo AS sort_value
	FROM hob_entries_oneoff e
	LEFT JOIN bingo_kind_id_map m
		ON e.bingo_kind = m.bingo_kind
		AND e.bingo = m.kind_specific_id
`

const ongoingSortJoin = `
	LEFT JOIN (
		SELECT entry_id, MAX(COALESCE(m.bingo, s.bingo)) AS sort_value
		FROM hob_ongoing_subentries s
		LEFT JOIN bingo_kind_id_map m
			ON s.bingo_kind = m.bingo_kind
			AND s.bingo = m.kind_specific_id
		GROUP BY s.entry_id
	) s_max ON e.id = s_max.entry_id
`

// GetAll fetches every entry, newest event first.
type GetAll struct{}

func (GetAll) Execute(db *sql.DB) ([]Entry, error) {
	oneoff, err := queryOneOffs(db, oneoffColumns+`ORDER BY COALESCE(m.bingo, e.bingo) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HoB entries: %w", err)
	}
	ongoing, err := queryOngoings(db, `
		SELECT e.id, e.title, e.comment
		FROM hob_entries_ongoing e
	`+ongoingSortJoin+`ORDER BY s_max.sort_value DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HoB entries: %w", err)
	}
	return mergeSorted(oneoff, ongoing), nil
}

// Search fetches entries whose title, comment, players, values or event name
// contain the query, newest event first.
type Search struct {
	Query string
}

func (r Search) Execute(db *sql.DB) ([]Entry, error) {
	const kindName = `
		CASE %s.bingo_kind
			WHEN 0 THEN 'normal bingo #'
			WHEN 1 THEN 'extreme bingo #'
			WHEN 2 THEN 'secret bingo #'
			ELSE 'bingo #'
		END || CAST(%s.bingo AS TEXT)
	`

	oneoff, err := queryOneOffs(db, `
		SELECT DISTINCT e.id, e.title, e.comment, e.bingo, e.bingo_kind, m.bingo AS sort_value
		FROM hob_entries_oneoff e
		LEFT JOIN hob_oneoff_players p ON e.id = p.entry_id
		LEFT JOIN bingo_kind_id_map m
			ON e.bingo_kind = m.bingo_kind
			AND e.bingo = m.kind_specific_id
		WHERE e.title LIKE '%' || ?1 || '%' ESCAPE '\'
			OR e.comment LIKE '%' || ?1 || '%' ESCAPE '\'
			OR p.player LIKE '%' || ?1 || '%' ESCAPE '\'
			OR (`+fmt.Sprintf(kindName, "e", "e")+`) LIKE '%' || ?1 || '%' ESCAPE '\'
		ORDER BY COALESCE(m.bingo, e.bingo) DESC
	`, r.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to search HoB entries: %w", err)
	}

	ongoing, err := queryOngoings(db, `
		SELECT e.id, e.title, e.comment
		FROM hob_entries_ongoing e
	`+ongoingSortJoin+`
		WHERE e.title LIKE '%' || ?1 || '%' ESCAPE '\'
			OR e.comment LIKE '%' || ?1 || '%' ESCAPE '\'
			OR EXISTS (
				SELECT 1
				FROM hob_ongoing_subentries s
				WHERE s.entry_id = e.id
				AND (s.player LIKE '%' || ?1 || '%' ESCAPE '\'
					OR s.value LIKE '%' || ?1 || '%' ESCAPE '\'
					OR (`+fmt.Sprintf(kindName, "s", "s")+`) LIKE '%' || ?1 || '%' ESCAPE '\')
			)
		ORDER BY s_max.sort_value DESC
	`, r.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to search HoB entries: %w", err)
	}
	return mergeSorted(oneoff, ongoing), nil
}

// GetEntry fetches one entry by ID; nil when it does not exist.
type GetEntry struct {
	ID uint64
}

func (r GetEntry) Execute(db *sql.DB) (Entry, error) {
	oneoff, err := queryOneOffs(db, oneoffColumns+`WHERE e.id=?1`, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HoB entry: %w", err)
	}
	if len(oneoff) > 0 {
		return oneoff[0], nil
	}

	ongoing, err := queryOngoings(db,
		`SELECT e.id, e.title, e.comment FROM hob_entries_ongoing e WHERE e.id=?1`, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HoB entry: %w", err)
	}
	if len(ongoing) > 0 {
		return ongoing[0], nil
	}
	return nil, nil
}

// GetSubentry fetches one subentry by its ID and parent; nil when missing.
type GetSubentry struct {
	ID      uint64
	EntryID uint64
}

func (r GetSubentry) Execute(db *sql.DB) (*Subentry, error) {
	row := db.QueryRow(`
		SELECT s.player, s.value, s.bingo, s.bingo_kind, m.bingo AS sort_value
		FROM hob_ongoing_subentries s
		LEFT JOIN bingo_kind_id_map m
			ON s.bingo_kind = m.bingo_kind
			AND s.bingo = m.kind_specific_id
		WHERE id=?1 AND entry_id=?2
	`, r.ID, r.EntryID)

	sub := Subentry{ID: r.ID, EntryID: r.EntryID}
	var kindRaw uint8
	var unique sql.NullInt64
	err := row.Scan(&sub.Player, &sub.Value, &sub.Bingo.KindID, &kindRaw, &unique)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HoB subentry: %w", err)
	}
	sub.Bingo.Kind = bingo.KindFromUint8(kindRaw)
	if unique.Valid {
		u := uint8(unique.Int64)
		sub.Bingo.Unique = &u
	}
	return &sub, nil
}

// InsertEntry stores a new entry with its players or subentries in one
// transaction.
type InsertEntry struct {
	Entry Entry
}

func (r InsertEntry) Execute(db *sql.DB) (struct{}, error) {
	tx, err := db.Begin()
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to insert HoB entry: %w", err)
	}
	defer tx.Rollback()

	switch e := r.Entry.(type) {
	case OneOffEntry:
		_, err = tx.Exec(
			`INSERT INTO hob_entries_oneoff (id, title, comment, bingo, bingo_kind) VALUES (?, ?, ?, ?, ?)`,
			e.ID, e.Title, e.Comment, e.Bingo.KindID, uint8(e.Bingo.Kind),
		)
		if err == nil {
			err = insertPlayers(tx, e.ID, e.Players)
		}
	case OngoingEntry:
		_, err = tx.Exec(
			`INSERT INTO hob_entries_ongoing (id, title, comment) VALUES (?, ?, ?)`,
			e.ID, e.Title, e.Comment,
		)
		for _, sub := range e.Subentries {
			if err != nil {
				break
			}
			err = insertSubentry(tx, e.ID, sub)
		}
	default:
		err = fmt.Errorf("unknown entry shape %T", r.Entry)
	}
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to insert HoB entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return struct{}{}, fmt.Errorf("failed to insert HoB entry: %w", err)
	}
	return struct{}{}, nil
}

// InsertSubentry stores one new subentry under an ongoing entry.
type InsertSubentry struct {
	Subentry Subentry
}

func (r InsertSubentry) Execute(db *sql.DB) (struct{}, error) {
	if err := insertSubentry(db, r.Subentry.EntryID, r.Subentry); err != nil {
		return struct{}{}, fmt.Errorf("failed to insert HoB subentry: %w", err)
	}
	return struct{}{}, nil
}

// UpdateEntry upserts an entry's own fields. A one-off's player list is
// replaced wholesale; an ongoing entry's subentries are edited separately.
type UpdateEntry struct {
	Entry Entry
}

func (r UpdateEntry) Execute(db *sql.DB) (struct{}, error) {
	tx, err := db.Begin()
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to update HoB entry: %w", err)
	}
	defer tx.Rollback()

	switch e := r.Entry.(type) {
	case OneOffEntry:
		_, err = tx.Exec(`
			INSERT INTO hob_entries_oneoff (id, title, comment, bingo, bingo_kind)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				comment = excluded.comment,
				bingo = excluded.bingo,
				bingo_kind = excluded.bingo_kind
		`, e.ID, e.Title, e.Comment, e.Bingo.KindID, uint8(e.Bingo.Kind))
		if err == nil {
			_, err = tx.Exec(`DELETE FROM hob_oneoff_players WHERE entry_id=?`, e.ID)
		}
		if err == nil {
			err = insertPlayers(tx, e.ID, e.Players)
		}
	case OngoingEntry:
		_, err = tx.Exec(`
			INSERT INTO hob_entries_ongoing (id, title, comment)
			VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				comment = excluded.comment
		`, e.ID, e.Title, e.Comment)
	default:
		err = fmt.Errorf("unknown entry shape %T", r.Entry)
	}
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to update HoB entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return struct{}{}, fmt.Errorf("failed to update HoB entry: %w", err)
	}
	return struct{}{}, nil
}

// UpdateSubentry upserts a subentry's fields.
type UpdateSubentry struct {
	Subentry Subentry
}

func (r UpdateSubentry) Execute(db *sql.DB) (struct{}, error) {
	_, err := db.Exec(`
		INSERT INTO hob_ongoing_subentries (id, entry_id, player, value, bingo, bingo_kind)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			player = excluded.player,
			value = excluded.value,
			bingo = excluded.bingo,
			bingo_kind = excluded.bingo_kind
	`, r.Subentry.ID, r.Subentry.EntryID, r.Subentry.Player, r.Subentry.Value,
		r.Subentry.Bingo.KindID, uint8(r.Subentry.Bingo.Kind))
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to update HoB subentry: %w", err)
	}
	return struct{}{}, nil
}

// DeleteEntry removes an entry of either shape; children cascade.
type DeleteEntry struct {
	ID uint64
}

func (r DeleteEntry) Execute(db *sql.DB) (struct{}, error) {
	tx, err := db.Begin()
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to delete HoB entry: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM hob_entries_oneoff WHERE id=?`, r.ID)
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to delete HoB entry: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to delete HoB entry: %w", err)
	}
	if deleted == 0 {
		if _, err := tx.Exec(`DELETE FROM hob_entries_ongoing WHERE id=?`, r.ID); err != nil {
			return struct{}{}, fmt.Errorf("failed to delete HoB entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return struct{}{}, fmt.Errorf("failed to delete HoB entry: %w", err)
	}
	return struct{}{}, nil
}

// DeleteSubentry removes one subentry.
type DeleteSubentry struct {
	ID      uint64
	EntryID uint64
}

func (r DeleteSubentry) Execute(db *sql.DB) (struct{}, error) {
	_, err := db.Exec(
		`DELETE FROM hob_ongoing_subentries WHERE id=? AND entry_id=?`, r.ID, r.EntryID,
	)
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to delete HoB subentry: %w", err)
	}
	return struct{}{}, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertPlayers(tx execer, entryID uint64, players PlayerList) error {
	for i, player := range players {
		_, err := tx.Exec(
			`INSERT INTO hob_oneoff_players (entry_id, player, position) VALUES (?, ?, ?)`,
			entryID, player, i,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertSubentry(tx execer, entryID uint64, sub Subentry) error {
	_, err := tx.Exec(`
		INSERT INTO hob_ongoing_subentries (id, entry_id, player, value, bingo, bingo_kind)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sub.ID, entryID, sub.Player, sub.Value, sub.Bingo.KindID, uint8(sub.Bingo.Kind))
	return err
}

func queryOneOffs(db *sql.DB, query string, args ...any) ([]Entry, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e OneOffEntry
		var comment sql.NullString
		var kindRaw uint8
		var unique sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Title, &comment, &e.Bingo.KindID, &kindRaw, &unique); err != nil {
			return nil, err
		}
		e.Comment = comment.String
		e.Bingo.Kind = bingo.KindFromUint8(kindRaw)
		if unique.Valid {
			u := uint8(unique.Int64)
			e.Bingo.Unique = &u
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, raw := range entries {
		e := raw.(OneOffEntry)
		players, err := queryPlayers(db, e.ID)
		if err != nil {
			return nil, err
		}
		e.Players = players
		entries[i] = e
	}
	return entries, nil
}

func queryOngoings(db *sql.DB, query string, args ...any) ([]Entry, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e OngoingEntry
		var comment sql.NullString
		if err := rows.Scan(&e.ID, &e.Title, &comment); err != nil {
			return nil, err
		}
		e.Comment = comment.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, raw := range entries {
		e := raw.(OngoingEntry)
		subs, err := querySubentries(db, e.ID)
		if err != nil {
			return nil, err
		}
		e.Subentries = subs
		entries[i] = e
	}
	return entries, nil
}

func queryPlayers(db *sql.DB, entryID uint64) (PlayerList, error) {
	rows, err := db.Query(
		`SELECT player FROM hob_oneoff_players WHERE entry_id=?1 ORDER BY position ASC`, entryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players PlayerList
	for rows.Next() {
		var player string
		if err := rows.Scan(&player); err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

func querySubentries(db *sql.DB, entryID uint64) ([]Subentry, error) {
	rows, err := db.Query(`
		SELECT s.id, s.entry_id, s.player, s.value, s.bingo, s.bingo_kind, m.bingo AS sort_value
		FROM hob_ongoing_subentries s
		LEFT JOIN bingo_kind_id_map m
			ON s.bingo_kind = m.bingo_kind
			AND s.bingo = m.kind_specific_id
		WHERE s.entry_id=?1
		ORDER BY COALESCE(m.bingo, s.bingo) DESC
	`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subentry
	for rows.Next() {
		var sub Subentry
		var kindRaw uint8
		var unique sql.NullInt64
		if err := rows.Scan(&sub.ID, &sub.EntryID, &sub.Player, &sub.Value,
			&sub.Bingo.KindID, &kindRaw, &unique); err != nil {
			return nil, err
		}
		sub.Bingo.Kind = bingo.KindFromUint8(kindRaw)
		if unique.Valid {
			u := uint8(unique.Int64)
			sub.Bingo.Unique = &u
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// mergeSorted interleaves two lists that are each sorted by event number
// descending, preserving that order overall.
func mergeSorted(a, b []Entry) []Entry {
	merged := make([]Entry, 0, len(a)+len(b))
	for len(a) > 0 && len(b) > 0 {
		if a[0].bingoNum() > b[0].bingoNum() {
			merged = append(merged, a[0])
			a = a[1:]
		} else {
			merged = append(merged, b[0])
			b = b[1:]
		}
	}
	merged = append(merged, a...)
	return append(merged, b...)
}
