// Package playercache stores facts fetched about a player, keyed by the
// event during which they were last confirmed. A fact recorded during event N
// says nothing about event N+1, so lookups from a later event delete the row
// and report a miss instead of serving it.
//
// Every request here resolves the current event on the borrowed connection
// via bingo.GetCurrent's Execute rather than resubmitting through the actor,
// which would deadlock its single consumer.
package playercache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skybingo/bingobot/internal/bingo"
)

// profileTTL bounds how long a raw profile endpoint response is reused.
const profileTTL = 60 * time.Second

// Schema creates the cache tables. The raw profile cache is time-based
// rather than event-based, so it is cleared on every startup.
func Schema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS role_completions_cache (
			uuid TEXT PRIMARY KEY,
			updated_after_bingo INTEGER NOT NULL,
			bingo_set BLOB
		);

		CREATE TABLE IF NOT EXISTS role_bingo_rank_cache (
			uuid TEXT PRIMARY KEY,
			updated_after_bingo INTEGER NOT NULL,
			rank INTEGER NOT NULL
		);

		-- The immortal fact is a one-way latch: once recorded true it is
		-- never invalidated, whatever the current event is.
		CREATE TABLE IF NOT EXISTS role_immortal_cache (
			uuid TEXT PRIMARY KEY,
			updated_after_bingo INTEGER NOT NULL,
			has_achieved INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS role_network_bingo_cache (
			uuid TEXT PRIMARY KEY,
			updated_after_bingo INTEGER NOT NULL,
			bingo_set BLOB
		);

		CREATE TABLE IF NOT EXISTS role_player_endpoint_cache (
			uuid TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			json TEXT
		);
		DELETE FROM role_player_endpoint_cache;
	`)
	if err != nil {
		return fmt.Errorf("failed to create player cache tables: %w", err)
	}
	return nil
}

// currentEpoch reads the current event ID on the borrowed connection. No
// registered event counts as epoch zero, which every stored row satisfies.
func currentEpoch(db *sql.DB) (uint8, error) {
	current, err := bingo.GetCurrent{}.Execute(db)
	if err != nil {
		return 0, err
	}
	if current == nil {
		return 0, nil
	}
	return current.ID, nil
}

// lookupSet reads one event-stamped bitset row, deleting it when it was
// written during an earlier event. A nil result is a miss.
func lookupSet(db *sql.DB, table, uuid string) (*bingo.BitSet, error) {
	currentBingo, err := currentEpoch(db)
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(
		`SELECT updated_after_bingo, bingo_set FROM `+table+` WHERE uuid=?`, uuid,
	)

	var updatedAfter uint8
	var data []byte
	if err := row.Scan(&updatedAfter, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	if currentBingo > updatedAfter {
		if _, err := db.Exec(`DELETE FROM `+table+` WHERE uuid=?`, uuid); err != nil {
			return nil, fmt.Errorf("failed to drop stale %s row: %w", table, err)
		}
		return nil, nil
	}

	set := bingo.BitSetFromBytes(data)
	return &set, nil
}

func insertSet(db *sql.DB, table, uuid string, set bingo.BitSet) error {
	currentBingo, err := currentEpoch(db)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT OR REPLACE INTO `+table+` (uuid, updated_after_bingo, bingo_set) VALUES (?, ?, ?)`,
		uuid, currentBingo, set.Data,
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", table, err)
	}
	return nil
}

// CachedCompletions looks up a player's cached event completion set.
type CachedCompletions struct {
	UUID string
}

func (r CachedCompletions) Execute(db *sql.DB) (*bingo.BitSet, error) {
	return lookupSet(db, "role_completions_cache", r.UUID)
}

// CachedNetworkBingos looks up a player's cached network completion set.
type CachedNetworkBingos struct {
	UUID string
}

func (r CachedNetworkBingos) Execute(db *sql.DB) (*bingo.BitSet, error) {
	return lookupSet(db, "role_network_bingo_cache", r.UUID)
}

// CachedRank looks up a player's cached rank tier.
type CachedRank struct {
	UUID string
}

func (r CachedRank) Execute(db *sql.DB) (*uint8, error) {
	currentBingo, err := currentEpoch(db)
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(
		`SELECT updated_after_bingo, rank FROM role_bingo_rank_cache WHERE uuid=?`, r.UUID,
	)

	var updatedAfter, rank uint8
	if err := row.Scan(&updatedAfter, &rank); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read role_bingo_rank_cache: %w", err)
	}

	if currentBingo > updatedAfter {
		if _, err := db.Exec(`DELETE FROM role_bingo_rank_cache WHERE uuid=?`, r.UUID); err != nil {
			return nil, fmt.Errorf("failed to drop stale role_bingo_rank_cache row: %w", err)
		}
		return nil, nil
	}
	return &rank, nil
}

// CachedImmortal looks up the latched immortal fact. A stale row is only
// dropped when it recorded false; a true row answers at any later event.
type CachedImmortal struct {
	UUID string
}

func (r CachedImmortal) Execute(db *sql.DB) (*bool, error) {
	currentBingo, err := currentEpoch(db)
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(
		`SELECT updated_after_bingo, has_achieved FROM role_immortal_cache WHERE uuid=?`, r.UUID,
	)

	var updatedAfter uint8
	var achieved bool
	if err := row.Scan(&updatedAfter, &achieved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read role_immortal_cache: %w", err)
	}

	if currentBingo > updatedAfter && !achieved {
		if _, err := db.Exec(`DELETE FROM role_immortal_cache WHERE uuid=?`, r.UUID); err != nil {
			return nil, fmt.Errorf("failed to drop stale role_immortal_cache row: %w", err)
		}
		return nil, nil
	}
	return &achieved, nil
}

// CachedProfileJSON looks up a recent raw profile endpoint response.
type CachedProfileJSON struct {
	UUID string
}

func (r CachedProfileJSON) Execute(db *sql.DB) (*string, error) {
	row := db.QueryRow(
		`SELECT timestamp, json FROM role_player_endpoint_cache WHERE uuid=?`, r.UUID,
	)

	var timestamp int64
	var payload string
	if err := row.Scan(&timestamp, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read role_player_endpoint_cache: %w", err)
	}

	if time.Now().Unix() > timestamp+int64(profileTTL.Seconds()) {
		if _, err := db.Exec(`DELETE FROM role_player_endpoint_cache WHERE uuid=?`, r.UUID); err != nil {
			return nil, fmt.Errorf("failed to drop stale role_player_endpoint_cache row: %w", err)
		}
		return nil, nil
	}
	return &payload, nil
}

// PutCompletions records a player's completion set as of the current event.
type PutCompletions struct {
	UUID        string
	Completions bingo.BitSet
}

func (r PutCompletions) Execute(db *sql.DB) (struct{}, error) {
	return struct{}{}, insertSet(db, "role_completions_cache", r.UUID, r.Completions)
}

// PutNetworkBingos records a player's network completion set as of the
// current event.
type PutNetworkBingos struct {
	UUID        string
	Completions bingo.BitSet
}

func (r PutNetworkBingos) Execute(db *sql.DB) (struct{}, error) {
	return struct{}{}, insertSet(db, "role_network_bingo_cache", r.UUID, r.Completions)
}

// PutRank records a player's rank tier as of the current event.
type PutRank struct {
	UUID string
	Rank uint8
}

func (r PutRank) Execute(db *sql.DB) (struct{}, error) {
	currentBingo, err := currentEpoch(db)
	if err != nil {
		return struct{}{}, err
	}
	_, err = db.Exec(`
		INSERT OR REPLACE INTO role_bingo_rank_cache (uuid, updated_after_bingo, rank)
		VALUES (?, ?, ?)
	`, r.UUID, currentBingo, r.Rank)
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to cache rank: %w", err)
	}
	return struct{}{}, nil
}

// PutImmortal records the immortal fact as of the current event.
type PutImmortal struct {
	UUID     string
	Achieved bool
}

func (r PutImmortal) Execute(db *sql.DB) (struct{}, error) {
	currentBingo, err := currentEpoch(db)
	if err != nil {
		return struct{}{}, err
	}
	_, err = db.Exec(`
		INSERT OR REPLACE INTO role_immortal_cache (uuid, updated_after_bingo, has_achieved)
		VALUES (?, ?, ?)
	`, r.UUID, currentBingo, r.Achieved)
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to cache immortal status: %w", err)
	}
	return struct{}{}, nil
}

// PutProfileJSON records a raw profile endpoint response.
type PutProfileJSON struct {
	UUID      string
	Timestamp int64
	JSON      string
}

func (r PutProfileJSON) Execute(db *sql.DB) (struct{}, error) {
	_, err := db.Exec(`
		INSERT OR REPLACE INTO role_player_endpoint_cache (uuid, timestamp, json)
		VALUES (?, ?, ?)
	`, r.UUID, r.Timestamp, r.JSON)
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to cache profile response: %w", err)
	}
	return struct{}{}, nil
}
