// Package roles derives a player's earned facts (blackouts, rank tier,
// immortal status, network event completions) and manages the link between
// Discord accounts and Minecraft profiles that gates role requests.
package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skybingo/bingobot/internal/store"
)

// Schema creates the account-link table. Both columns are unique: one Discord
// account links to at most one profile and vice versa.
func Schema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS role_users_linked (
			discord_id INTEGER NOT NULL UNIQUE,
			minecraft_uuid TEXT NOT NULL UNIQUE
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create link table: %w", err)
	}
	return nil
}

// LinkedUser pairs a Discord account with a Minecraft profile.
type LinkedUser struct {
	Discord uint64
	UUID    string
}

// GetLinkedByDiscord fetches the link for a Discord account; nil when the
// account has none.
type GetLinkedByDiscord struct {
	Discord uint64
}

func (r GetLinkedByDiscord) Execute(db *sql.DB) (*LinkedUser, error) {
	row := db.QueryRow(
		`SELECT minecraft_uuid FROM role_users_linked WHERE discord_id=?1`, r.Discord,
	)
	user := LinkedUser{Discord: r.Discord}
	err := row.Scan(&user.UUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch linked user: %w", err)
	}
	return &user, nil
}

// GetLinkedByMinecraft fetches the link for a profile; nil when it has none.
type GetLinkedByMinecraft struct {
	UUID string
}

func (r GetLinkedByMinecraft) Execute(db *sql.DB) (*LinkedUser, error) {
	row := db.QueryRow(
		`SELECT discord_id FROM role_users_linked WHERE minecraft_uuid=?1`, r.UUID,
	)
	user := LinkedUser{UUID: r.UUID}
	err := row.Scan(&user.Discord)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch linked user: %w", err)
	}
	return &user, nil
}

// LinkConflict reports why an insert was refused: the Discord account already
// links elsewhere (UUID set) or the profile does (Discord set). Both nil
// means the link was stored.
type LinkConflict struct {
	Discord *uint64
	UUID    *string
}

// InsertLinked stores a new link unless either side is already taken.
type InsertLinked struct {
	User LinkedUser
}

func (r InsertLinked) Execute(db *sql.DB) (LinkConflict, error) {
	tx, err := db.Begin()
	if err != nil {
		return LinkConflict{}, fmt.Errorf("failed to link accounts: %w", err)
	}
	defer tx.Rollback()

	var existingUUID string
	err = tx.QueryRow(
		`SELECT minecraft_uuid FROM role_users_linked WHERE discord_id=?1`, r.User.Discord,
	).Scan(&existingUUID)
	if err == nil {
		return LinkConflict{UUID: &existingUUID}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return LinkConflict{}, fmt.Errorf("failed to link accounts: %w", err)
	}

	var existingDiscord uint64
	err = tx.QueryRow(
		`SELECT discord_id FROM role_users_linked WHERE minecraft_uuid=?1`, r.User.UUID,
	).Scan(&existingDiscord)
	if err == nil {
		return LinkConflict{Discord: &existingDiscord}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return LinkConflict{}, fmt.Errorf("failed to link accounts: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO role_users_linked (discord_id, minecraft_uuid) VALUES (?1, ?2)`,
		r.User.Discord, r.User.UUID,
	)
	if err != nil {
		return LinkConflict{}, fmt.Errorf("failed to link accounts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return LinkConflict{}, fmt.Errorf("failed to link accounts: %w", err)
	}
	return LinkConflict{}, nil
}

// UpdateLinked replaces whatever links either side had with the given pair.
type UpdateLinked struct {
	User LinkedUser
}

func (r UpdateLinked) Execute(db *sql.DB) (struct{}, error) {
	tx, err := db.Begin()
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to relink accounts: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`DELETE FROM role_users_linked WHERE discord_id=?1 OR minecraft_uuid=?2`,
		r.User.Discord, r.User.UUID,
	)
	if err == nil {
		_, err = tx.Exec(
			`INSERT INTO role_users_linked (discord_id, minecraft_uuid) VALUES (?1, ?2)`,
			r.User.Discord, r.User.UUID,
		)
	}
	if err != nil {
		return struct{}{}, fmt.Errorf("failed to relink accounts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return struct{}{}, fmt.Errorf("failed to relink accounts: %w", err)
	}
	return struct{}{}, nil
}

// RemoveLinkedByDiscord drops a Discord account's link, returning what it
// pointed at; nil when there was none.
type RemoveLinkedByDiscord struct {
	Discord uint64
}

func (r RemoveLinkedByDiscord) Execute(db *sql.DB) (*LinkedUser, error) {
	row := db.QueryRow(
		`DELETE FROM role_users_linked WHERE discord_id=?1 RETURNING minecraft_uuid`, r.Discord,
	)
	user := LinkedUser{Discord: r.Discord}
	err := row.Scan(&user.UUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unlink account: %w", err)
	}
	return &user, nil
}

// RemoveLinkedByMinecraft drops a profile's link, returning what it pointed
// at; nil when there was none.
type RemoveLinkedByMinecraft struct {
	UUID string
}

func (r RemoveLinkedByMinecraft) Execute(db *sql.DB) (*LinkedUser, error) {
	row := db.QueryRow(
		`DELETE FROM role_users_linked WHERE minecraft_uuid=?1 RETURNING discord_id`, r.UUID,
	)
	user := LinkedUser{UUID: r.UUID}
	err := row.Scan(&user.Discord)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unlink account: %w", err)
	}
	return &user, nil
}

// LinkOutcome classifies a link attempt.
type LinkOutcome uint8

const (
	// LinkNoDiscord: the Hypixel profile has no Discord account set.
	LinkNoDiscord LinkOutcome = iota
	// LinkDifferentDiscord: the profile's Discord account is someone else.
	LinkDifferentDiscord
	// LinkDuplicateMinecraft: the Discord account already links to another
	// profile.
	LinkDuplicateMinecraft
	// LinkDuplicateDiscord: the profile already links to another Discord
	// account. The caller proved profile ownership, so offering an unlink of
	// the stale entry is safe.
	LinkDuplicateDiscord
	// LinkSuccess: the link was stored.
	LinkSuccess
)

// LinkStatus is the result of a link attempt with whatever context the
// outcome needs to be explained to the user.
type LinkStatus struct {
	Outcome LinkOutcome
	// UUID of the profile the user tried to link, set on every outcome past
	// the username lookup.
	UUID string
	// OtherDiscordName is the profile's actual Discord account on
	// LinkDifferentDiscord.
	OtherDiscordName string
	// OtherUsername is the already-linked profile's name on
	// LinkDuplicateMinecraft.
	OtherUsername string
	// OtherDiscordID is the already-linked account on LinkDuplicateDiscord.
	OtherDiscordID uint64
}

// LinkAccount verifies through the Hypixel API that the caller owns the named
// profile, then stores the link. Ownership means the profile's Discord field
// matches the caller's account name.
func (s *Service) LinkAccount(ctx context.Context, discordID uint64, discordName, minecraftName string) (LinkStatus, error) {
	playerUUID, err := s.API.UUID(ctx, minecraftName)
	if err != nil {
		return LinkStatus{}, err
	}

	linked, err := s.API.LinkedDiscord(ctx, playerUUID)
	if err != nil {
		return LinkStatus{}, err
	}
	if linked == nil {
		return LinkStatus{Outcome: LinkNoDiscord, UUID: playerUUID}, nil
	}
	if *linked != discordName {
		return LinkStatus{
			Outcome:          LinkDifferentDiscord,
			UUID:             playerUUID,
			OtherDiscordName: *linked,
		}, nil
	}

	conflict, err := store.Submit(ctx, s.DB, InsertLinked{
		User: LinkedUser{Discord: discordID, UUID: playerUUID},
	})
	if err != nil {
		return LinkStatus{}, err
	}
	if conflict.UUID != nil {
		otherName, err := s.API.Username(ctx, *conflict.UUID)
		if err != nil {
			return LinkStatus{}, err
		}
		return LinkStatus{
			Outcome:       LinkDuplicateMinecraft,
			UUID:          playerUUID,
			OtherUsername: otherName,
		}, nil
	}
	if conflict.Discord != nil {
		return LinkStatus{
			Outcome:        LinkDuplicateDiscord,
			UUID:           playerUUID,
			OtherDiscordID: *conflict.Discord,
		}, nil
	}
	return LinkStatus{Outcome: LinkSuccess, UUID: playerUUID}, nil
}
