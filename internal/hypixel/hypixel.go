// Package hypixel fetches player facts from the Hypixel and Mojang APIs. It
// is the only place the process talks to the outside world for data; every
// result is handed to callers who decide what to persist.
package hypixel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/skybingo/bingobot/internal/bingo"
	"github.com/skybingo/bingobot/internal/playercache"
	"github.com/skybingo/bingobot/internal/store"
)

// Provider is the fact-provider boundary consumed by the role flows. Fetches
// may fail transiently; callers surface those failures and never cache them.
type Provider interface {
	UUID(ctx context.Context, username string) (string, error)
	Username(ctx context.Context, playerUUID string) (string, error)
	LinkedDiscord(ctx context.Context, playerUUID string) (*string, error)
	UpdateCurrentBingo(ctx context.Context) (CurrentBingo, error)
	BingoCompletions(ctx context.Context, playerUUID string) ([]uint8, error)
	NetworkBingoCompletions(ctx context.Context, playerUUID string) ([]NetworkBingo, error)
	BingoProfile(ctx context.Context, playerUUID string) (*Profile, error)
}

// CurrentBingo is the authoritative answer about the running event.
type CurrentBingo struct {
	Bingo bingo.Bingo
	Ends  int64
}

// Ended reports whether the event is already over.
func (c CurrentBingo) Ended() bool {
	return time.Now().Unix() > c.Ends
}

// Profile carries the bingo-profile facts the role flows derive roles from.
type Profile struct {
	HasDeaths     bool
	CreatedDuring uint8
	Rank          uint8
}

// Client implements Provider over HTTP. The store actor is used for the raw
// player endpoint cache: Hypixel rate-limits repeated fetches of the same
// player to one per minute on application keys.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	hypixelBase string
	mojangBase  string
	db          *store.Actor
}

// NewClient builds a provider authenticating with the given API key.
func NewClient(apiKey string, db *store.Actor) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		apiKey:      apiKey,
		hypixelBase: "https://api.hypixel.net",
		mojangBase:  "https://api.minecraftservices.com",
		db:          db,
	}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// queryAPI performs an authenticated Hypixel API call and checks the success
// envelope. It returns both the decoded document and the raw body, so callers
// that cache the response store exactly what was received.
func (c *Client) queryAPI(ctx context.Context, endpoint string, params url.Values) (map[string]any, string, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.apiKey)

	body, _, err := c.get(ctx, c.hypixelBase+endpoint+"?"+params.Encode())
	if err != nil {
		return nil, "", err
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, "", fmt.Errorf("unexpected API response: %w", err)
	}

	success, ok := doc["success"].(bool)
	if !ok {
		return nil, "", fmt.Errorf("unsuccessful API request: no success indicator received")
	}
	if !success {
		if cause, ok := doc["cause"].(string); ok {
			return nil, "", fmt.Errorf("unsuccessful API request: %s", cause)
		}
		return nil, "", fmt.Errorf("unsuccessful API request")
	}
	return doc, string(body), nil
}

// UpdateCurrentBingo fetches the running event, records it as the current
// epoch, and registers its kind mapping.
func (c *Client) UpdateCurrentBingo(ctx context.Context) (CurrentBingo, error) {
	doc, _, err := c.queryAPI(ctx, "/v2/resources/skyblock/bingo", nil)
	if err != nil {
		return CurrentBingo{}, fmt.Errorf("failed to fetch current bingo: %w", err)
	}

	id, ok := jsonNumber(doc["id"])
	if !ok {
		return CurrentBingo{}, fmt.Errorf("no bingo ID found for current bingo")
	}

	modifier, _ := doc["modifier"].(string)
	var kind bingo.Kind
	switch modifier {
	case "EXTREME":
		kind = bingo.KindExtreme
	case "SECRET":
		kind = bingo.KindSecret
	default:
		kind = bingo.KindNormal
	}

	start, ok := jsonNumber(doc["start"])
	if !ok {
		return CurrentBingo{}, fmt.Errorf("no start time found for current bingo")
	}
	end, ok := jsonNumber(doc["end"])
	if !ok {
		return CurrentBingo{}, fmt.Errorf("no end time found for current bingo")
	}
	starts, ends := start/1000, end/1000

	if _, err := store.Submit(ctx, c.db, bingo.SetCurrent{
		ID: uint8(id), Starts: starts, Ends: ends,
	}); err != nil {
		return CurrentBingo{}, err
	}
	mapped, err := store.Submit(ctx, c.db, bingo.AddMapping{ID: uint8(id), Kind: kind})
	if err != nil {
		return CurrentBingo{}, err
	}

	return CurrentBingo{Bingo: mapped, Ends: ends}, nil
}

// playerEndpoint returns the /v2/player document for a player, served from
// the short-lived cache when a recent copy exists.
func (c *Client) playerEndpoint(ctx context.Context, playerUUID string) (map[string]any, error) {
	cached, err := store.Submit(ctx, c.db, playercache.CachedProfileJSON{UUID: playerUUID})
	if err != nil {
		return nil, err
	}
	if cached != nil {
		var doc map[string]any
		if err := json.Unmarshal([]byte(*cached), &doc); err != nil {
			return nil, fmt.Errorf("unexpected cached player response: %w", err)
		}
		return doc, nil
	}

	doc, raw, err := c.queryAPI(ctx, "/v2/player", url.Values{"uuid": {playerUUID}})
	if err != nil {
		return nil, err
	}
	if _, err := store.Submit(ctx, c.db, playercache.PutProfileJSON{
		UUID: playerUUID, Timestamp: time.Now().Unix(), JSON: raw,
	}); err != nil {
		return nil, err
	}
	return doc, nil
}

// LinkedDiscord returns the Discord handle a player has linked on Hypixel,
// or nil when none is set.
func (c *Client) LinkedDiscord(ctx context.Context, playerUUID string) (*string, error) {
	doc, err := c.playerEndpoint(ctx, playerUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid response from Hypixel's API: %w", err)
	}

	linked, ok := jsonPath(doc, "player", "socialMedia", "links", "DISCORD").(string)
	if !ok {
		return nil, nil
	}
	return &linked, nil
}

// BingoCompletions returns the IDs of every event the player fully completed.
// A player who has never touched bingo yields an empty list, because the
// endpoint errors for them rather than answering with no events.
func (c *Client) BingoCompletions(ctx context.Context, playerUUID string) ([]uint8, error) {
	doc, _, err := c.queryAPI(ctx, "/v2/skyblock/bingo", url.Values{"uuid": {playerUUID}})
	if err != nil {
		slog.Warn("no bingo data for player",
			slog.String("uuid", playerUUID),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	events, _ := doc["events"].([]any)
	var completed []uint8
	for _, raw := range events {
		event, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		goals, _ := event["completed_goals"].([]any)
		if len(goals) != 20 {
			continue
		}
		if key, ok := jsonNumber(event["key"]); ok && key >= 0 && key <= 255 {
			completed = append(completed, uint8(key))
		}
	}
	return completed, nil
}

// NetworkBingoCompletions returns the network-wide events the player has
// blacked out, derived from the player endpoint's seasonal stats.
func (c *Client) NetworkBingoCompletions(ctx context.Context, playerUUID string) ([]NetworkBingo, error) {
	doc, err := c.playerEndpoint(ctx, playerUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid response from Hypixel's API: %w", err)
	}
	seasonal, _ := jsonPath(doc, "player", "seasonal").(map[string]any)
	return networkBingoCompletions(seasonal), nil
}

// BingoProfile reads the player's bingo profile, or nil when they have none.
func (c *Client) BingoProfile(ctx context.Context, playerUUID string) (*Profile, error) {
	profilesDoc, _, err := c.queryAPI(ctx, "/v2/skyblock/profiles", url.Values{"uuid": {playerUUID}})
	if err != nil {
		return nil, fmt.Errorf("invalid response from Hypixel's API: %w", err)
	}

	var profileID string
	profiles, _ := profilesDoc["profiles"].([]any)
	for _, raw := range profiles {
		p, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if mode, _ := p["game_mode"].(string); mode != "bingo" {
			continue
		}
		if id, ok := p["profile_id"].(string); ok {
			profileID = id
			break
		}
	}
	if profileID == "" {
		return nil, nil
	}

	doc, _, err := c.queryAPI(ctx, "/v2/skyblock/profile", url.Values{"profile": {profileID}})
	if err != nil {
		return nil, fmt.Errorf("invalid response from Hypixel's API: %w", err)
	}
	member, _ := jsonPath(doc, "profile", "members", playerUUID).(map[string]any)

	deaths, _ := jsonPath(member, "bestiary", "deaths").(map[string]any)
	hasDeaths := len(deaths) > 0

	var rank uint8
	pets, _ := jsonPath(member, "pets_data", "pets").([]any)
	for _, raw := range pets {
		pet, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if petType, _ := pet["type"].(string); petType != "BINGO" {
			continue
		}
		tier, _ := pet["tier"].(string)
		switch tier {
		case "MYTHIC":
			rank = 5
		case "LEGENDARY":
			rank = 4
		case "EPIC":
			rank = 3
		case "RARE":
			rank = 2
		case "UNCOMMON":
			rank = 1
		}
		break
	}

	var createdAt int64
	if ms, ok := jsonNumber(jsonPath(doc, "profile", "created_at")); ok {
		createdAt = ms / 1000
	}

	return &Profile{
		HasDeaths:     hasDeaths,
		CreatedDuring: BingoIDFromTimestamp(createdAt),
		Rank:          rank,
	}, nil
}

// BingoIDFromTimestamp derives the event ID a moment belongs to. Events run
// monthly starting December 2021, and the math deliberately stays in UTC: the
// 4-5h UTC-EST gap absorbs the occasional 1h shift Hypixel has around DST.
func BingoIDFromTimestamp(timestamp int64) uint8 {
	const firstBingoIndex = 2021*12 + 12

	t := time.Unix(timestamp, 0).UTC()
	index := t.Year()*12 + int(t.Month())
	if index <= firstBingoIndex {
		return 0
	}
	return uint8(index - firstBingoIndex)
}

// jsonPath walks nested objects, returning nil as soon as a key is missing.
func jsonPath(doc map[string]any, keys ...string) any {
	var current any = doc
	for _, key := range keys {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[key]
	}
	return current
}

func jsonNumber(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int64(f), true
}
