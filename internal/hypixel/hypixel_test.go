package hypixel

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skybingo/bingobot/internal/bingo"
	"github.com/skybingo/bingobot/internal/errs"
	"github.com/skybingo/bingobot/internal/playercache"
	"github.com/skybingo/bingobot/internal/store"
)

const testUUID = "3fa85f6457174562b3fc2c963f66afa6"

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	a, err := store.New(filepath.Join(t.TempDir(), "test.sqlite3"), bingo.Schema, playercache.Schema)
	if err != nil {
		t.Fatalf("failed to start actor: %v", err)
	}
	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Errorf("failed to close actor: %v", err)
		}
	})

	c := NewClient("test-key", a)
	if server != nil {
		c.hypixelBase = server.URL
		c.mojangBase = server.URL
	}
	return c
}

func TestBingoIDFromTimestamp(t *testing.T) {
	cases := []struct {
		date string
		want uint8
	}{
		{"2021-12-15", 0},
		{"2022-01-02", 1},
		{"2023-04-20", 16},
		{"2024-06-15", 30},
		{"1970-01-01", 0},
	}

	for _, tc := range cases {
		moment, err := time.Parse("2006-01-02", tc.date)
		if err != nil {
			t.Fatalf("bad test date %q: %v", tc.date, err)
		}
		if got := BingoIDFromTimestamp(moment.Unix()); got != tc.want {
			t.Errorf("BingoIDFromTimestamp(%s) = %d, want %d", tc.date, got, tc.want)
		}
	}
}

func TestValidUsername(t *testing.T) {
	for _, name := range []string{"Steve", "a_b_c", "x1234567890abcde"} {
		if !validUsername(name) {
			t.Errorf("expected %q to be valid", name)
		}
	}
	for _, name := range []string{"", "name with spaces", "waytoolongusername", "bad-char"} {
		if validUsername(name) {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}

func TestUUIDRejectsBadUsernameAsUserError(t *testing.T) {
	c := newTestClient(t, nil)
	_, err := c.UUID(context.Background(), "not a name")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errs.IsUser(err) {
		t.Fatalf("expected a user error, got %v", err)
	}
}

func TestUUIDNormalizesDashes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"3fa85f64-5717-4562-b3fc-2c963f66afa6","name":"Steve"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	got, err := c.UUID(context.Background(), "Steve")
	if err != nil {
		t.Fatalf("UUID failed: %v", err)
	}
	if got != testUUID {
		t.Errorf("got %q, want %q", got, testUUID)
	}
}

func TestBingoCompletionsParsesFullEvents(t *testing.T) {
	goals := `[`
	for i := 0; i < 20; i++ {
		if i > 0 {
			goals += ","
		}
		goals += fmt.Sprintf("%d", i)
	}
	goals += `]`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"success":true,"events":[
			{"key":12,"completed_goals":%s},
			{"key":13,"completed_goals":[1,2,3]},
			{"key":15,"completed_goals":%s}
		]}`, goals, goals)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	got, err := c.BingoCompletions(context.Background(), testUUID)
	if err != nil {
		t.Fatalf("BingoCompletions failed: %v", err)
	}
	want := []uint8{12, 15}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestBingoCompletionsToleratesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"cause":"No bingo data could be found"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	got, err := c.BingoCompletions(context.Background(), testUUID)
	if err != nil {
		t.Fatalf("expected the error to be swallowed, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no completions, got %v", got)
	}
}

func TestLinkedDiscordUsesEndpointCache(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"success":true,"player":{"socialMedia":{"links":{"DISCORD":"steve#0001"}}}}`)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		linked, err := c.LinkedDiscord(ctx, testUUID)
		if err != nil {
			t.Fatalf("LinkedDiscord failed: %v", err)
		}
		if linked == nil || *linked != "steve#0001" {
			t.Fatalf("got %v, want steve#0001", linked)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("expected one upstream fetch, got %d", hits.Load())
	}
}

func TestLinkedDiscordNilWhenUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"player":{}}`)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	linked, err := c.LinkedDiscord(context.Background(), testUUID)
	if err != nil {
		t.Fatalf("LinkedDiscord failed: %v", err)
	}
	if linked != nil {
		t.Fatalf("expected nil, got %q", *linked)
	}
}

func blackout(keys ...string) map[string]any {
	doc := map[string]any{}
	for _, key := range keys {
		doc[key] = map[string]any{"rewards": []any{"black_out"}}
	}
	return doc
}

func TestNetworkBingoCompletionsFromSeasonal(t *testing.T) {
	seasonal := map[string]any{
		"halloween": map[string]any{
			"2023": map[string]any{"bingo": blackout("easy", "medium", "hard")},
			// Hard missing, must not count.
			"2024": map[string]any{"bingo": blackout("easy", "medium")},
		},
		"easter": map[string]any{
			"2025": map[string]any{"bingo": blackout("pvp_easy", "classic_hard")},
		},
	}

	got := networkBingoCompletions(seasonal)
	want := []NetworkBingo{Halloween2023, Anniversary2025}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNetworkBingoCompletionsEmptySeasonal(t *testing.T) {
	if got := networkBingoCompletions(nil); len(got) != 0 {
		t.Fatalf("expected none, got %v", got)
	}
}

func TestUpdateCurrentBingoRecordsEpoch(t *testing.T) {
	ends := time.Now().Add(time.Hour).UnixMilli()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"success":true,"id":33,"modifier":"EXTREME","start":1,"end":%d}`, ends)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	ctx := context.Background()

	current, err := c.UpdateCurrentBingo(ctx)
	if err != nil {
		t.Fatalf("UpdateCurrentBingo failed: %v", err)
	}
	if current.Bingo.Kind != bingo.KindExtreme {
		t.Errorf("got kind %v, want extreme", current.Bingo.Kind)
	}
	if current.Ended() {
		t.Error("an event ending in an hour must not report ended")
	}

	stored, err := store.Submit(ctx, c.db, bingo.GetCurrent{})
	if err != nil {
		t.Fatalf("GetCurrent failed: %v", err)
	}
	if stored == nil || stored.ID != 33 {
		t.Fatalf("expected stored bingo 33, got %v", stored)
	}
}
