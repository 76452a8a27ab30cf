package bingo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/skybingo/bingobot/internal/bingo"
	"github.com/skybingo/bingobot/internal/errs"
	"github.com/skybingo/bingobot/internal/store"
)

func newActor(t *testing.T) *store.Actor {
	t.Helper()
	a, err := store.New(filepath.Join(t.TempDir(), "test.sqlite3"), bingo.Schema)
	if err != nil {
		t.Fatalf("failed to start actor: %v", err)
	}
	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Errorf("failed to close actor: %v", err)
		}
	})
	return a
}

func TestGetCurrentBeforeAnyEvent(t *testing.T) {
	a := newActor(t)

	cur, err := store.Submit(context.Background(), a, bingo.GetCurrent{})
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if cur != nil {
		t.Errorf("expected no registered event, got %+v", cur)
	}
}

func TestSetCurrentUpserts(t *testing.T) {
	a := newActor(t)
	ctx := context.Background()

	for _, want := range []bingo.Current{
		{ID: 14, Starts: 100, Ends: 200},
		{ID: 15, Starts: 300, Ends: 400},
	} {
		if _, err := store.Submit(ctx, a, bingo.SetCurrent(want)); err != nil {
			t.Fatalf("SetCurrent: %v", err)
		}
		cur, err := store.Submit(ctx, a, bingo.GetCurrent{})
		if err != nil {
			t.Fatalf("GetCurrent: %v", err)
		}
		if cur == nil || *cur != want {
			t.Errorf("GetCurrent = %+v, want %+v", cur, want)
		}
	}
}

func TestNetworkFlagRoundTrip(t *testing.T) {
	a := newActor(t)
	ctx := context.Background()

	active, err := store.Submit(ctx, a, bingo.GetNetworkActive{})
	if err != nil {
		t.Fatalf("GetNetworkActive: %v", err)
	}
	if active {
		t.Error("flag should read false before any write")
	}

	if _, err := store.Submit(ctx, a, bingo.SetNetworkActive{Active: true}); err != nil {
		t.Fatalf("SetNetworkActive: %v", err)
	}
	active, err = store.Submit(ctx, a, bingo.GetNetworkActive{})
	if err != nil {
		t.Fatalf("GetNetworkActive: %v", err)
	}
	if !active {
		t.Error("flag should read true after being set")
	}
}

func TestSetCurrentLeavesNetworkFlagAlone(t *testing.T) {
	a := newActor(t)
	ctx := context.Background()

	if _, err := store.Submit(ctx, a, bingo.SetNetworkActive{Active: true}); err != nil {
		t.Fatalf("SetNetworkActive: %v", err)
	}
	if _, err := store.Submit(ctx, a, bingo.SetCurrent{ID: 20, Starts: 1, Ends: 2}); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	active, err := store.Submit(ctx, a, bingo.GetNetworkActive{})
	if err != nil {
		t.Fatalf("GetNetworkActive: %v", err)
	}
	if !active {
		t.Error("updating the event row cleared the network flag")
	}
}

func TestAddMappingAssignsKindSpecificIDs(t *testing.T) {
	a := newActor(t)
	ctx := context.Background()

	first, err := store.Submit(ctx, a, bingo.AddMapping{ID: 21, Kind: bingo.KindExtreme})
	if err != nil {
		t.Fatalf("AddMapping: %v", err)
	}
	if first.KindID != 0 || first.Kind != bingo.KindExtreme {
		t.Errorf("first extreme = kind %d id %d, want extreme #1", first.Kind, first.KindID)
	}
	if first.Unique == nil || *first.Unique != 21 {
		t.Errorf("first extreme Unique = %v, want 21", first.Unique)
	}

	second, err := store.Submit(ctx, a, bingo.AddMapping{ID: 25, Kind: bingo.KindExtreme})
	if err != nil {
		t.Fatalf("AddMapping: %v", err)
	}
	if second.KindID != 1 {
		t.Errorf("second extreme KindID = %d, want 1", second.KindID)
	}

	// Secret numbering is independent of extreme numbering.
	secret, err := store.Submit(ctx, a, bingo.AddMapping{ID: 30, Kind: bingo.KindSecret})
	if err != nil {
		t.Fatalf("AddMapping: %v", err)
	}
	if secret.KindID != 0 {
		t.Errorf("first secret KindID = %d, want 0", secret.KindID)
	}

	normal, err := store.Submit(ctx, a, bingo.AddMapping{ID: 22, Kind: bingo.KindNormal})
	if err != nil {
		t.Fatalf("AddMapping: %v", err)
	}
	if normal.KindID != 22 {
		t.Errorf("normal KindID = %d, want the global number 22", normal.KindID)
	}
}

func TestCompleteDataResolvesMappedAndUnmapped(t *testing.T) {
	a := newActor(t)
	ctx := context.Background()

	if _, err := store.Submit(ctx, a, bingo.AddMapping{ID: 21, Kind: bingo.KindExtreme}); err != nil {
		t.Fatalf("AddMapping: %v", err)
	}

	bingos, err := store.Submit(ctx, a, bingo.CompleteData{IDs: []uint8{14, 21}})
	if err != nil {
		t.Fatalf("CompleteData: %v", err)
	}
	if len(bingos) != 2 {
		t.Fatalf("got %d bingos, want 2", len(bingos))
	}

	if bingos[0].Kind != bingo.KindNormal || bingos[0].KindID != 14 || bingos[0].Unique != nil {
		t.Errorf("unmapped 14 resolved to %+v, want plain normal #14", bingos[0])
	}
	if bingos[1].Kind != bingo.KindExtreme || bingos[1].KindID != 0 {
		t.Errorf("mapped 21 resolved to %+v, want extreme #1", bingos[1])
	}
	if bingos[1].Unique == nil || *bingos[1].Unique != 21 {
		t.Errorf("mapped 21 Unique = %v, want 21", bingos[1].Unique)
	}
}

func TestRawQueryReadOnlyRejectsWrites(t *testing.T) {
	a := newActor(t)
	ctx := context.Background()

	_, err := store.Submit(ctx, a, bingo.RawQueryReadOnly{
		SQL: "DELETE FROM bingo_kind_id_map",
	})
	if !errs.IsUser(err) {
		t.Errorf("expected a user error for a write statement, got %v", err)
	}

	rows, err := store.Submit(ctx, a, bingo.CompleteData{IDs: []uint8{5}})
	if err != nil {
		t.Fatalf("CompleteData: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("table should be intact after the rejected statement")
	}
}

func TestRawQueryReadOnlyFormatsRows(t *testing.T) {
	a := newActor(t)
	ctx := context.Background()

	if _, err := store.Submit(ctx, a, bingo.SetCurrent{ID: 7, Starts: 10, Ends: 20}); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	res, err := store.Submit(ctx, a, bingo.RawQueryReadOnly{
		SQL: "SELECT current_bingo, is_network_bingo FROM current_bingo_global",
	})
	if err != nil {
		t.Fatalf("RawQueryReadOnly: %v", err)
	}

	if len(res.Rows) != 3 {
		t.Fatalf("got %d lines, want header, separator and one row: %v", len(res.Rows), res.Rows)
	}
	if res.Rows[0] != "current_bingo | is_network_bingo" {
		t.Errorf("header = %q", res.Rows[0])
	}
	if res.Rows[2] != "7 | NULL" {
		t.Errorf("row = %q, want %q", res.Rows[2], "7 | NULL")
	}
}

func TestRawBatchExecutesScript(t *testing.T) {
	a := newActor(t)
	ctx := context.Background()

	_, err := store.Submit(ctx, a, bingo.RawBatch{
		SQL: `INSERT INTO bingo_kind_id_map (bingo, bingo_kind, kind_specific_id) VALUES (40, 1, 3);`,
	})
	if err != nil {
		t.Fatalf("RawBatch: %v", err)
	}

	bingos, err := store.Submit(ctx, a, bingo.CompleteData{IDs: []uint8{40}})
	if err != nil {
		t.Fatalf("CompleteData: %v", err)
	}
	if bingos[0].Kind != bingo.KindExtreme || bingos[0].KindID != 3 {
		t.Errorf("got %+v, want extreme #4", bingos[0])
	}
}
