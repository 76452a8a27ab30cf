package hob

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skybingo/bingobot/internal/bingo"
	"github.com/skybingo/bingobot/internal/discord"
	"github.com/skybingo/bingobot/internal/errs"
	"github.com/skybingo/bingobot/internal/session"
	"github.com/skybingo/bingobot/internal/store"
)

type fakeMessenger struct {
	mu       sync.Mutex
	nextID   uint64
	messages map[discord.MessageRef]discord.Menu
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{messages: make(map[discord.MessageRef]discord.Menu)}
}

func (m *fakeMessenger) Send(_ context.Context, channelID uint64, menu discord.Menu) (discord.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ref := discord.MessageRef{ChannelID: channelID, MessageID: m.nextID}
	m.messages[ref] = menu
	return ref, nil
}

func (m *fakeMessenger) Edit(_ context.Context, ref discord.MessageRef, menu discord.Menu) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[ref]; !ok {
		return fmt.Errorf("no such message %v", ref)
	}
	m.messages[ref] = menu
	return nil
}

func (m *fakeMessenger) Fetch(_ context.Context, ref discord.MessageRef) (discord.Menu, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	menu, ok := m.messages[ref]
	if !ok {
		return discord.Menu{}, fmt.Errorf("no such message %v", ref)
	}
	return menu, nil
}

func (m *fakeMessenger) get(ref discord.MessageRef) discord.Menu {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[ref]
}

func newEnv(t *testing.T) (*Env, *fakeMessenger) {
	t.Helper()
	a, err := store.New(filepath.Join(t.TempDir(), "hob.db"), bingo.Schema, Schema)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	messenger := newFakeMessenger()
	return &Env{
		DB:        a,
		Messenger: messenger,
		Sessions:  session.NewRegistry[Session](),
		Timeout:   time.Minute,
	}, messenger
}

func seedOneOffs(t *testing.T, e *Env, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := store.Submit(context.Background(), e.DB, InsertEntry{Entry: OneOffEntry{
			ID:      uint64(i),
			Title:   fmt.Sprintf("Feat %d", i),
			Bingo:   bingo.Bingo{KindID: uint8(i)},
			Players: PlayerList{"player_" + fmt.Sprint(i)},
		}})
		require.NoError(t, err)
	}
}

func click(t *testing.T, e *Env, menuID uint64, action string) Response {
	t.Helper()
	resp, err := e.HandleInteraction(context.Background(), Interaction{
		CustomID: fmt.Sprintf("hob:%d:%s", menuID, action),
		UserID:   1,
		UserName: "alice",
	})
	require.NoError(t, err)
	return resp
}

func submit(t *testing.T, e *Env, menuID uint64, action string, inputs map[string]string) Response {
	t.Helper()
	resp, err := e.HandleInteraction(context.Background(), Interaction{
		CustomID: fmt.Sprintf("hob:%d:%s", menuID, action),
		UserID:   1,
		UserName: "alice",
		Inputs:   inputs,
	})
	require.NoError(t, err)
	return resp
}

func menuState(t *testing.T, e *Env, menuID uint64) State {
	t.Helper()
	h, ok := e.Sessions.Get(menuID)
	require.True(t, ok)
	sess := h.Acquire()
	defer h.Release()
	return sess.State
}

func TestBrowseDrillDownAndBack(t *testing.T) {
	env, _ := newEnv(t)
	seedOneOffs(t, env, 8)

	menuID, err := env.StartSession(context.Background(), 100, 1, "alice")
	require.NoError(t, err)

	resp := click(t, env, menuID, "goto_page:next")
	require.NotNil(t, resp.Update)
	st := menuState(t, env, menuID).(*SelectEntryState)
	require.Equal(t, 1, st.Page)

	click(t, env, menuID, "view_entry:3")
	view := menuState(t, env, menuID).(*ViewEntryState)
	require.Equal(t, uint64(3), view.ID)

	click(t, env, menuID, "back")
	st = menuState(t, env, menuID).(*SelectEntryState)
	require.Equal(t, 1, st.Page)
	require.Empty(t, st.Query)
}

func TestBackWithoutReferrerFallsBackToParent(t *testing.T) {
	env, _ := newEnv(t)
	_, err := store.Submit(context.Background(), env.DB, InsertEntry{Entry: OngoingEntry{
		ID:    50,
		Title: "Highest Collection",
		Subentries: []Subentry{
			{ID: 500, EntryID: 50, Player: "bob", Value: "1.2m", Bingo: bingo.Bingo{KindID: 4}},
		},
	}})
	require.NoError(t, err)

	menuID, err := env.StartSession(context.Background(), 100, 1, "alice")
	require.NoError(t, err)

	// Force a drill-down state with no history, as after a restart.
	h, ok := env.Sessions.Get(menuID)
	require.True(t, ok)
	sess := h.Acquire()
	sess.State = &ViewSubentryState{ID: 500, EntryID: 50}
	h.Release()

	click(t, env, menuID, "back")
	view := menuState(t, env, menuID).(*ViewEntryState)
	require.Equal(t, uint64(50), view.ID)
}

func TestSearchSubmitFiltersAndResetRestores(t *testing.T) {
	env, _ := newEnv(t)
	seedOneOffs(t, env, 8)

	menuID, err := env.StartSession(context.Background(), 100, 1, "alice")
	require.NoError(t, err)

	click(t, env, menuID, "goto_page:next")
	submit(t, env, menuID, "search_submit", map[string]string{"query": "Feat 7"})
	st := menuState(t, env, menuID).(*SelectEntryState)
	require.Equal(t, "Feat 7", st.Query)
	require.Equal(t, 0, st.Page)

	click(t, env, menuID, "reset_search")
	st = menuState(t, env, menuID).(*SelectEntryState)
	require.Empty(t, st.Query)
	require.Equal(t, 0, st.Page)
}

func TestEmptySearchSubmitIsIgnored(t *testing.T) {
	env, _ := newEnv(t)
	seedOneOffs(t, env, 2)

	menuID, err := env.StartSession(context.Background(), 100, 1, "alice")
	require.NoError(t, err)

	resp := submit(t, env, menuID, "search_submit", map[string]string{"query": ""})
	require.Nil(t, resp.Update)
	st := menuState(t, env, menuID).(*SelectEntryState)
	require.Empty(t, st.Query)
}

func TestJumpPageClampsToLastPage(t *testing.T) {
	env, _ := newEnv(t)
	seedOneOffs(t, env, 8)

	menuID, err := env.StartSession(context.Background(), 100, 1, "alice")
	require.NoError(t, err)

	submit(t, env, menuID, "jump_page_submit", map[string]string{"page": "99"})
	st := menuState(t, env, menuID).(*SelectEntryState)
	require.Equal(t, 1, st.Page)
}

func TestCreateOneOffThenBackToList(t *testing.T) {
	env, _ := newEnv(t)

	menuID, err := env.StartSession(context.Background(), 100, 1, "alice")
	require.NoError(t, err)

	resp := click(t, env, menuID, "create_entry")
	require.NotNil(t, resp.Notice)
	resp = click(t, env, menuID, "create_oneoff_confirm")
	require.NotNil(t, resp.Prompt)
	require.Equal(t, PromptOneOffEntry, resp.Prompt.Kind)

	submit(t, env, menuID, "oneoff_submit", map[string]string{
		"title":   "First Blood",
		"players": "alice, bob",
		"bingo":   "extreme #2",
		"comment": "",
	})
	view := menuState(t, env, menuID).(*ViewEntryState)

	entry, err := store.Submit(context.Background(), env.DB, GetEntry{ID: view.ID})
	require.NoError(t, err)
	oneoff := entry.(OneOffEntry)
	require.Equal(t, "First Blood", oneoff.Title)
	require.Equal(t, PlayerList{"alice", "bob"}, oneoff.Players)

	click(t, env, menuID, "back")
	_, ok := menuState(t, env, menuID).(*SelectEntryState)
	require.True(t, ok)
}

func TestDeleteConfirmReturnsToReferrer(t *testing.T) {
	env, _ := newEnv(t)
	seedOneOffs(t, env, 8)

	menuID, err := env.StartSession(context.Background(), 100, 1, "alice")
	require.NoError(t, err)

	click(t, env, menuID, "goto_page:next")
	click(t, env, menuID, "view_entry:5")
	resp := click(t, env, menuID, "delete")
	require.NotNil(t, resp.Notice)

	resp = click(t, env, menuID, "delete_confirm")
	require.NotNil(t, resp.Notice)
	st := menuState(t, env, menuID).(*SelectEntryState)
	require.Equal(t, 1, st.Page)

	entry, err := store.Submit(context.Background(), env.DB, GetEntry{ID: 5})
	require.NoError(t, err)
	require.Nil(t, entry)
}

func TestForeignUserGetsNoticeOnly(t *testing.T) {
	env, _ := newEnv(t)
	seedOneOffs(t, env, 2)

	menuID, err := env.StartSession(context.Background(), 100, 1, "alice")
	require.NoError(t, err)

	resp, err := env.HandleInteraction(context.Background(), Interaction{
		CustomID: fmt.Sprintf("hob:%d:goto_page:next", menuID),
		UserID:   2,
		UserName: "mallory",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Notice)
	require.Nil(t, resp.Update)

	st := menuState(t, env, menuID).(*SelectEntryState)
	require.Equal(t, 0, st.Page)
}

func TestUnknownMenuIsUserError(t *testing.T) {
	env, _ := newEnv(t)

	_, err := env.HandleInteraction(context.Background(), Interaction{
		CustomID: "hob:12345:goto_page:next",
		UserID:   1,
		UserName: "alice",
	})
	require.Error(t, err)
	require.True(t, errs.IsUser(err))
}

func TestFailedRenderLeavesStateUntouched(t *testing.T) {
	env, _ := newEnv(t)
	seedOneOffs(t, env, 2)

	menuID, err := env.StartSession(context.Background(), 100, 1, "alice")
	require.NoError(t, err)

	_, err = env.HandleInteraction(context.Background(), Interaction{
		CustomID: fmt.Sprintf("hob:%d:view_entry:999", menuID),
		UserID:   1,
		UserName: "alice",
	})
	require.Error(t, err)

	_, ok := menuState(t, env, menuID).(*SelectEntryState)
	require.True(t, ok)
}

func TestTimeoutDisablesMenuMessage(t *testing.T) {
	env, messenger := newEnv(t)
	env.Timeout = 30 * time.Millisecond
	seedOneOffs(t, env, 2)

	menuID, err := env.StartSession(context.Background(), 100, 1, "alice")
	require.NoError(t, err)
	h, ok := env.Sessions.Get(menuID)
	require.True(t, ok)
	sess := h.Acquire()
	ref := sess.Message
	h.Release()

	require.Eventually(t, func() bool {
		return env.Sessions.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return menuHasNotice(messenger.get(ref), "-# This menu has expired.")
	}, 2*time.Second, 5*time.Millisecond)
	require.True(t, controlsDisabled(messenger.get(ref)))
}

func TestInteractionResetExtendsTimeout(t *testing.T) {
	env, _ := newEnv(t)
	env.Timeout = 80 * time.Millisecond
	seedOneOffs(t, env, 8)

	menuID, err := env.StartSession(context.Background(), 100, 1, "alice")
	require.NoError(t, err)

	for range 4 {
		time.Sleep(40 * time.Millisecond)
		click(t, env, menuID, "goto_page:first")
	}
	_, ok := env.Sessions.Get(menuID)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		return env.Sessions.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func menuHasNotice(menu discord.Menu, text string) bool {
	var found bool
	walkComponents(menu.Components, func(c discord.Component) {
		if td, ok := c.(discord.TextDisplay); ok && td.Content == text {
			found = true
		}
	})
	return found
}

func controlsDisabled(menu discord.Menu) bool {
	disabled := true
	walkComponents(menu.Components, func(c discord.Component) {
		switch v := c.(type) {
		case discord.ActionRow:
			for _, b := range v.Buttons {
				if !b.Disabled {
					disabled = false
				}
			}
		case discord.Section:
			if v.Accessory != nil && !v.Accessory.Disabled {
				disabled = false
			}
		}
	})
	return disabled
}

func walkComponents(components []discord.Component, visit func(discord.Component)) {
	for _, c := range components {
		visit(c)
		if container, ok := c.(discord.Container); ok {
			walkComponents(container.Components, visit)
		}
	}
}
