package hob

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skybingo/bingobot/internal/bingo"
	"github.com/skybingo/bingobot/internal/discord"
)

func overviewTexts(t *testing.T, menus []discord.Menu) []string {
	t.Helper()
	var texts []string
	for _, menu := range menus {
		require.Len(t, menu.Components, 1)
		container, ok := menu.Components[0].(discord.Container)
		require.True(t, ok)
		for _, c := range container.Components {
			if td, ok := c.(discord.TextDisplay); ok {
				texts = append(texts, td.Content)
			}
		}
	}
	return texts
}

func TestBuildOverviewOrdersOldestFirst(t *testing.T) {
	entries := []Entry{
		OneOffEntry{ID: 2, Title: "New Feat", Bingo: bingo.Bingo{KindID: 9}, Players: PlayerList{"a"}},
		OneOffEntry{ID: 1, Title: "Old Feat", Bingo: bingo.Bingo{KindID: 1}, Players: PlayerList{"b"}},
	}

	menus, err := BuildOverview(entries, 10)
	require.NoError(t, err)
	require.Len(t, menus, 1)

	texts := overviewTexts(t, menus)
	require.Equal(t, "# Hall of Bingo", texts[0])
	require.Contains(t, texts[1], "Old Feat")
	require.Contains(t, texts[2], "New Feat")
	require.Contains(t, texts[3], "-# Last updated: <t:")
}

func TestBuildOverviewSplitsAtCharacterLimit(t *testing.T) {
	big := strings.Repeat("x", overviewMaxChars-100)
	entries := []Entry{
		OneOffEntry{ID: 2, Title: big, Bingo: bingo.Bingo{KindID: 2}, Players: PlayerList{"a"}},
		OneOffEntry{ID: 1, Title: big, Bingo: bingo.Bingo{KindID: 1}, Players: PlayerList{"b"}},
	}

	menus, err := BuildOverview(entries, 10)
	require.NoError(t, err)
	require.Len(t, menus, 3)
}

func TestBuildOverviewRejectsOversizedEntry(t *testing.T) {
	entries := []Entry{
		OneOffEntry{
			ID:      1,
			Title:   strings.Repeat("x", overviewMaxChars+1),
			Bingo:   bingo.Bingo{KindID: 1},
			Players: PlayerList{"a"},
		},
	}

	_, err := BuildOverview(entries, 10)
	require.Error(t, err)
}

func TestBuildOverviewHonorsMessageLimit(t *testing.T) {
	big := strings.Repeat("x", overviewMaxChars-100)
	entries := []Entry{
		OneOffEntry{ID: 2, Title: big, Bingo: bingo.Bingo{KindID: 2}, Players: PlayerList{"a"}},
		OneOffEntry{ID: 1, Title: big, Bingo: bingo.Bingo{KindID: 1}, Players: PlayerList{"b"}},
	}

	_, err := BuildOverview(entries, 1)
	require.Error(t, err)
}

func TestBuildOverviewEmpty(t *testing.T) {
	menus, err := BuildOverview(nil, 10)
	require.NoError(t, err)
	require.Len(t, menus, 1)

	texts := overviewTexts(t, menus)
	require.Equal(t, "# Hall of Bingo", texts[0])
	require.Contains(t, texts[1], "-# Last updated: <t:")
}
