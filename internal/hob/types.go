// Package hob manages the Hall of Bingo: notable player achievements stored
// as entries and browsed through per-user interactive menus. One-off entries
// record a single feat during one event; ongoing entries collect subentries
// that get improved upon over time.
package hob

import (
	"fmt"
	"strings"

	"github.com/skybingo/bingobot/internal/bingo"
	"github.com/skybingo/bingobot/internal/discord"
)

// Entry is either a OneOffEntry or an OngoingEntry. The set is closed; the
// storage layer and renderers switch over the two shapes.
type Entry interface {
	entryID() uint64
	// bingoNum is the entry's effective event number, used to keep the
	// overview sorted newest first.
	bingoNum() uint8
	sectionEdit(idPrefix string) discord.Section
	display() (discord.TextDisplay, int)
}

// OneOffEntry is a single achievement by one or more players during one
// event.
type OneOffEntry struct {
	ID      uint64
	Title   string
	Comment string
	Bingo   bingo.Bingo
	Players PlayerList
}

func (e OneOffEntry) entryID() uint64 { return e.ID }

func (e OneOffEntry) bingoNum() uint8 { return e.Bingo.ID() }

func (e OneOffEntry) sectionEdit(idPrefix string) discord.Section {
	text := fmt.Sprintf("###  %s\n%s during %s", e.Title, e.Players.List(), e.Bingo)
	return discord.Section{
		Text: []discord.TextDisplay{{Content: text}},
		Accessory: &discord.Button{
			CustomID: fmt.Sprintf("%s:view_entry:%d", idPrefix, e.ID),
			Emoji:    "📝",
			Style:    discord.StylePrimary,
		},
	}
}

func (e OneOffEntry) display() (discord.TextDisplay, int) {
	var comment string
	if e.Comment != "" {
		comment = "-# " + e.Comment
	}
	text := fmt.Sprintf("###  %s\n%s during %s\n%s", e.Title, e.Players.List(), e.Bingo, comment)
	return discord.TextDisplay{Content: text}, len(text)
}

// OngoingEntry is an achievement that keeps being improved; each improvement
// is its own subentry with a player, value and event.
type OngoingEntry struct {
	ID      uint64
	Title   string
	Comment string
	// Subentries are kept sorted by effective event number, newest first.
	Subentries []Subentry
}

func (e OngoingEntry) entryID() uint64 { return e.ID }

func (e OngoingEntry) bingoNum() uint8 {
	if len(e.Subentries) == 0 {
		return 0
	}
	return e.Subentries[0].Bingo.ID()
}

func (e OngoingEntry) sectionEdit(idPrefix string) discord.Section {
	description := "*No Players*"
	if len(e.Subentries) > 0 {
		latest := e.Subentries[0]
		description = fmt.Sprintf("`%s` and %d others\nmost recently during %s",
			latest.Player, len(e.Subentries)-1, latest.Bingo)
	}
	text := fmt.Sprintf("###  %s\n%s", e.Title, description)
	return discord.Section{
		Text: []discord.TextDisplay{{Content: text}},
		Accessory: &discord.Button{
			CustomID: fmt.Sprintf("%s:view_entry:%d", idPrefix, e.ID),
			Emoji:    "📝",
			Style:    discord.StylePrimary,
		},
	}
}

func (e OngoingEntry) display() (discord.TextDisplay, int) {
	var comment string
	if e.Comment != "" {
		comment = "-# " + e.Comment
	}
	list := "*No Players*"
	if len(e.Subentries) > 0 {
		items := make([]string, len(e.Subentries))
		for i, s := range e.Subentries {
			items[i] = s.ListItem()
		}
		list = strings.Join(items, "\n")
	}
	text := fmt.Sprintf("###  %s\n%s\n%s", e.Title, list, comment)
	return discord.TextDisplay{Content: text}, len(text)
}

// Subentry is one improvement step of an ongoing entry.
type Subentry struct {
	ID      uint64
	EntryID uint64
	Player  string
	Value   string
	Bingo   bingo.Bingo
}

// ListItem formats the subentry as a bullet for the overview message.
func (s Subentry) ListItem() string {
	return fmt.Sprintf("- `%s` – **%s** during %s", s.Player, s.Value, s.Bingo)
}

func (s Subentry) section(idPrefix string) discord.Section {
	text := fmt.Sprintf("### `%s` – %s\nduring %s", s.Player, s.Value, s.Bingo)
	return discord.Section{
		Text: []discord.TextDisplay{{Content: text}},
		Accessory: &discord.Button{
			CustomID: fmt.Sprintf("%s:view_subentry:%d", idPrefix, s.ID),
			Emoji:    "📝",
			Style:    discord.StylePrimary,
		},
	}
}

// PlayerList is the ordered set of players credited on a one-off entry.
type PlayerList []string

func (p PlayerList) formatList(format func(string) string) string {
	switch len(p) {
	case 0:
		return ""
	case 1:
		return format(p[0])
	default:
		formatted := make([]string, len(p)-1)
		for i, player := range p[:len(p)-1] {
			formatted[i] = format(player)
		}
		return fmt.Sprintf("%s & %s", strings.Join(formatted, ", "), format(p[len(p)-1]))
	}
}

// List formats the players backticked, "a, b & c" style.
func (p PlayerList) List() string {
	return p.formatList(func(player string) string { return "`" + player + "`" })
}

// PlainList formats the players without markup, for prefilled edit prompts.
func (p PlayerList) PlainList() string {
	return p.formatList(func(player string) string { return player })
}
