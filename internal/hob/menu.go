package hob

import (
	"context"
	"fmt"

	"github.com/skybingo/bingobot/internal/discord"
	"github.com/skybingo/bingobot/internal/session"
	"github.com/skybingo/bingobot/internal/store"
)

const (
	entriesPerPage    = 6
	subentriesPerPage = 5
)

// State is the menu's current view. The set is closed: SelectEntryState,
// ViewEntryState and ViewSubentryState. Drill-down states remember the state
// they were reached from, so Back can restore it with its pagination and
// filter intact; the chain of referrers forms the backtracking stack.
type State interface {
	isState()
}

// SelectEntryState is the paginated entry list, optionally filtered.
type SelectEntryState struct {
	Page  int
	Query string
}

// ViewEntryState shows one entry; Page paginates an ongoing entry's
// subentries.
type ViewEntryState struct {
	ID       uint64
	Page     int
	referrer State
}

// ViewSubentryState shows one subentry of an ongoing entry.
type ViewSubentryState struct {
	ID       uint64
	EntryID  uint64
	referrer State
}

func (*SelectEntryState) isState()  {}
func (*ViewEntryState) isState()    {}
func (*ViewSubentryState) isState() {}

// withReferrer records the state a drill-down was reached from. States that
// cannot backtrack pass through unchanged.
func withReferrer(next, previous State) State {
	switch v := next.(type) {
	case *ViewEntryState:
		v.referrer = previous
	case *ViewSubentryState:
		v.referrer = previous
	}
	return next
}

// restoreOr pops the current state's referrer, or builds the fallback when
// the state was entered directly.
func restoreOr(current State, fallback func() State) State {
	var referrer State
	switch v := current.(type) {
	case *ViewEntryState:
		referrer, v.referrer = v.referrer, nil
	case *ViewSubentryState:
		referrer, v.referrer = v.referrer, nil
	}
	if referrer == nil {
		return fallback()
	}
	return referrer
}

// Session is one user's open edit menu.
type Session struct {
	MenuID    uint64
	State     State
	OwnerID   uint64
	OwnerName string
	Message   discord.MessageRef
	Reset     *session.ResetSignal
}

func idPrefix(menuID uint64) string {
	return fmt.Sprintf("hob:%d", menuID)
}

// renderState builds the menu for a state and returns the state that was
// actually rendered, with out-of-range pages clamped. Callers commit the
// returned state only after every fallible step succeeded, so a failed
// render never moves the session.
func (e *Env) renderState(ctx context.Context, menuID uint64, st State) (discord.Menu, State, error) {
	switch v := st.(type) {
	case *SelectEntryState:
		return e.renderSelectEntry(ctx, menuID, v)
	case *ViewEntryState:
		return e.renderViewEntry(ctx, menuID, v)
	case *ViewSubentryState:
		return e.renderViewSubentry(ctx, menuID, v)
	default:
		return discord.Menu{}, nil, fmt.Errorf("unknown menu state %T", st)
	}
}

func (e *Env) renderSelectEntry(ctx context.Context, menuID uint64, st *SelectEntryState) (discord.Menu, State, error) {
	var entries []Entry
	var err error
	if st.Query != "" {
		entries, err = store.Submit(ctx, e.DB, Search{Query: st.Query})
	} else {
		entries, err = store.Submit(ctx, e.DB, GetAll{})
	}
	if err != nil {
		return discord.Menu{}, nil, err
	}

	chunk := session.Paginate(len(entries), st.Page, entriesPerPage)
	rendered := &SelectEntryState{Page: chunk.Page, Query: st.Query}
	prefix := idPrefix(menuID)

	var titleSection discord.Section
	if st.Query != "" {
		titleSection = discord.Section{
			Text: []discord.TextDisplay{{Content: fmt.Sprintf("# Search Results: __`%s`__", st.Query)}},
			Accessory: &discord.Button{
				CustomID: prefix + ":reset_search",
				Emoji:    "❌",
				Label:    "Reset Search",
				Style:    discord.StyleSecondary,
			},
		}
	} else {
		titleSection = discord.Section{
			Text: []discord.TextDisplay{{Content: "# Manage HoB Entries"}},
			Accessory: &discord.Button{
				CustomID: prefix + ":search",
				Emoji:    "🔍",
				Label:    "Search",
				Style:    discord.StyleSecondary,
			},
		}
	}

	showingFrom := 0
	if chunk.TotalPages > 0 {
		showingFrom = chunk.Start + 1
	}
	showingSection := discord.Section{
		Text: []discord.TextDisplay{{Content: fmt.Sprintf(
			"Showing %d–%d of %d entries.", showingFrom, chunk.End, len(entries),
		)}},
		Accessory: &discord.Button{
			CustomID: prefix + ":create_entry",
			Label:    "Create HoB Entry",
			Style:    discord.StyleSuccess,
		},
	}

	divider := discord.Separator{Divider: true}
	components := []discord.Component{titleSection, showingSection, divider}
	for _, entry := range entries[chunk.Start:chunk.End] {
		components = append(components, entry.sectionEdit(prefix), divider)
	}
	components = append(components, discord.NavRowWithJump(prefix, chunk.Page, chunk.TotalPages))

	menu := discord.Menu{Components: []discord.Component{
		discord.Container{Components: components},
	}}
	return menu, rendered, nil
}

func (e *Env) renderViewEntry(ctx context.Context, menuID uint64, st *ViewEntryState) (discord.Menu, State, error) {
	entry, err := store.Submit(ctx, e.DB, GetEntry{ID: st.ID})
	if err != nil {
		return discord.Menu{}, nil, err
	}
	if entry == nil {
		return discord.Menu{}, nil, fmt.Errorf("unable to find entry %d", st.ID)
	}

	prefix := idPrefix(menuID)
	titleSection := discord.Section{
		Text: []discord.TextDisplay{{Content: "# View HoB Entry"}},
		Accessory: &discord.Button{
			CustomID: prefix + ":delete",
			Label:    "Delete",
			Style:    discord.StyleDanger,
		},
	}
	editRow := discord.ActionRow{Buttons: []discord.Button{
		{CustomID: prefix + ":edit", Emoji: "✏️", Style: discord.StylePrimary},
		{CustomID: prefix + ":preview", Label: "Preview", Style: discord.StyleSecondary},
	}}
	divider := discord.Separator{Divider: true}

	rendered := &ViewEntryState{ID: st.ID, Page: st.Page, referrer: st.referrer}
	var components []discord.Component

	switch v := entry.(type) {
	case OneOffEntry:
		rendered.Page = 0
		comment := v.Comment
		if comment == "" {
			comment = "*None*"
		}
		description := discord.TextDisplay{Content: fmt.Sprintf(
			"\n### Type\nOne-off achievement\n### Title\n%s\n### Players\n%s\n### Bingo\n%s\n### Comment\n%s\n",
			v.Title, v.Players.List(), v.Bingo, comment,
		)}
		components = []discord.Component{
			titleSection, editRow, description, divider, discord.BackRow(prefix),
		}

	case OngoingEntry:
		chunk := session.Paginate(len(v.Subentries), st.Page, subentriesPerPage)
		rendered.Page = chunk.Page

		comment := v.Comment
		if comment == "" {
			comment = "*None*"
		}
		description := discord.TextDisplay{Content: fmt.Sprintf(
			"\n### Type\nIterative achievement\n### Title\n%s\n### Comment\n%s\n",
			v.Title, comment,
		)}

		subentryHeading := "## Subentries\n"
		if chunk.Start == chunk.End {
			subentryHeading += "*None*"
		}
		subentrySection := discord.Section{
			Text: []discord.TextDisplay{{Content: subentryHeading}},
			Accessory: &discord.Button{
				CustomID: prefix + ":create_subentry",
				Label:    "Create Subentry",
				Style:    discord.StyleSuccess,
			},
		}

		components = []discord.Component{
			titleSection, editRow, description, subentrySection, divider,
		}
		for _, sub := range v.Subentries[chunk.Start:chunk.End] {
			components = append(components, sub.section(prefix), divider)
		}
		components = append(components, discord.NavRowWithBack(prefix, chunk.Page, chunk.TotalPages))
	}

	menu := discord.Menu{Components: []discord.Component{
		discord.Container{Components: components},
	}}
	return menu, rendered, nil
}

func (e *Env) renderViewSubentry(ctx context.Context, menuID uint64, st *ViewSubentryState) (discord.Menu, State, error) {
	sub, err := store.Submit(ctx, e.DB, GetSubentry{ID: st.ID, EntryID: st.EntryID})
	if err != nil {
		return discord.Menu{}, nil, err
	}
	if sub == nil {
		return discord.Menu{}, nil, fmt.Errorf("unable to find subentry %d", st.ID)
	}

	prefix := idPrefix(menuID)
	titleSection := discord.Section{
		Text: []discord.TextDisplay{{Content: "# View Subentry"}},
		Accessory: &discord.Button{
			CustomID: prefix + ":delete",
			Label:    "Delete",
			Style:    discord.StyleDanger,
		},
	}
	editRow := discord.ActionRow{Buttons: []discord.Button{
		{CustomID: prefix + ":edit", Emoji: "✏️", Style: discord.StylePrimary},
		{CustomID: prefix + ":preview", Label: "Preview", Style: discord.StyleSecondary},
	}}
	description := discord.TextDisplay{Content: fmt.Sprintf(
		"\n### Player\n`%s`\n### Value\n%s\n### Bingo\n%s\n",
		sub.Player, sub.Value, sub.Bingo,
	)}

	menu := discord.Menu{Components: []discord.Component{
		discord.Container{Components: []discord.Component{
			titleSection,
			editRow,
			description,
			discord.Separator{Divider: true},
			discord.BackRow(prefix),
		}},
	}}
	rendered := &ViewSubentryState{ID: st.ID, EntryID: st.EntryID, referrer: st.referrer}
	return menu, rendered, nil
}

// Invalidate disables the expired menu's controls and marks it, leaving the
// content readable. The edit is idempotent, so racing expiry paths converge
// on the same message.
func (e *Env) Invalidate(ctx context.Context, s *Session) error {
	menu, err := e.Messenger.Fetch(ctx, s.Message)
	if err != nil {
		return fmt.Errorf("failed to fetch menu message: %w", err)
	}
	expired := menu.DisableControls().AppendNotice("-# This menu has expired.")
	if err := e.Messenger.Edit(ctx, s.Message, expired); err != nil {
		return fmt.Errorf("failed to disable expired menu: %w", err)
	}
	return nil
}
