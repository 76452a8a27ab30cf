package hob

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/skybingo/bingobot/internal/bingo"
	"github.com/skybingo/bingobot/internal/discord"
	"github.com/skybingo/bingobot/internal/errs"
	"github.com/skybingo/bingobot/internal/session"
	"github.com/skybingo/bingobot/internal/store"
)

// Env wires the menu engine to its collaborators. One Env serves all open
// menus; per-menu state lives in the session registry.
type Env struct {
	DB        *store.Actor
	Messenger discord.Messenger
	Sessions  *session.Registry[Session]
	Timeout   time.Duration
}

// Interaction is one incoming button click or form submission. Inputs is nil
// for clicks and holds the submitted fields for forms.
type Interaction struct {
	CustomID string
	UserID   uint64
	UserName string
	Inputs   map[string]string
}

// PromptKind names the form a handler wants shown to the user.
type PromptKind uint8

const (
	PromptSearch PromptKind = iota
	PromptJumpPage
	PromptOneOffEntry
	PromptOngoingEntry
	PromptSubentry
)

// Prompt asks the platform layer to open a form. Prefill keys match the
// Inputs keys the eventual submission carries back.
type Prompt struct {
	Kind    PromptKind
	Prefill map[string]string
}

// Response tells the caller what to show. Update replaces the menu message,
// Notice is an ephemeral side message for the interacting user only, Prompt
// opens a form. Any combination may be set.
type Response struct {
	Update *discord.Menu
	Notice *discord.Menu
	Prompt *Prompt
}

// StartSession posts a fresh entry-list menu and registers its session. The
// supervisor expiring it after Timeout of inactivity is started here too.
func (e *Env) StartSession(ctx context.Context, channelID, ownerID uint64, ownerName string) (uint64, error) {
	menuID := session.NewID()

	menu, rendered, err := e.renderState(ctx, menuID, &SelectEntryState{})
	if err != nil {
		return 0, fmt.Errorf("failed to render initial menu: %w", err)
	}
	ref, err := e.Messenger.Send(ctx, channelID, menu)
	if err != nil {
		return 0, fmt.Errorf("failed to post menu message: %w", err)
	}

	reset := session.NewResetSignal()
	e.Sessions.Insert(menuID, Session{
		MenuID:    menuID,
		State:     rendered,
		OwnerID:   ownerID,
		OwnerName: ownerName,
		Message:   ref,
		Reset:     reset,
	})
	session.Supervise(context.WithoutCancel(ctx), e.Sessions, menuID, e.Timeout, reset, e.Invalidate)

	slog.Info("opened edit menu",
		slog.Uint64("menu_id", menuID),
		slog.String("owner", ownerName))
	return menuID, nil
}

// HandleInteraction routes one interaction to its session. The custom ID has
// the shape "hob:<menuID>:<verb>[:<arg>]". State transitions commit only
// after the target state rendered successfully, so a failed render leaves
// the session where it was.
func (e *Env) HandleInteraction(ctx context.Context, in Interaction) (Response, error) {
	slog.Info("menu interaction",
		slog.String("user", in.UserName),
		slog.String("custom_id", in.CustomID))

	menuID, verb, arg, err := parseCustomID(in.CustomID)
	if err != nil {
		return Response{}, err
	}

	h, ok := e.Sessions.Get(menuID)
	if !ok {
		return Response{}, errs.Userf("this menu has expired")
	}
	sess := h.Acquire()
	defer h.Release()

	if in.UserID != sess.OwnerID {
		slog.Warn("interaction on foreign menu",
			slog.String("user", in.UserName),
			slog.String("owner", sess.OwnerName))
		return Response{Notice: noticeMenu(discord.ColorDanger, fmt.Sprintf(
			"## You don't own this menu!\nOnly <@%d> is allowed to interact with this menu.",
			sess.OwnerID,
		))}, nil
	}

	sess.Reset.Reset()

	var next State
	var resp Response
	switch st := sess.State.(type) {
	case *SelectEntryState:
		next, resp, err = e.handleSelectEntry(ctx, menuID, st, verb, arg, in.Inputs)
	case *ViewEntryState:
		next, resp, err = e.handleViewEntry(ctx, menuID, st, verb, arg, in.Inputs)
	case *ViewSubentryState:
		next, resp, err = e.handleViewSubentry(ctx, menuID, st, verb, in.Inputs)
	default:
		err = fmt.Errorf("unknown menu state %T", sess.State)
	}
	if err != nil {
		return Response{}, err
	}

	if next != nil {
		menu, rendered, err := e.renderState(ctx, menuID, next)
		if err != nil {
			return Response{}, err
		}
		sess.State = rendered
		resp.Update = &menu
	}
	return resp, nil
}

func (e *Env) handleSelectEntry(ctx context.Context, menuID uint64, st *SelectEntryState, verb, arg string, inputs map[string]string) (State, Response, error) {
	switch verb {
	case "goto_page":
		return &SelectEntryState{Page: turnPage(st.Page, arg), Query: st.Query}, Response{}, nil

	case "jump_page":
		return nil, Response{Prompt: &Prompt{Kind: PromptJumpPage}}, nil

	case "search":
		return nil, Response{Prompt: &Prompt{
			Kind:    PromptSearch,
			Prefill: map[string]string{"query": st.Query},
		}}, nil

	case "reset_search":
		return &SelectEntryState{}, Response{}, nil

	case "view_entry":
		entryID, err := parseID(arg)
		if err != nil {
			return nil, Response{}, err
		}
		return withReferrer(&ViewEntryState{ID: entryID}, st), Response{}, nil

	case "create_entry":
		return nil, Response{Notice: createEntryChooser(idPrefix(menuID))}, nil

	case "create_oneoff_confirm":
		return nil, Response{Prompt: &Prompt{Kind: PromptOneOffEntry}}, nil

	case "create_ongoing_confirm":
		return nil, Response{Prompt: &Prompt{Kind: PromptOngoingEntry}}, nil

	case "search_submit":
		query := inputs["query"]
		if query == "" {
			return nil, Response{}, nil
		}
		return &SelectEntryState{Query: query}, Response{}, nil

	case "jump_page_submit":
		raw := inputs["page"]
		if raw == "" {
			return nil, Response{}, nil
		}
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			page = 1
		}
		return &SelectEntryState{Page: page - 1, Query: st.Query}, Response{}, nil

	case "oneoff_submit":
		entry, err := oneOffFromInputs(session.NewID(), inputs)
		if err != nil {
			return nil, Response{}, err
		}
		if _, err := store.Submit(ctx, e.DB, InsertEntry{Entry: entry}); err != nil {
			return nil, Response{}, err
		}
		return withReferrer(&ViewEntryState{ID: entry.ID}, st), Response{}, nil

	case "ongoing_submit":
		entry := ongoingFromInputs(session.NewID(), inputs)
		if _, err := store.Submit(ctx, e.DB, InsertEntry{Entry: entry}); err != nil {
			return nil, Response{}, err
		}
		return withReferrer(&ViewEntryState{ID: entry.ID}, st), Response{}, nil
	}
	return nil, Response{}, fmt.Errorf("unexpected menu action %q", verb)
}

func (e *Env) handleViewEntry(ctx context.Context, menuID uint64, st *ViewEntryState, verb, arg string, inputs map[string]string) (State, Response, error) {
	switch verb {
	case "back":
		return restoreOr(st, func() State { return &SelectEntryState{} }), Response{}, nil

	case "goto_page":
		return &ViewEntryState{ID: st.ID, Page: turnPage(st.Page, arg), referrer: st.referrer}, Response{}, nil

	case "preview":
		entry, err := e.fetchEntry(ctx, st.ID)
		if err != nil {
			return nil, Response{}, err
		}
		text, _ := entry.display()
		return nil, Response{Notice: previewMenu("### *Single Entry Preview*", text)}, nil

	case "edit":
		entry, err := e.fetchEntry(ctx, st.ID)
		if err != nil {
			return nil, Response{}, err
		}
		return nil, Response{Prompt: editPrompt(entry)}, nil

	case "delete":
		return nil, Response{Notice: confirmDeletion(idPrefix(menuID), "this HoB entry")}, nil

	case "delete_confirm":
		if _, err := store.Submit(ctx, e.DB, DeleteEntry{ID: st.ID}); err != nil {
			return nil, Response{}, err
		}
		next := restoreOr(st, func() State { return &SelectEntryState{} })
		return next, Response{Notice: noticeMenu(discord.ColorPositive,
			"## Deleted Successfully\nThe entry was successfully removed from the database.",
		)}, nil

	case "view_subentry":
		subentryID, err := parseID(arg)
		if err != nil {
			return nil, Response{}, err
		}
		return withReferrer(&ViewSubentryState{ID: subentryID, EntryID: st.ID}, st), Response{}, nil

	case "create_subentry":
		return nil, Response{Prompt: &Prompt{Kind: PromptSubentry}}, nil

	case "oneoff_submit":
		entry, err := oneOffFromInputs(st.ID, inputs)
		if err != nil {
			return nil, Response{}, err
		}
		if _, err := store.Submit(ctx, e.DB, UpdateEntry{Entry: entry}); err != nil {
			return nil, Response{}, err
		}
		return st, Response{}, nil

	case "ongoing_submit":
		if _, err := store.Submit(ctx, e.DB, UpdateEntry{Entry: ongoingFromInputs(st.ID, inputs)}); err != nil {
			return nil, Response{}, err
		}
		return st, Response{}, nil

	case "subentry_submit":
		sub, err := subentryFromInputs(session.NewID(), st.ID, inputs)
		if err != nil {
			return nil, Response{}, err
		}
		if _, err := store.Submit(ctx, e.DB, InsertSubentry{Subentry: sub}); err != nil {
			return nil, Response{}, err
		}
		return st, Response{}, nil
	}
	return nil, Response{}, fmt.Errorf("unexpected menu action %q", verb)
}

func (e *Env) handleViewSubentry(ctx context.Context, menuID uint64, st *ViewSubentryState, verb string, inputs map[string]string) (State, Response, error) {
	switch verb {
	case "back":
		entryID := st.EntryID
		return restoreOr(st, func() State { return &ViewEntryState{ID: entryID} }), Response{}, nil

	case "preview":
		sub, err := e.fetchSubentry(ctx, st)
		if err != nil {
			return nil, Response{}, err
		}
		text := discord.TextDisplay{Content: sub.ListItem()}
		return nil, Response{Notice: previewMenu("### *Isolated Subentry Preview*", text)}, nil

	case "edit":
		sub, err := e.fetchSubentry(ctx, st)
		if err != nil {
			return nil, Response{}, err
		}
		return nil, Response{Prompt: &Prompt{
			Kind: PromptSubentry,
			Prefill: map[string]string{
				"player": sub.Player,
				"value":  sub.Value,
				"bingo":  sub.Bingo.Short(),
			},
		}}, nil

	case "delete":
		return nil, Response{Notice: confirmDeletion(idPrefix(menuID), "this subentry")}, nil

	case "delete_confirm":
		if _, err := store.Submit(ctx, e.DB, DeleteSubentry{ID: st.ID, EntryID: st.EntryID}); err != nil {
			return nil, Response{}, err
		}
		entryID := st.EntryID
		next := restoreOr(st, func() State { return &ViewEntryState{ID: entryID} })
		return next, Response{Notice: noticeMenu(discord.ColorPositive,
			"## Deleted Successfully\nThe subentry was successfully removed from the database.",
		)}, nil

	case "subentry_submit":
		sub, err := subentryFromInputs(st.ID, st.EntryID, inputs)
		if err != nil {
			return nil, Response{}, err
		}
		if _, err := store.Submit(ctx, e.DB, UpdateSubentry{Subentry: sub}); err != nil {
			return nil, Response{}, err
		}
		return st, Response{}, nil
	}
	return nil, Response{}, fmt.Errorf("unexpected menu action %q", verb)
}

// CloseSession removes a session and disables its message. Used by an
// explicit close; the supervisor's Remove check keeps the two paths from
// both editing the message.
func (e *Env) CloseSession(ctx context.Context, menuID uint64) error {
	h, ok := e.Sessions.Remove(menuID)
	if !ok {
		return errs.Userf("this menu has expired")
	}
	sess := h.Acquire()
	defer h.Release()
	return e.Invalidate(ctx, sess)
}

func (e *Env) fetchEntry(ctx context.Context, id uint64) (Entry, error) {
	entry, err := store.Submit(ctx, e.DB, GetEntry{ID: id})
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("unable to find entry %d", id)
	}
	return entry, nil
}

func (e *Env) fetchSubentry(ctx context.Context, st *ViewSubentryState) (*Subentry, error) {
	sub, err := store.Submit(ctx, e.DB, GetSubentry{ID: st.ID, EntryID: st.EntryID})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("unable to find subentry %d", st.ID)
	}
	return sub, nil
}

func parseCustomID(customID string) (menuID uint64, verb, arg string, err error) {
	parts := strings.Split(customID, ":")
	if len(parts) < 3 || parts[0] != "hob" {
		return 0, "", "", fmt.Errorf("malformed custom ID %q", customID)
	}
	menuID, err = strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, "", "", fmt.Errorf("malformed menu ID in %q", customID)
	}
	verb = parts[2]
	if len(parts) > 3 {
		arg = parts[3]
	}
	return menuID, verb, arg, nil
}

func parseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected numeric ID, got %q", arg)
	}
	return id, nil
}

func turnPage(page int, direction string) int {
	switch direction {
	case "next":
		return page + 1
	case "prev":
		if page > 0 {
			return page - 1
		}
		return 0
	default:
		return 0
	}
}

func oneOffFromInputs(id uint64, inputs map[string]string) (OneOffEntry, error) {
	b, err := bingo.Parse(inputs["bingo"])
	if err != nil {
		return OneOffEntry{}, err
	}
	return OneOffEntry{
		ID:      id,
		Title:   inputs["title"],
		Comment: strings.TrimSpace(inputs["comment"]),
		Bingo:   b,
		Players: parsePlayers(inputs["players"]),
	}, nil
}

func ongoingFromInputs(id uint64, inputs map[string]string) OngoingEntry {
	return OngoingEntry{
		ID:      id,
		Title:   inputs["title"],
		Comment: strings.TrimSpace(inputs["comment"]),
	}
}

func subentryFromInputs(id, entryID uint64, inputs map[string]string) (Subentry, error) {
	b, err := bingo.Parse(inputs["bingo"])
	if err != nil {
		return Subentry{}, err
	}
	return Subentry{
		ID:      id,
		EntryID: entryID,
		Player:  inputs["player"],
		Value:   inputs["value"],
		Bingo:   b,
	}, nil
}

func parsePlayers(raw string) PlayerList {
	var players PlayerList
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			players = append(players, p)
		}
	}
	return players
}

func editPrompt(entry Entry) *Prompt {
	switch v := entry.(type) {
	case OneOffEntry:
		return &Prompt{
			Kind: PromptOneOffEntry,
			Prefill: map[string]string{
				"title":   v.Title,
				"players": v.Players.PlainList(),
				"bingo":   v.Bingo.Short(),
				"comment": v.Comment,
			},
		}
	case OngoingEntry:
		return &Prompt{
			Kind: PromptOngoingEntry,
			Prefill: map[string]string{
				"title":   v.Title,
				"comment": v.Comment,
			},
		}
	}
	return nil
}

func noticeMenu(color discord.Color, text string) *discord.Menu {
	return &discord.Menu{Components: []discord.Component{
		discord.Container{
			AccentColor: color,
			Components:  []discord.Component{discord.TextDisplay{Content: text}},
		},
	}}
}

func previewMenu(title string, body discord.TextDisplay) *discord.Menu {
	divider := discord.Separator{Divider: true}
	return &discord.Menu{Components: []discord.Component{
		discord.Container{
			AccentColor: discord.ColorBlue,
			Components: []discord.Component{
				discord.TextDisplay{Content: title},
				divider,
				body,
				divider,
			},
		},
	}}
}

func confirmDeletion(prefix, what string) *discord.Menu {
	return &discord.Menu{Components: []discord.Component{
		discord.Container{
			AccentColor: discord.ColorDanger,
			Components: []discord.Component{discord.Section{
				Text: []discord.TextDisplay{{Content: fmt.Sprintf(
					"## Confirm Deletion\nAre you sure you want to delete %s?", what,
				)}},
				Accessory: &discord.Button{
					CustomID: prefix + ":delete_confirm",
					Label:    "Delete",
					Style:    discord.StyleDanger,
				},
			}},
		},
	}}
}

func createEntryChooser(prefix string) *discord.Menu {
	oneoff := discord.Section{
		Text: []discord.TextDisplay{{Content: "## One-off Entry\n" +
			"Meant for one-off achievements by one or several players during a single bingo."}},
		Accessory: &discord.Button{
			CustomID: prefix + ":create_oneoff_confirm",
			Emoji:    "1️⃣",
			Label:    "Create One-off Entry",
			Style:    discord.StyleSuccess,
		},
	}
	ongoing := discord.Section{
		Text: []discord.TextDisplay{{Content: "## Iterative Entry\n" +
			"Supports subentries, which each possess their own player, bingo and achieved " +
			"'value' fields. Meant for achievements that can be improved upon (e.g. Highest XY)."}},
		Accessory: &discord.Button{
			CustomID: prefix + ":create_ongoing_confirm",
			Emoji:    "🔁",
			Label:    "Create Iterative Entry",
			Style:    discord.StyleSuccess,
		},
	}
	return &discord.Menu{Components: []discord.Component{
		discord.Container{Components: []discord.Component{
			discord.TextDisplay{Content: "# Choose HoB Entry Type"},
			oneoff,
			ongoing,
			discord.TextDisplay{Content: "-# All entries can be edited after creation."},
		}},
	}}
}
