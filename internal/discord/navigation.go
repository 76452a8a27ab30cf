package discord

import "fmt"

// NavRow builds the basic prev/indicator/next pagination row. Custom IDs are
// namespaced under idPrefix so the interaction router can find the session.
func NavRow(idPrefix string, page, totalPages int) ActionRow {
	return ActionRow{Buttons: navButtons(idPrefix, page, totalPages)}
}

// NavRowWithJump is NavRow plus first-page and jump-to-page buttons, used on
// long lists.
func NavRowWithJump(idPrefix string, page, totalPages int) ActionRow {
	buttons := navButtons(idPrefix, page, totalPages)

	first := Button{
		CustomID: idPrefix + ":goto_page:first",
		Label:    "First",
		Emoji:    "⏮️",
		Style:    StylePrimary,
		Disabled: page == 0,
	}
	jump := Button{
		CustomID: idPrefix + ":jump_page",
		Label:    "Jump to Page",
		Emoji:    "🔢",
		Style:    StyleSecondary,
		Disabled: totalPages == 0,
	}

	row := ActionRow{Buttons: make([]Button, 0, len(buttons)+2)}
	row.Buttons = append(row.Buttons, first)
	row.Buttons = append(row.Buttons, buttons...)
	row.Buttons = append(row.Buttons, jump)
	return row
}

// BackRow builds a lone Back button row for drill-down views.
func BackRow(idPrefix string) ActionRow {
	return ActionRow{Buttons: []Button{backButton(idPrefix)}}
}

// NavRowWithBack prepends a Back button to the basic pagination row, used on
// paginated drill-down views.
func NavRowWithBack(idPrefix string, page, totalPages int) ActionRow {
	buttons := navButtons(idPrefix, page, totalPages)

	row := ActionRow{Buttons: make([]Button, 0, len(buttons)+1)}
	row.Buttons = append(row.Buttons, backButton(idPrefix))
	row.Buttons = append(row.Buttons, buttons...)
	return row
}

func backButton(idPrefix string) Button {
	return Button{
		CustomID: idPrefix + ":back",
		Label:    "Back",
		Emoji:    "↩️",
		Style:    StyleSecondary,
	}
}

func navButtons(idPrefix string, page, totalPages int) []Button {
	lastPage := totalPages - 1
	if lastPage < 0 {
		lastPage = 0
	}

	return []Button{
		{
			CustomID: idPrefix + ":goto_page:prev",
			Emoji:    "◀️",
			Style:    StylePrimary,
			Disabled: page == 0,
		},
		{
			CustomID: "page_indicator",
			Label:    fmt.Sprintf("Page %d / %d", page+1, totalPages),
			Style:    StyleSuccess,
			Disabled: true,
		},
		{
			CustomID: idPrefix + ":goto_page:next",
			Emoji:    "▶️",
			Style:    StylePrimary,
			Disabled: page == lastPage,
		},
	}
}
