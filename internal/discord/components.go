// Package discord holds the outward message boundary: the component model
// menus are rendered into, and the Messenger interface the state machine and
// timeout supervisor call. Nothing in this repository implements the
// platform's gateway; the bot is only ever a caller of this boundary.
package discord

// Color is a message accent color.
type Color uint32

const (
	ColorBlue     Color = 0x3498db
	ColorDanger   Color = 0xe74c3c
	ColorWarning  Color = 0xf1c40f
	ColorPositive Color = 0x2ecc71
)

// ButtonStyle selects a button's visual treatment.
type ButtonStyle uint8

const (
	StylePrimary ButtonStyle = iota + 1
	StyleSecondary
	StyleSuccess
	StyleDanger
)

// MessageRef addresses one message in one channel.
type MessageRef struct {
	ChannelID uint64
	MessageID uint64
}

// Menu is a full message body built from components.
type Menu struct {
	Components []Component
}

// Component is one element of a menu. The set is closed: every variant lives
// in this package so DisableControls can walk the whole tree.
type Component interface {
	component()
}

// TextDisplay is a block of markdown text.
type TextDisplay struct {
	Content string
}

// Button is a clickable control routed by its CustomID.
type Button struct {
	CustomID string
	Label    string
	Emoji    string
	Style    ButtonStyle
	Disabled bool
}

// SelectOption is one choice in a select menu.
type SelectOption struct {
	Label       string
	Value       string
	Description string
}

// SelectMenu is a dropdown control routed by its CustomID.
type SelectMenu struct {
	CustomID    string
	Placeholder string
	Options     []SelectOption
	Disabled    bool
}

// ActionRow lays out a row of interactive controls.
type ActionRow struct {
	Buttons []Button
	Select  *SelectMenu
}

// Section pairs text with one accessory button.
type Section struct {
	Text      []TextDisplay
	Accessory *Button
}

// Separator is a visual divider.
type Separator struct {
	Divider bool
}

// Container groups components under an accent color.
type Container struct {
	AccentColor Color
	Components  []Component
}

func (TextDisplay) component() {}
func (ActionRow) component()   {}
func (Section) component()     {}
func (Separator) component()   {}
func (Container) component()   {}

// DisableControls returns a copy of the menu with every interactive control
// disabled, leaving all other content untouched. Applying it twice yields the
// same message, which is what makes the expiry edit idempotent.
func (m Menu) DisableControls() Menu {
	out := Menu{Components: make([]Component, len(m.Components))}
	for i, c := range m.Components {
		out.Components[i] = disableComponent(c)
	}
	return out
}

// AppendNotice adds a footnote to the menu's last container, or to the menu
// itself when it has none.
func (m Menu) AppendNotice(text string) Menu {
	note := TextDisplay{Content: text}
	for i := len(m.Components) - 1; i >= 0; i-- {
		if container, ok := m.Components[i].(Container); ok {
			container.Components = append(container.Components, note)
			m.Components[i] = container
			return m
		}
	}
	m.Components = append(m.Components, note)
	return m
}

func disableComponent(c Component) Component {
	switch v := c.(type) {
	case ActionRow:
		return disableActionRow(v)
	case Section:
		if v.Accessory != nil {
			accessory := *v.Accessory
			accessory.Disabled = true
			v.Accessory = &accessory
		}
		return v
	case Container:
		inner := make([]Component, len(v.Components))
		for i, cc := range v.Components {
			inner[i] = disableComponent(cc)
		}
		v.Components = inner
		return v
	default:
		return c
	}
}

func disableActionRow(row ActionRow) ActionRow {
	buttons := make([]Button, len(row.Buttons))
	for i, b := range row.Buttons {
		b.Disabled = true
		buttons[i] = b
	}
	row.Buttons = buttons

	if row.Select != nil {
		sel := *row.Select
		sel.Disabled = true
		row.Select = &sel
	}
	return row
}
