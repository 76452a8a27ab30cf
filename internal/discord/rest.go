package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Component type discriminators and message flags from the platform API.
const (
	typeActionRow   = 1
	typeButton      = 2
	typeSelect      = 3
	typeSection     = 9
	typeTextDisplay = 10
	typeSeparator   = 14
	typeContainer   = 17

	flagComponentsV2 = 1 << 15
)

// RESTMessenger implements Messenger over the platform's REST API. It covers
// exactly the three calls the core needs; everything else belongs to the SDK
// glue outside this repository.
type RESTMessenger struct {
	httpClient *http.Client
	token      string
	baseURL    string
}

// NewRESTMessenger builds a messenger authenticating with the given bot
// token.
func NewRESTMessenger(token string) *RESTMessenger {
	return &RESTMessenger{
		httpClient: &http.Client{},
		token:      token,
		baseURL:    "https://discord.com/api/v10",
	}
}

type wireMessage struct {
	ID         string            `json:"id,omitempty"`
	Flags      int               `json:"flags"`
	Components []json.RawMessage `json:"components"`
}

// Send posts a menu and returns the created message's reference.
func (m *RESTMessenger) Send(ctx context.Context, channelID uint64, menu Menu) (MessageRef, error) {
	url := fmt.Sprintf("%s/channels/%d/messages", m.baseURL, channelID)

	var created wireMessage
	if err := m.do(ctx, http.MethodPost, url, &menu, &created); err != nil {
		return MessageRef{}, fmt.Errorf("failed to send menu message: %w", err)
	}

	messageID, err := strconv.ParseUint(created.ID, 10, 64)
	if err != nil {
		return MessageRef{}, fmt.Errorf("unexpected message ID %q: %w", created.ID, err)
	}
	return MessageRef{ChannelID: channelID, MessageID: messageID}, nil
}

// Edit replaces the referenced message's components.
func (m *RESTMessenger) Edit(ctx context.Context, ref MessageRef, menu Menu) error {
	url := fmt.Sprintf("%s/channels/%d/messages/%d", m.baseURL, ref.ChannelID, ref.MessageID)
	if err := m.do(ctx, http.MethodPatch, url, &menu, nil); err != nil {
		return fmt.Errorf("failed to edit menu message: %w", err)
	}
	return nil
}

// Fetch reads the referenced message's components back into a Menu.
func (m *RESTMessenger) Fetch(ctx context.Context, ref MessageRef) (Menu, error) {
	url := fmt.Sprintf("%s/channels/%d/messages/%d", m.baseURL, ref.ChannelID, ref.MessageID)

	var fetched wireMessage
	if err := m.do(ctx, http.MethodGet, url, nil, &fetched); err != nil {
		return Menu{}, fmt.Errorf("failed to fetch menu message: %w", err)
	}

	menu := Menu{}
	for _, raw := range fetched.Components {
		c, err := decodeComponent(raw)
		if err != nil {
			return Menu{}, err
		}
		if c != nil {
			menu.Components = append(menu.Components, c)
		}
	}
	return menu, nil
}

func (m *RESTMessenger) do(ctx context.Context, method, url string, menu *Menu, out any) error {
	var body io.Reader
	if menu != nil {
		payload := wireMessage{Flags: flagComponentsV2}
		for _, c := range menu.Components {
			raw, err := json.Marshal(encodeComponent(c))
			if err != nil {
				return err
			}
			payload.Components = append(payload.Components, raw)
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+m.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned %s: %s", resp.Status, detail)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func encodeComponent(c Component) map[string]any {
	switch v := c.(type) {
	case TextDisplay:
		return map[string]any{"type": typeTextDisplay, "content": v.Content}
	case Separator:
		return map[string]any{"type": typeSeparator, "divider": v.Divider}
	case ActionRow:
		var inner []map[string]any
		for _, b := range v.Buttons {
			inner = append(inner, encodeButton(b))
		}
		if v.Select != nil {
			var options []map[string]any
			for _, o := range v.Select.Options {
				options = append(options, map[string]any{
					"label": o.Label, "value": o.Value, "description": o.Description,
				})
			}
			inner = append(inner, map[string]any{
				"type":        typeSelect,
				"custom_id":   v.Select.CustomID,
				"placeholder": v.Select.Placeholder,
				"options":     options,
				"disabled":    v.Select.Disabled,
			})
		}
		return map[string]any{"type": typeActionRow, "components": inner}
	case Section:
		var texts []map[string]any
		for _, t := range v.Text {
			texts = append(texts, map[string]any{"type": typeTextDisplay, "content": t.Content})
		}
		section := map[string]any{"type": typeSection, "components": texts}
		if v.Accessory != nil {
			section["accessory"] = encodeButton(*v.Accessory)
		}
		return section
	case Container:
		var inner []map[string]any
		for _, cc := range v.Components {
			inner = append(inner, encodeComponent(cc))
		}
		return map[string]any{
			"type":         typeContainer,
			"accent_color": uint32(v.AccentColor),
			"components":   inner,
		}
	default:
		return map[string]any{}
	}
}

func encodeButton(b Button) map[string]any {
	button := map[string]any{
		"type":      typeButton,
		"style":     int(b.Style),
		"custom_id": b.CustomID,
		"disabled":  b.Disabled,
	}
	if b.Label != "" {
		button["label"] = b.Label
	}
	if b.Emoji != "" {
		button["emoji"] = map[string]any{"name": b.Emoji}
	}
	return button
}

type wireComponent struct {
	Type        int               `json:"type"`
	Content     string            `json:"content"`
	CustomID    string            `json:"custom_id"`
	Label       string            `json:"label"`
	Style       int               `json:"style"`
	Disabled    bool              `json:"disabled"`
	Divider     bool              `json:"divider"`
	Placeholder string            `json:"placeholder"`
	AccentColor uint32            `json:"accent_color"`
	Emoji       *struct{ Name string } `json:"emoji"`
	Accessory   json.RawMessage   `json:"accessory"`
	Components  []json.RawMessage `json:"components"`
	Options     []SelectOption    `json:"options"`
}

func decodeComponent(raw json.RawMessage) (Component, error) {
	var w wireComponent
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("unexpected component payload: %w", err)
	}

	switch w.Type {
	case typeTextDisplay:
		return TextDisplay{Content: w.Content}, nil
	case typeSeparator:
		return Separator{Divider: w.Divider}, nil
	case typeActionRow:
		row := ActionRow{}
		for _, inner := range w.Components {
			var iw wireComponent
			if err := json.Unmarshal(inner, &iw); err != nil {
				return nil, err
			}
			switch iw.Type {
			case typeButton:
				row.Buttons = append(row.Buttons, decodeButton(iw))
			case typeSelect:
				row.Select = &SelectMenu{
					CustomID:    iw.CustomID,
					Placeholder: iw.Placeholder,
					Options:     iw.Options,
					Disabled:    iw.Disabled,
				}
			}
		}
		return row, nil
	case typeSection:
		section := Section{}
		for _, inner := range w.Components {
			var iw wireComponent
			if err := json.Unmarshal(inner, &iw); err != nil {
				return nil, err
			}
			if iw.Type == typeTextDisplay {
				section.Text = append(section.Text, TextDisplay{Content: iw.Content})
			}
		}
		if len(w.Accessory) > 0 {
			var aw wireComponent
			if err := json.Unmarshal(w.Accessory, &aw); err != nil {
				return nil, err
			}
			if aw.Type == typeButton {
				b := decodeButton(aw)
				section.Accessory = &b
			}
		}
		return section, nil
	case typeContainer:
		container := Container{AccentColor: Color(w.AccentColor)}
		for _, inner := range w.Components {
			c, err := decodeComponent(inner)
			if err != nil {
				return nil, err
			}
			if c != nil {
				container.Components = append(container.Components, c)
			}
		}
		return container, nil
	default:
		// Unknown component kinds are preserved as nothing: the expiry edit
		// only needs the parts it can disable or re-render.
		return nil, nil
	}
}

func decodeButton(w wireComponent) Button {
	b := Button{
		CustomID: w.CustomID,
		Label:    w.Label,
		Style:    ButtonStyle(w.Style),
		Disabled: w.Disabled,
	}
	if w.Emoji != nil {
		b.Emoji = w.Emoji.Name
	}
	return b
}
