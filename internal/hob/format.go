package hob

import (
	"fmt"
	"time"

	"github.com/skybingo/bingobot/internal/discord"
)

const (
	overviewMaxChars      = 4000
	overviewMaxComponents = 40
)

// BuildOverview renders the full Hall of Bingo as a series of messages,
// oldest achievements first, splitting whenever the next entry would push a
// message past the platform's character or component limits. The last entry
// is followed by an update timestamp. Errors when a single entry cannot fit
// in a message, or when maxMessages is not enough to hold everything.
func BuildOverview(entries []Entry, maxMessages int) ([]discord.Menu, error) {
	const title = "# Hall of Bingo"

	footer := fmt.Sprintf("-# Last updated: <t:%d:f>", time.Now().Unix())

	type block struct {
		text   discord.TextDisplay
		length int
	}
	blocks := make([]block, 0, len(entries)+1)
	for i := len(entries) - 1; i >= 0; i-- {
		text, length := entries[i].display()
		blocks = append(blocks, block{text, length})
	}
	blocks = append(blocks, block{discord.TextDisplay{Content: footer}, len(footer)})

	var menus []discord.Menu
	current := []discord.Component{discord.TextDisplay{Content: title}}
	currentChars := len(title)

	flush := func() {
		menus = append(menus, discord.Menu{Components: []discord.Component{
			discord.Container{AccentColor: discord.ColorBlue, Components: current},
		}})
		current = nil
		currentChars = 0
	}

	for _, b := range blocks {
		if b.length > overviewMaxChars {
			return nil, fmt.Errorf("single entry exceeds message character limits by itself")
		}

		// Flush the message when the next block would not fit; +2 accounts
		// for the block and its separator.
		if currentChars+b.length > overviewMaxChars || len(current)+2 > overviewMaxComponents {
			flush()
			if len(menus) >= maxMessages {
				return nil, fmt.Errorf("reached configured limit of %d messages before processing all entries", maxMessages)
			}
		}

		if len(current) > 0 {
			current = append(current, discord.Separator{Divider: true})
		}
		current = append(current, b.text)
		currentChars += b.length
	}
	flush()

	return menus, nil
}
