package discord

import "context"

// Messenger is the outward message boundary. The session state machine and
// the timeout supervisor call it; the concrete client behind it belongs to
// the platform SDK layer.
type Messenger interface {
	// Send posts a menu to a channel and returns a reference to the new
	// message.
	Send(ctx context.Context, channelID uint64, menu Menu) (MessageRef, error)

	// Edit replaces a previously sent message's content.
	Edit(ctx context.Context, ref MessageRef, menu Menu) error

	// Fetch reads back a message's current components, used to disable the
	// controls of whatever is on screen when a session expires.
	Fetch(ctx context.Context, ref MessageRef) (Menu, error)
}
