package domain

import "time"

// Ticket is the record behind one user's private support channel.
//
// The JSON tags match the persisted document layout; tickets written by
// earlier deployments load unchanged.
type Ticket struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ChannelID string    `json:"channelId"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"createdAt"`
	Closed    bool      `json:"closed"`
	// MessageID is the bot's welcome message in the channel, recorded so its
	// controls can be edited on close. Empty when the send failed; every
	// later step tolerates that.
	MessageID string `json:"messageId,omitempty"`
}

// Open reports whether the ticket is still open.
func (t Ticket) Open() bool {
	return !t.Closed
}
