package domain

import "time"

// InboundMessage is a single user event delivered by a channel.
// For command messages the leading slash is already stripped: Command
// holds the keyword ("register", "md_42", ...) and Args the remaining
// whitespace-separated words. For plain text Command is empty and
// Content holds the raw message.
type InboundMessage struct {
	Channel   string
	ChatID    string
	SenderID  string
	Content   string
	Command   string
	Args      []string
	EventID   string // correlation ID for log lines
	Timestamp time.Time
}

func (m InboundMessage) IsCommand() bool { return m.Command != "" }

// OutboundMessage is a reply addressed back to a channel.
type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
	Format  string // "text" | "markdown"
}
