// Package event defines the domain events fanned out to live connections.
package event

import (
	"chatline/domain"
)

// Name is the wire name of an outbound event.
type Name string

const (
	NameGetUsers       Name = "get_users"
	NameReceiveMessage Name = "receive_message"
	NameMessageUpdated Name = "message_updated"
	NameTyping         Name = "typing"
	NameStopTyping     Name = "stop_typing"
	NameNewChannel     Name = "new_channel"
)

// DomainEvent is anything the router can deliver to a connection.
// Scope() returns the channel the event belongs to, or empty for
// workspace-global events (presence, new channels).
type DomainEvent interface {
	EventName() Name
	Scope() domain.ChannelID
}

// PresenceSnapshot carries the full current online set, never a diff.
// Diffing drifts under rapid connect/disconnect churn; the full set is
// authoritative.
type PresenceSnapshot struct {
	Users []domain.UserID
}

func (e PresenceSnapshot) EventName() Name { return NameGetUsers }
func (e PresenceSnapshot) Scope() domain.ChannelID { return "" }

// MessageReceived announces a newly persisted message.
type MessageReceived struct {
	Message domain.Message
}

func (e MessageReceived) EventName() Name { return NameReceiveMessage }
func (e MessageReceived) Scope() domain.ChannelID { return e.Message.ChannelID }

// MessageChanged announces an edit or a soft delete. Deletion is delivered
// as a content mutation so clients keep the message's position in history.
type MessageChanged struct {
	Message domain.Message
}

func (e MessageChanged) EventName() Name { return NameMessageUpdated }
func (e MessageChanged) Scope() domain.ChannelID { return e.Message.ChannelID }

// TypingStarted is ephemeral and best-effort: never persisted, no failure
// path worth surfacing.
type TypingStarted struct {
	Channel domain.ChannelID
	User    domain.UserID
}

func (e TypingStarted) EventName() Name { return NameTyping }
func (e TypingStarted) Scope() domain.ChannelID { return e.Channel }

type TypingStopped struct {
	Channel domain.ChannelID
	User    domain.UserID
}

func (e TypingStopped) EventName() Name { return NameStopTyping }
func (e TypingStopped) Scope() domain.ChannelID { return e.Channel }

// ChannelAnnounced is broadcast to every connection when a channel is
// created or gains a member; clients filter relevance themselves.
type ChannelAnnounced struct {
	Channel domain.Channel
}

func (e ChannelAnnounced) EventName() Name { return NameNewChannel }
func (e ChannelAnnounced) Scope() domain.ChannelID { return "" }
