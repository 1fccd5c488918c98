// Package ws is the websocket transport edge: it upgrades HTTP connections,
// runs the read/write pumps, and encodes outbound domain events.
package ws

import (
	"fmt"

	"chatline/domain"
	"chatline/domain/event"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope is the wire frame for every outbound event.
type Envelope struct {
	Event event.Name  `json:"event"`
	Data  interface{} `json:"data"`
}

type typingData struct {
	ChannelID domain.ChannelID `json:"channelId"`
	UserID    domain.UserID    `json:"userId"`
}

// EncodeEvent maps a domain event onto its wire payload. Presence carries the
// bare user-id list; typing events carry the channel and the typist; message
// events carry the full message.
func EncodeEvent(e event.DomainEvent) ([]byte, error) {
	env := Envelope{Event: e.EventName()}

	switch evt := e.(type) {
	case event.PresenceSnapshot:
		env.Data = evt.Users
	case event.MessageReceived:
		env.Data = evt.Message
	case event.MessageChanged:
		env.Data = evt.Message
	case event.TypingStarted:
		env.Data = typingData{ChannelID: evt.Channel, UserID: evt.User}
	case event.TypingStopped:
		env.Data = typingData{ChannelID: evt.Channel, UserID: evt.User}
	case event.ChannelAnnounced:
		env.Data = evt.Channel
	default:
		return nil, fmt.Errorf("no wire encoding for event %q", e.EventName())
	}

	return json.Marshal(env)
}
