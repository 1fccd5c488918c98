package domain

import "github.com/google/uuid"

// SendMessageCommand is the intent to append a new message to a channel.
// The sender identity is supplied by the authentication collaborator.
type SendMessageCommand struct {
	SenderID  UserID
	ChannelID ChannelID
	Content   string
}

// EditMessageCommand replaces the content of an existing message.
// Only the original sender may edit.
type EditMessageCommand struct {
	RequesterID UserID
	MessageID   uuid.UUID
	Content     string
}

// DeleteMessageCommand soft-deletes a message: the content is replaced by
// DeletedMarker and the record stays in history.
type DeleteMessageCommand struct {
	RequesterID UserID
	MessageID   uuid.UUID
}

// HistoryQuery fetches the persisted messages of a channel in ascending
// creation order, optionally restricted to a case-insensitive substring.
type HistoryQuery struct {
	ChannelID ChannelID
	Filter    *string
}
