// Package domain contains core concepts of the chat system.
// This file defines Message entities and their lifecycle rules.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type ChannelID string

type UserID string

// ConnID identifies one live transport session. A user may own several
// connections at once (multiple tabs or devices).
type ConnID string

// DeletedMarker replaces the content of a soft-deleted message. The record
// keeps its position in history; clients render the marker in place.
const DeletedMarker = "This message was deleted"

// Message is the durable chat entity. It is created on send and mutated in
// place on edit or soft delete. It is never hard-deleted.
type Message struct {
	ID         uuid.UUID `json:"id"`
	ChannelID  ChannelID `json:"channelId"`
	SenderID   UserID    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	Lang       string    `json:"lang,omitempty"`
	IsDeleted  bool      `json:"isDeleted"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Editable reports whether the message still accepts content mutations.
// Soft delete is terminal.
func (m Message) Editable() bool {
	return !m.IsDeleted
}
