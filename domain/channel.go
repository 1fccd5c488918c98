package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type ChannelType string

const (
	ChannelPublic  ChannelType = "public"
	ChannelPrivate ChannelType = "private"
)

// Channel is the durable membership record. It is distinct from the
// delivery-routing subscription held by the membership index: being a member
// does not mean being connected, and vice versa.
type Channel struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Type        ChannelType `json:"type"`
	Members     []UserID    `json:"members"`
	CreatedBy   UserID      `json:"createdBy"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (c Channel) ChannelID() ChannelID {
	return ChannelID(c.ID.String())
}

func (c Channel) HasMember(id UserID) bool {
	return slices.Contains(c.Members, id)
}

// VisibleTo reports whether the channel appears in a user's channel list:
// public channels are visible to everyone, private ones to members only.
func (c Channel) VisibleTo(id UserID) bool {
	return c.Type == ChannelPublic || c.HasMember(id)
}
