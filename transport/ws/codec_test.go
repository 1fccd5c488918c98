package ws

import (
	"testing"
	"time"

	"chatline/domain"
	"chatline/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEncodeEvent_Presence_Carries_Bare_UserIDs(t *testing.T) {
	req := require.New(t)

	payload, err := EncodeEvent(event.PresenceSnapshot{Users: []domain.UserID{"alice", "bob"}})

	req.NoError(err)
	req.JSONEq(`{"event":"get_users","data":["alice","bob"]}`, string(payload))
}

func TestEncodeEvent_Message_Carries_Full_Record(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	msg := domain.Message{
		ID:         uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		ChannelID:  "general",
		SenderID:   "alice",
		SenderName: "alice",
		Content:    "hello",
		CreatedAt:  at,
		UpdatedAt:  at,
	}

	payload, err := EncodeEvent(event.MessageReceived{Message: msg})

	req.NoError(err)
	req.JSONEq(`{
		"event": "receive_message",
		"data": {
			"id": "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			"channelId": "general",
			"senderId": "alice",
			"senderName": "alice",
			"content": "hello",
			"isDeleted": false,
			"createdAt": "2026-03-14T09:00:00Z",
			"updatedAt": "2026-03-14T09:00:00Z"
		}
	}`, string(payload))
}

func TestEncodeEvent_Deletion_Rides_The_Update_Event(t *testing.T) {
	req := require.New(t)
	msg := domain.Message{
		ID:        uuid.New(),
		ChannelID: "general",
		SenderID:  "alice",
		Content:   domain.DeletedMarker,
		IsDeleted: true,
	}

	payload, err := EncodeEvent(event.MessageChanged{Message: msg})

	req.NoError(err)
	req.Contains(string(payload), `"event":"message_updated"`)
	req.Contains(string(payload), `"isDeleted":true`)
	req.Contains(string(payload), domain.DeletedMarker)
}

func TestEncodeEvent_Typing_Carries_Channel_And_User(t *testing.T) {
	req := require.New(t)

	started, err := EncodeEvent(event.TypingStarted{Channel: "general", User: "alice"})
	req.NoError(err)
	req.JSONEq(`{"event":"typing","data":{"channelId":"general","userId":"alice"}}`, string(started))

	stopped, err := EncodeEvent(event.TypingStopped{Channel: "general", User: "alice"})
	req.NoError(err)
	req.JSONEq(`{"event":"stop_typing","data":{"channelId":"general","userId":"alice"}}`, string(stopped))
}

func TestEncodeEvent_Channel_Announcement(t *testing.T) {
	req := require.New(t)
	channel := domain.Channel{ID: uuid.New(), Name: "general", Type: domain.ChannelPublic}

	payload, err := EncodeEvent(event.ChannelAnnounced{Channel: channel})

	req.NoError(err)
	req.Contains(string(payload), `"event":"new_channel"`)
	req.Contains(string(payload), `"name":"general"`)
}
