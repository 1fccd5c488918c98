package runtime

import (
	"testing"

	"chatline/domain"

	"github.com/stretchr/testify/require"
)

func TestMembership_Subscribe_One_Channel(t *testing.T) {
	req := require.New(t)
	membership := NewMembership()
	conn := newFakeConn()
	channelID := domain.ChannelID("general")

	// Given an empty index
	req.Nil(membership.SubscribersOf(channelID))

	// When a connection subscribes
	membership.Subscribe(conn, channelID)

	// Then it is part of the fan-out set
	subs := membership.SubscribersOf(channelID)
	req.Len(subs, 1)
	req.Equal(conn.ID(), subs[0].ID())
}

func TestMembership_Subscribe_Multiple_Channels(t *testing.T) {
	req := require.New(t)
	membership := NewMembership()
	conn := newFakeConn()

	// When one connection subscribes to two channels
	membership.Subscribe(conn, "general")
	membership.Subscribe(conn, "random")

	// Then it appears in both fan-out sets
	req.Len(membership.SubscribersOf("general"), 1)
	req.Len(membership.SubscribersOf("random"), 1)
}

func TestMembership_Unsubscribe_Removes_From_One_Channel_Only(t *testing.T) {
	req := require.New(t)
	membership := NewMembership()
	conn := newFakeConn()
	membership.Subscribe(conn, "general")
	membership.Subscribe(conn, "random")

	// When the connection leaves one channel
	membership.Unsubscribe(conn.ID(), "general")

	// Then only the other channel still routes to it
	req.Nil(membership.SubscribersOf("general"))
	req.Len(membership.SubscribersOf("random"), 1)
}

func TestMembership_UnsubscribeAll_Clears_Every_Channel(t *testing.T) {
	req := require.New(t)
	membership := NewMembership()
	leaving := newFakeConn()
	staying := newFakeConn()
	membership.Subscribe(leaving, "general")
	membership.Subscribe(leaving, "random")
	membership.Subscribe(staying, "general")

	// When a connection disconnects
	membership.UnsubscribeAll(leaving.ID())

	// Then no channel keeps a reference to it
	subs := membership.SubscribersOf("general")
	req.Len(subs, 1)
	req.Equal(staying.ID(), subs[0].ID())
	req.Nil(membership.SubscribersOf("random"))
}

func TestMembership_Unsubscribe_Unknown_Is_NoOp(t *testing.T) {
	req := require.New(t)
	membership := NewMembership()
	conn := newFakeConn()
	membership.Subscribe(conn, "general")

	// When an unknown connection unsubscribes
	membership.Unsubscribe("nope", "general")
	membership.UnsubscribeAll("nope")

	// Then the existing subscription is untouched
	req.Len(membership.SubscribersOf("general"), 1)
}
