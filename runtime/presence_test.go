package runtime

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"chatline/domain"
	"chatline/domain/event"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type broadcastRecord struct {
	channel domain.ChannelID
	event   event.DomainEvent
	exclude []domain.ConnID
}

// captureBroadcaster records broadcasts instead of delivering them.
type captureBroadcaster struct {
	global []event.DomainEvent
	scoped []broadcastRecord
}

func (b *captureBroadcaster) BroadcastAll(ctx context.Context, e event.DomainEvent) {
	b.global = append(b.global, e)
}

func (b *captureBroadcaster) BroadcastChannel(ctx context.Context, channelID domain.ChannelID, e event.DomainEvent, exclude ...domain.ConnID) {
	b.scoped = append(b.scoped, broadcastRecord{channel: channelID, event: e, exclude: exclude})
}

func TestPresence_Broadcasts_Full_Online_Set(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	bc := &captureBroadcaster{}
	presence := NewPresenceBroadcaster(testLogger(), registry, bc)

	// Given two users online
	registry.Register(domain.UserID("bob"), newFakeConn())
	registry.Register(domain.UserID("alice"), newFakeConn())

	// When the registry changes
	presence.OnRegistryChange(context.Background())

	// Then the full sorted set goes out as one global broadcast
	req.Len(bc.global, 1)
	snapshot, ok := bc.global[0].(event.PresenceSnapshot)
	req.True(ok)
	req.Equal([]domain.UserID{"alice", "bob"}, snapshot.Users)
}

func TestPresence_Broadcasts_Empty_Set_When_Last_User_Leaves(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	bc := &captureBroadcaster{}
	presence := NewPresenceBroadcaster(testLogger(), registry, bc)

	conn := newFakeConn()
	registry.Register(domain.UserID("alice"), conn)
	registry.Unregister(conn.ID())

	// When the registry changes after the last disconnect
	presence.OnRegistryChange(context.Background())

	// Then the snapshot is empty, not absent
	req.Len(bc.global, 1)
	snapshot := bc.global[0].(event.PresenceSnapshot)
	req.Empty(snapshot.Users)
}
