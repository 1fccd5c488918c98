package runtime

import (
	"context"
	"testing"

	"chatline/domain"
	"chatline/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeConn records every event it consumes. A non-nil err makes it behave
// like a slow consumer.
type fakeConn struct {
	id     domain.ConnID
	events []event.DomainEvent
	err    error
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: domain.ConnID(uuid.NewString())}
}

func (c *fakeConn) ID() domain.ConnID { return c.id }

func (c *fakeConn) Consume(ctx context.Context, e event.DomainEvent) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, e)
	return nil
}

func (c *fakeConn) Close() { c.closed = true }

func TestRegistry_Register_One_User_One_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := domain.UserID(uuid.NewString())
	conn := newFakeConn()

	// Given nobody is connected
	req.False(registry.IsOnline(userID))
	req.Empty(registry.ListOnlineUserIDs())

	// When a user registers a connection
	registry.Register(userID, conn)

	// Then the user is online
	req.True(registry.IsOnline(userID))
	req.Equal([]domain.UserID{userID}, registry.ListOnlineUserIDs())
	req.Len(registry.Connections(), 1)
}

func TestRegistry_Register_Is_Idempotent_Per_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := domain.UserID(uuid.NewString())
	conn := newFakeConn()

	// When the same connection registers twice
	registry.Register(userID, conn)
	registry.Register(userID, conn)

	// Then only one connection is tracked
	req.Len(registry.Connections(), 1)
	req.Len(registry.ListOnlineUserIDs(), 1)
}

func TestRegistry_User_Stays_Online_Until_Last_Connection_Gone(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := domain.UserID(uuid.NewString())
	laptop := newFakeConn()
	phone := newFakeConn()

	// Given a user connected from two devices
	registry.Register(userID, laptop)
	registry.Register(userID, phone)
	req.Len(registry.Connections(), 2)
	req.Equal([]domain.UserID{userID}, registry.ListOnlineUserIDs())

	// When one device disconnects
	registry.Unregister(laptop.ID())

	// Then the user is still online
	req.True(registry.IsOnline(userID))

	// When the last device disconnects
	registry.Unregister(phone.ID())

	// Then the user is offline
	req.False(registry.IsOnline(userID))
	req.Empty(registry.ListOnlineUserIDs())
	req.Empty(registry.Connections())
}

func TestRegistry_Unregister_Unknown_Connection_Is_NoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := domain.UserID(uuid.NewString())
	conn := newFakeConn()
	registry.Register(userID, conn)

	// When an unknown connection unregisters
	registry.Unregister(domain.ConnID(uuid.NewString()))

	// Then nothing changes
	req.True(registry.IsOnline(userID))
	req.Len(registry.Connections(), 1)
}

func TestRegistry_Unregister_Twice_Is_Harmless(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := domain.UserID(uuid.NewString())
	conn := newFakeConn()
	registry.Register(userID, conn)

	// When the same connection unregisters twice
	registry.Unregister(conn.ID())
	registry.Unregister(conn.ID())

	// Then the registry is empty and no panic occurred
	req.False(registry.IsOnline(userID))
	req.Empty(registry.Connections())
}

func TestRegistry_ListOnlineUserIDs_Is_Sorted(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Register(domain.UserID("charlie"), newFakeConn())
	registry.Register(domain.UserID("alice"), newFakeConn())
	registry.Register(domain.UserID("bob"), newFakeConn())

	req.Equal([]domain.UserID{"alice", "bob", "charlie"}, registry.ListOnlineUserIDs())
}
