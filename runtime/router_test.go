package runtime

import (
	"context"
	"testing"

	"chatline/domain"
	"chatline/domain/event"
	"chatline/errors"

	"github.com/stretchr/testify/require"
)

type stubPipeline struct {
	cmds []domain.SendMessageCommand
	err  error
}

func (p *stubPipeline) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	p.cmds = append(p.cmds, cmd)
	return domain.Message{}, p.err
}

func newTestRouter() (*Router, *Registry, *Membership, *stubPipeline) {
	registry := NewRegistry()
	membership := NewMembership()
	router := NewRouter(testLogger(), registry, membership)

	presence := NewPresenceBroadcaster(testLogger(), registry, router)
	typing := NewTypingCoordinator(router)
	pipeline := &stubPipeline{}
	router.Attach(presence, typing, pipeline)

	return router, registry, membership, pipeline
}

func TestRouter_AddUser_Registers_And_Pushes_Presence(t *testing.T) {
	req := require.New(t)
	router, registry, _, _ := newTestRouter()
	conn := newFakeConn()

	// When the connection identifies itself
	err := router.HandleInbound(context.Background(), conn, []byte(`{"event":"add_user","data":"alice"}`))

	// Then the user is online and received the presence snapshot
	req.NoError(err)
	req.True(registry.IsOnline("alice"))
	req.Len(conn.events, 1)
	snapshot, ok := conn.events[0].(event.PresenceSnapshot)
	req.True(ok)
	req.Equal([]domain.UserID{"alice"}, snapshot.Users)
}

func TestRouter_Presence_Reaches_Every_Connection(t *testing.T) {
	req := require.New(t)
	router, _, _, _ := newTestRouter()
	ctx := context.Background()
	first := newFakeConn()
	second := newFakeConn()

	// Given one user already online
	router.AddUser(ctx, "alice", first)

	// When a second user connects
	router.AddUser(ctx, "bob", second)

	// Then both connections saw the updated full set
	last := first.events[len(first.events)-1].(event.PresenceSnapshot)
	req.Equal([]domain.UserID{"alice", "bob"}, last.Users)
	req.Equal([]domain.UserID{"alice", "bob"}, second.events[0].(event.PresenceSnapshot).Users)
}

func TestRouter_Typing_Stays_Inside_The_Channel(t *testing.T) {
	req := require.New(t)
	router, _, membership, _ := newTestRouter()
	ctx := context.Background()

	typist := newFakeConn()
	peer := newFakeConn()
	outsider := newFakeConn()
	membership.Subscribe(typist, "general")
	membership.Subscribe(peer, "general")
	membership.Subscribe(outsider, "random")

	// When the typist sends a typing event
	err := router.HandleInbound(ctx, typist, []byte(`{"event":"typing","data":{"channelId":"general","userId":"alice"}}`))
	req.NoError(err)

	// Then only the channel peer receives it, never the typist or the outsider
	req.Empty(typist.events)
	req.Empty(outsider.events)
	req.Len(peer.events, 1)
	started, ok := peer.events[0].(event.TypingStarted)
	req.True(ok)
	req.Equal(domain.UserID("alice"), started.User)
}

func TestRouter_Typing_Payload_Is_Validated(t *testing.T) {
	req := require.New(t)
	router, _, _, _ := newTestRouter()

	// When the payload misses the user id
	err := router.HandleInbound(context.Background(), newFakeConn(), []byte(`{"event":"typing","data":{"channelId":"general"}}`))

	// Then the event is rejected before any broadcast
	req.Error(err)
}

func TestRouter_SendMessage_Dispatches_To_The_Pipeline(t *testing.T) {
	req := require.New(t)
	router, _, _, pipeline := newTestRouter()

	err := router.HandleInbound(context.Background(), newFakeConn(),
		[]byte(`{"event":"send_message","data":{"senderId":"alice","channelId":"general","content":"hello"}}`))

	req.NoError(err)
	req.Len(pipeline.cmds, 1)
	req.Equal(domain.SendMessageCommand{
		SenderID:  "alice",
		ChannelID: "general",
		Content:   "hello",
	}, pipeline.cmds[0])
}

func TestRouter_Leave_Channel_Stops_Delivery(t *testing.T) {
	req := require.New(t)
	router, _, membership, _ := newTestRouter()
	ctx := context.Background()
	conn := newFakeConn()
	membership.Subscribe(conn, "general")

	// When the connection leaves the channel
	err := router.HandleInbound(ctx, conn, []byte(`{"event":"leave_channel","data":"general"}`))
	req.NoError(err)

	// Then channel broadcasts no longer reach it
	router.BroadcastChannel(ctx, "general", event.TypingStarted{Channel: "general", User: "alice"})
	req.Empty(conn.events)
}

func TestRouter_Slow_Consumer_Is_Dropped(t *testing.T) {
	req := require.New(t)
	router, registry, membership, _ := newTestRouter()
	ctx := context.Background()

	healthy := newFakeConn()
	slow := newFakeConn()
	slow.err = errors.ErrSlowConsumer

	registry.Register("alice", healthy)
	registry.Register("bob", slow)
	membership.Subscribe(healthy, "general")
	membership.Subscribe(slow, "general")

	// When a broadcast hits the full buffer
	router.BroadcastChannel(ctx, "general", event.TypingStarted{Channel: "general", User: "carol"})

	// Then the slow connection is closed and fully removed
	req.True(slow.closed)
	req.False(registry.IsOnline("bob"))
	subs := membership.SubscribersOf("general")
	req.Len(subs, 1)
	req.Equal(healthy.ID(), subs[0].ID())

	// And the healthy connection got the event plus the presence update
	req.True(registry.IsOnline("alice"))
	req.NotEmpty(healthy.events)
}

func TestRouter_Disconnect_Removes_Everywhere_And_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	router, registry, membership, _ := newTestRouter()
	ctx := context.Background()
	conn := newFakeConn()

	router.AddUser(ctx, "alice", conn)
	membership.Subscribe(conn, "general")
	membership.Subscribe(conn, "random")

	// When the connection disconnects twice
	router.Disconnect(ctx, conn)
	router.Disconnect(ctx, conn)

	// Then it is gone from the registry and every subscriber set
	req.True(conn.closed)
	req.False(registry.IsOnline("alice"))
	req.Nil(membership.SubscribersOf("general"))
	req.Nil(membership.SubscribersOf("random"))
}

func TestRouter_Rejects_Unknown_And_Malformed_Events(t *testing.T) {
	req := require.New(t)
	router, _, _, _ := newTestRouter()
	ctx := context.Background()
	conn := newFakeConn()

	req.Error(router.HandleInbound(ctx, conn, []byte(`{"event":"shrug","data":{}}`)))
	req.Error(router.HandleInbound(ctx, conn, []byte(`not json`)))

	// Errors concern the sender only: nothing was broadcast
	req.Empty(conn.events)
}
