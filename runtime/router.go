package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"chatline/contract"
	"chatline/domain"
	"chatline/domain/event"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Inbound is the envelope for every event a connection sends us.
type Inbound struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data"`
}

// Inbound event names accepted by the router.
const (
	EventAddUser      = "add_user"
	EventJoinChannel  = "join_channel"
	EventLeaveChannel = "leave_channel"
	EventTyping       = "typing"
	EventStopTyping   = "stop_typing"
	EventSendMessage  = "send_message"
)

type typingPayload struct {
	ChannelID string `json:"channelId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
}

type sendMessagePayload struct {
	SenderID  string `json:"senderId" validate:"required"`
	ChannelID string `json:"channelId" validate:"required"`
	Content   string `json:"content"`
}

// Router is the single ingress/egress multiplexer. It dispatches inbound
// events to the presence, typing, and delivery components, and it is the only
// place allowed to write to a connection's outbound stream: concurrent
// fan-outs to the same connection are serialized by the connection's buffer,
// so two overlapping broadcasts cannot interleave their encoded payloads.
type Router struct {
	log        *slog.Logger
	registry   contract.IRegistry
	membership contract.IMembership
	presence   *PresenceBroadcaster
	typing     *TypingCoordinator
	pipeline   contract.Pipeline
	validate   *validator.Validate
}

func NewRouter(log *slog.Logger, registry contract.IRegistry, membership contract.IMembership) *Router {
	return &Router{
		log:        log,
		registry:   registry,
		membership: membership,
		validate:   validator.New(),
	}
}

// Attach completes the wiring once the components that depend on the router
// as their Broadcaster have been built.
func (r *Router) Attach(presence *PresenceBroadcaster, typing *TypingCoordinator, pipeline contract.Pipeline) {
	r.presence = presence
	r.typing = typing
	r.pipeline = pipeline
}

// HandleInbound decodes and dispatches one event from a connection. Errors
// concern only the originating connection and are never broadcast.
func (r *Router) HandleInbound(ctx context.Context, conn contract.Connection, raw []byte) error {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("decoding inbound event: %w", err)
	}

	switch in.Event {
	case EventAddUser:
		var userID string
		if err := json.Unmarshal(in.Data, &userID); err != nil {
			return fmt.Errorf("decoding %s: %w", in.Event, err)
		}
		r.AddUser(ctx, domain.UserID(userID), conn)
		return nil

	case EventJoinChannel:
		var channelID string
		if err := json.Unmarshal(in.Data, &channelID); err != nil {
			return fmt.Errorf("decoding %s: %w", in.Event, err)
		}
		r.membership.Subscribe(conn, domain.ChannelID(channelID))
		return nil

	case EventLeaveChannel:
		var channelID string
		if err := json.Unmarshal(in.Data, &channelID); err != nil {
			return fmt.Errorf("decoding %s: %w", in.Event, err)
		}
		r.membership.Unsubscribe(conn.ID(), domain.ChannelID(channelID))
		return nil

	case EventTyping, EventStopTyping:
		var p typingPayload
		if err := json.Unmarshal(in.Data, &p); err != nil {
			return fmt.Errorf("decoding %s: %w", in.Event, err)
		}
		if err := r.validate.Struct(p); err != nil {
			return err
		}
		if in.Event == EventTyping {
			r.typing.MarkTyping(ctx, domain.ChannelID(p.ChannelID), domain.UserID(p.UserID), conn.ID())
		} else {
			r.typing.MarkStopped(ctx, domain.ChannelID(p.ChannelID), domain.UserID(p.UserID), conn.ID())
		}
		return nil

	case EventSendMessage:
		var p sendMessagePayload
		if err := json.Unmarshal(in.Data, &p); err != nil {
			return fmt.Errorf("decoding %s: %w", in.Event, err)
		}
		if err := r.validate.Struct(p); err != nil {
			return err
		}
		_, err := r.pipeline.Send(ctx, domain.SendMessageCommand{
			SenderID:  domain.UserID(p.SenderID),
			ChannelID: domain.ChannelID(p.ChannelID),
			Content:   p.Content,
		})
		return err

	default:
		return fmt.Errorf("unknown inbound event %q", in.Event)
	}
}

// AddUser registers the connection under its user identity and triggers a
// presence recomputation for everyone.
func (r *Router) AddUser(ctx context.Context, userID domain.UserID, conn contract.Connection) {
	r.registry.Register(userID, conn)
	r.presence.OnRegistryChange(ctx)
}

// Disconnect removes the connection from the registry and every subscriber
// set before broadcasting the new presence set, so no later fan-out can race
// the closed connection. Safe to call more than once per connection.
func (r *Router) Disconnect(ctx context.Context, conn contract.Connection) {
	r.registry.Unregister(conn.ID())
	r.membership.UnsubscribeAll(conn.ID())
	conn.Close()
	r.presence.OnRegistryChange(ctx)
}

// BroadcastAll pushes a workspace-global event to every registered
// connection.
func (r *Router) BroadcastAll(ctx context.Context, e event.DomainEvent) {
	for _, conn := range r.registry.Connections() {
		r.deliver(ctx, conn, e)
	}
}

// BroadcastChannel pushes an event to the connections subscribed to the
// channel at call time, minus the excluded ones.
func (r *Router) BroadcastChannel(ctx context.Context, channelID domain.ChannelID, e event.DomainEvent, exclude ...domain.ConnID) {
	skip := make(map[domain.ConnID]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	for _, conn := range r.membership.SubscribersOf(channelID) {
		if _, ok := skip[conn.ID()]; ok {
			continue
		}
		r.deliver(ctx, conn, e)
	}
}

// deliver is fire-and-forget per connection: a full outbound buffer means a
// slow consumer, which is dropped and disconnected rather than blocking the
// sender.
func (r *Router) deliver(ctx context.Context, conn contract.Connection, e event.DomainEvent) {
	if err := conn.Consume(ctx, e); err != nil {
		r.log.Warn("Dropping connection", "conn", conn.ID(), "event", e.EventName(), "error", err)
		r.Disconnect(ctx, conn)
	}
}
