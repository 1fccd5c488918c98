package contract

import (
	"chatline/domain"
	"chatline/domain/event"
	"context"
	"reflect"
)

// Connection is one live transport session. Consume enqueues an event on the
// connection's bounded outbound buffer and must never block: a full buffer
// returns errors.ErrSlowConsumer and the router disconnects the peer.
type Connection interface {
	ID() domain.ConnID
	Consume(ctx context.Context, e event.DomainEvent) error
	Close()
}

// IRegistry is the source of truth for "who is online". Presence is keyed by
// user, not by connection: a user is online while at least one of their
// connections is registered.
type IRegistry interface {
	Register(userID domain.UserID, conn Connection)
	Unregister(connID domain.ConnID)
	IsOnline(userID domain.UserID) bool
	ListOnlineUserIDs() []domain.UserID
	Connections() []Connection
}

// IMembership maps a channel to the set of connections subscribed to its
// events. Subscription is a delivery-routing concern only; durable channel
// membership lives in the ChannelStore and is checked by callers beforehand.
type IMembership interface {
	Subscribe(conn Connection, channelID domain.ChannelID)
	Unsubscribe(connID domain.ConnID, channelID domain.ChannelID)
	UnsubscribeAll(connID domain.ConnID)
	SubscribersOf(channelID domain.ChannelID) []Connection
}

// Broadcaster is the single authority for outbound writes. Every component
// that needs to reach connections goes through it, never through the
// underlying maps.
type Broadcaster interface {
	BroadcastAll(ctx context.Context, e event.DomainEvent)
	BroadcastChannel(ctx context.Context, channelID domain.ChannelID, e event.DomainEvent, exclude ...domain.ConnID)
}

// Pipeline is the message delivery pipeline as seen from the router: the
// socket path only ever sends; edits and deletes arrive over HTTP and reach
// the same fan-out inside the pipeline.
type Pipeline interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
}

type WorkerName string

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
