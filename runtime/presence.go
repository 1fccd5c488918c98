package runtime

import (
	"context"
	"log/slog"

	"chatline/contract"
	"chatline/domain/event"
)

// PresenceBroadcaster pushes the authoritative online set to every
// connection whenever the registry changes. It always sends the full set,
// never a diff: a page reload produces a disconnect and a reconnect within
// milliseconds, and diffing drifts under that churn. Presence is
// workspace-global, not per-channel.
type PresenceBroadcaster struct {
	log      *slog.Logger
	registry contract.IRegistry
	bc       contract.Broadcaster
}

func NewPresenceBroadcaster(log *slog.Logger, registry contract.IRegistry, bc contract.Broadcaster) *PresenceBroadcaster {
	return &PresenceBroadcaster{log: log, registry: registry, bc: bc}
}

// OnRegistryChange recomputes the online set and broadcasts it to all
// registered connections.
func (p *PresenceBroadcaster) OnRegistryChange(ctx context.Context) {
	users := p.registry.ListOnlineUserIDs()
	p.log.Debug("Broadcasting presence", "online", len(users))
	p.bc.BroadcastAll(ctx, event.PresenceSnapshot{Users: users})
}
