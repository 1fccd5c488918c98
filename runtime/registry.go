// Package runtime hosts the realtime core: the connection registry, the
// channel membership index, presence, typing, and the event router. It
// orchestrates delivery without containing business logic or domain rules.
package runtime

import (
	"sort"
	"sync"

	"chatline/contract"
	"chatline/domain"
)

type Set map[domain.ConnID]struct{}

// Registry maps user identities to their live connections. It is one of the
// two pieces of shared mutable state in the system; all mutation goes through
// its methods so membership invariants hold under arbitrary interleavings.
type Registry struct {
	mu     sync.RWMutex
	conns  map[domain.ConnID]contract.Connection
	owners map[domain.ConnID]domain.UserID
	byUser map[domain.UserID]Set
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[domain.ConnID]contract.Connection),
		owners: make(map[domain.ConnID]domain.UserID),
		byUser: make(map[domain.UserID]Set),
	}
}

// Register associates a connection with a user. Idempotent per connection id:
// re-registering a known connection is a no-op, and the owning user is set
// once and never rebound.
func (r *Registry) Register(userID domain.UserID, conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := conn.ID()
	if _, ok := r.conns[id]; ok {
		return
	}
	r.conns[id] = conn
	r.owners[id] = userID

	if _, ok := r.byUser[userID]; !ok {
		r.byUser[userID] = make(Set)
	}
	r.byUser[userID][id] = struct{}{}
}

// Unregister removes a connection. Unknown connections are a no-op, which
// makes duplicate disconnect notifications harmless. The user goes offline
// only when their last connection is gone.
func (r *Registry) Unregister(connID domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)
	delete(r.owners, connID)

	if owned, ok := r.byUser[userID]; ok {
		delete(owned, connID)
		if len(owned) == 0 {
			delete(r.byUser, userID)
		}
	}
}

func (r *Registry) IsOnline(userID domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// ListOnlineUserIDs recomputes the presence set on every call; it is never
// maintained incrementally. Sorted for deterministic payloads.
func (r *Registry) ListOnlineUserIDs() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.UserID, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// Connections returns a snapshot of every registered connection, so callers
// can fan out without holding the registry lock.
func (r *Registry) Connections() []contract.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]contract.Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}
