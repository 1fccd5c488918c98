package runtime

import (
	"sync"

	"chatline/contract"
	"chatline/domain"
)

// Membership indexes which connections receive a channel's events. It holds
// no policy: access control happens before Subscribe is called. A connection
// may subscribe to any number of channels; joins and leaves are always
// explicit, never implied by message activity.
type Membership struct {
	mu       sync.RWMutex
	byChan   map[domain.ChannelID]map[domain.ConnID]contract.Connection
	channels map[domain.ConnID]map[domain.ChannelID]struct{}
}

func NewMembership() *Membership {
	return &Membership{
		byChan:   make(map[domain.ChannelID]map[domain.ConnID]contract.Connection),
		channels: make(map[domain.ConnID]map[domain.ChannelID]struct{}),
	}
}

func (m *Membership) Subscribe(conn contract.Connection, channelID domain.ChannelID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byChan[channelID]; !ok {
		m.byChan[channelID] = make(map[domain.ConnID]contract.Connection)
	}
	m.byChan[channelID][conn.ID()] = conn

	if _, ok := m.channels[conn.ID()]; !ok {
		m.channels[conn.ID()] = make(map[domain.ChannelID]struct{})
	}
	m.channels[conn.ID()][channelID] = struct{}{}
}

func (m *Membership) Unsubscribe(connID domain.ConnID, channelID domain.ChannelID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drop(connID, channelID)
}

// UnsubscribeAll is called on disconnect, so no channel keeps a dangling
// reference to a closed connection.
func (m *Membership) UnsubscribeAll(connID domain.ConnID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for channelID := range m.channels[connID] {
		m.drop(connID, channelID)
	}
}

// drop expects m.mu held.
func (m *Membership) drop(connID domain.ConnID, channelID domain.ChannelID) {
	if subs, ok := m.byChan[channelID]; ok {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(m.byChan, channelID)
		}
	}
	if chans, ok := m.channels[connID]; ok {
		delete(chans, channelID)
		if len(chans) == 0 {
			delete(m.channels, connID)
		}
	}
}

// SubscribersOf returns a snapshot of the fan-out set at call time.
func (m *Membership) SubscribersOf(channelID domain.ChannelID) []contract.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs, ok := m.byChan[channelID]
	if !ok {
		return nil
	}
	conns := make([]contract.Connection, 0, len(subs))
	for _, conn := range subs {
		conns = append(conns, conn)
	}
	return conns
}
