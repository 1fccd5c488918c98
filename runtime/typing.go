package runtime

import (
	"context"
	"sync"
	"time"

	"chatline/contract"
	"chatline/domain"
	"chatline/domain/event"
)

// TypingStaleAfter is how long a typing state stays relevant without a
// refresh. The sender's client owns this timer and emits the stop signal;
// there is no server-side sweep, so a connection that dies mid-type leaves a
// stale indicator on peers until new activity arrives.
const TypingStaleAfter = 2 * time.Second

type typingKey struct {
	channel domain.ChannelID
	user    domain.UserID
}

// TypingCoordinator tracks ephemeral per-(channel,user) typing state.
// Nothing here is persisted or survives a restart; broadcasts are
// best-effort.
type TypingCoordinator struct {
	mu     sync.Mutex
	active map[typingKey]time.Time
	bc     contract.Broadcaster
	now    func() time.Time
}

func NewTypingCoordinator(bc contract.Broadcaster) *TypingCoordinator {
	return &TypingCoordinator{
		active: make(map[typingKey]time.Time),
		bc:     bc,
		now:    time.Now,
	}
}

// MarkTyping records or refreshes the typing state and notifies every
// subscriber of the channel except the originating connection.
func (t *TypingCoordinator) MarkTyping(ctx context.Context, channelID domain.ChannelID, userID domain.UserID, origin domain.ConnID) {
	t.mu.Lock()
	t.active[typingKey{channel: channelID, user: userID}] = t.now()
	t.mu.Unlock()

	t.bc.BroadcastChannel(ctx, channelID, event.TypingStarted{Channel: channelID, User: userID}, origin)
}

// MarkStopped removes the state if present. The stop broadcast goes out
// either way, so a redundant stop from a client is harmless.
func (t *TypingCoordinator) MarkStopped(ctx context.Context, channelID domain.ChannelID, userID domain.UserID, origin domain.ConnID) {
	t.mu.Lock()
	delete(t.active, typingKey{channel: channelID, user: userID})
	t.mu.Unlock()

	t.bc.BroadcastChannel(ctx, channelID, event.TypingStopped{Channel: channelID, User: userID}, origin)
}

// ActiveTypists returns the users whose typing state is still fresh for the
// channel, pruning stale entries as it reads.
func (t *TypingCoordinator) ActiveTypists(channelID domain.ChannelID) []domain.UserID {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-TypingStaleAfter)
	var users []domain.UserID
	for key, last := range t.active {
		if last.Before(cutoff) {
			delete(t.active, key)
			continue
		}
		if key.channel == channelID {
			users = append(users, key.user)
		}
	}
	return users
}
