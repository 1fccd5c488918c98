package runtime

import (
	"context"
	"testing"
	"time"

	"chatline/domain"
	"chatline/domain/event"

	"github.com/stretchr/testify/require"
)

func TestTyping_MarkTyping_Broadcasts_To_Channel_Excluding_Origin(t *testing.T) {
	req := require.New(t)
	bc := &captureBroadcaster{}
	typing := NewTypingCoordinator(bc)
	origin := domain.ConnID("conn-1")

	// When a user starts typing
	typing.MarkTyping(context.Background(), "general", "alice", origin)

	// Then exactly one scoped broadcast goes out, excluding the origin
	req.Len(bc.scoped, 1)
	rec := bc.scoped[0]
	req.Equal(domain.ChannelID("general"), rec.channel)
	req.Equal([]domain.ConnID{origin}, rec.exclude)

	started, ok := rec.event.(event.TypingStarted)
	req.True(ok)
	req.Equal(domain.UserID("alice"), started.User)
	req.Equal(domain.ChannelID("general"), started.Channel)
}

func TestTyping_MarkStopped_Broadcasts_Even_Without_Prior_Typing(t *testing.T) {
	req := require.New(t)
	bc := &captureBroadcaster{}
	typing := NewTypingCoordinator(bc)

	// When a stop arrives for a user who never started
	typing.MarkStopped(context.Background(), "general", "alice", "conn-1")

	// Then the stop still goes out
	req.Len(bc.scoped, 1)
	_, ok := bc.scoped[0].event.(event.TypingStopped)
	req.True(ok)
}

func TestTyping_ActiveTypists_Tracks_Per_Channel(t *testing.T) {
	req := require.New(t)
	typing := NewTypingCoordinator(&captureBroadcaster{})
	ctx := context.Background()

	// Given typists in two channels
	typing.MarkTyping(ctx, "general", "alice", "conn-1")
	typing.MarkTyping(ctx, "general", "bob", "conn-2")
	typing.MarkTyping(ctx, "random", "carol", "conn-3")

	// Then each channel only reports its own
	req.ElementsMatch([]domain.UserID{"alice", "bob"}, typing.ActiveTypists("general"))
	req.Equal([]domain.UserID{"carol"}, typing.ActiveTypists("random"))
}

func TestTyping_MarkStopped_Clears_The_State(t *testing.T) {
	req := require.New(t)
	typing := NewTypingCoordinator(&captureBroadcaster{})
	ctx := context.Background()

	typing.MarkTyping(ctx, "general", "alice", "conn-1")
	typing.MarkStopped(ctx, "general", "alice", "conn-1")

	req.Empty(typing.ActiveTypists("general"))
}

func TestTyping_Stale_State_Is_Pruned(t *testing.T) {
	req := require.New(t)
	typing := NewTypingCoordinator(&captureBroadcaster{})
	ctx := context.Background()

	current := time.Now()
	typing.now = func() time.Time { return current }

	// Given a typist whose refresh is about to expire
	typing.MarkTyping(ctx, "general", "alice", "conn-1")
	req.Len(typing.ActiveTypists("general"), 1)

	// When the staleness window passes without a refresh
	current = current.Add(TypingStaleAfter + time.Millisecond)

	// Then the state is gone
	req.Empty(typing.ActiveTypists("general"))
}

func TestTyping_Refresh_Extends_The_Window(t *testing.T) {
	req := require.New(t)
	typing := NewTypingCoordinator(&captureBroadcaster{})
	ctx := context.Background()

	current := time.Now()
	typing.now = func() time.Time { return current }

	typing.MarkTyping(ctx, "general", "alice", "conn-1")

	// When the client refreshes just before expiry
	current = current.Add(TypingStaleAfter - time.Millisecond)
	typing.MarkTyping(ctx, "general", "alice", "conn-1")

	// Then the state survives past the original deadline
	current = current.Add(TypingStaleAfter - time.Millisecond)
	req.Equal([]domain.UserID{"alice"}, typing.ActiveTypists("general"))
}
