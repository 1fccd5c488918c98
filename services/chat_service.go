package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"chatline/contract"
	"chatline/domain"
	"chatline/domain/event"
	"chatline/errors"
	"chatline/moderation"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

type IChatService interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	Edit(ctx context.Context, cmd domain.EditMessageCommand) (domain.Message, error)
	SoftDelete(ctx context.Context, cmd domain.DeleteMessageCommand) (domain.Message, error)
	FetchHistory(ctx context.Context, q domain.HistoryQuery) ([]domain.Message, error)
}

// ChatService is the message delivery pipeline: it applies a send, edit, or
// soft-delete intent to storage, then fans the resulting event out to the
// channel's subscribers. Persistence is the only suspension point on the hot
// path; a storage failure aborts the operation with no partial fan-out.
//
// Sends within one channel are serialized by a per-channel lock, so all
// subscribers observe them in persisted order. Sends to different channels
// proceed concurrently. No order is promised across channels.
type ChatService struct {
	log       *slog.Logger
	messages  contract.MessageStore
	users     contract.UserStore
	bc        contract.Broadcaster
	moderator moderation.Moderator

	mu    sync.Mutex
	locks map[domain.ChannelID]*sync.Mutex

	now func() time.Time
}

func NewChatService(log *slog.Logger, messages contract.MessageStore, users contract.UserStore,
	bc contract.Broadcaster, moderator moderation.Moderator) *ChatService {
	return &ChatService{
		log:       log,
		messages:  messages,
		users:     users,
		bc:        bc,
		moderator: moderator,
		locks:     make(map[domain.ChannelID]*sync.Mutex),
		now:       time.Now,
	}
}

// channelLock serializes pipeline writes for one channel.
func (s *ChatService) channelLock(channelID domain.ChannelID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[channelID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[channelID] = lock
	}
	return lock
}

// Send persists a new message and fans it out to the connections subscribed
// to the channel at call time. The sender's own connections receive it
// through the same fan-out; the sender needs no subscription of its own.
func (s *ChatService) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if strings.TrimSpace(cmd.Content) == "" {
		return domain.Message{}, errors.ErrEmptyContent
	}

	sender, err := s.users.GetUserByID(ctx, cmd.SenderID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("resolving sender %s: %w", cmd.SenderID, err)
	}

	content, censored := s.moderator.Censor(cmd.Content)
	if len(censored) > 0 {
		s.log.Info("Censored message content", "channel", cmd.ChannelID, "sender", cmd.SenderID, "patterns", len(censored))
	}
	info := whatlanggo.Detect(content)

	lock := s.channelLock(cmd.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	now := s.now().UTC()
	msg := domain.Message{
		ID:         uuid.New(),
		ChannelID:  cmd.ChannelID,
		SenderID:   cmd.SenderID,
		SenderName: sender.Username,
		Content:    content,
		Lang:       info.Lang.Iso6391(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("persisting message: %w", err)
	}

	s.bc.BroadcastChannel(ctx, cmd.ChannelID, event.MessageReceived{Message: msg})
	return msg, nil
}

// Edit updates the content of a message. Fails with ErrUnauthorized when the
// requester is not the sender, ErrNotFound when the message is unknown, and
// ErrMessageDeleted once the message has been soft-deleted.
func (s *ChatService) Edit(ctx context.Context, cmd domain.EditMessageCommand) (domain.Message, error) {
	if strings.TrimSpace(cmd.Content) == "" {
		return domain.Message{}, errors.ErrEmptyContent
	}

	msg, err := s.messages.GetMessageByID(ctx, cmd.MessageID)
	if err != nil {
		return domain.Message{}, err
	}
	if msg.SenderID != cmd.RequesterID {
		return domain.Message{}, errors.ErrUnauthorized
	}
	if !msg.Editable() {
		return domain.Message{}, errors.ErrMessageDeleted
	}

	content, _ := s.moderator.Censor(cmd.Content)

	lock := s.channelLock(msg.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	msg.Content = content
	msg.UpdatedAt = s.now().UTC()

	if err := s.messages.SaveMessage(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("persisting edit: %w", err)
	}

	s.bc.BroadcastChannel(ctx, msg.ChannelID, event.MessageChanged{Message: msg})
	return msg, nil
}

// SoftDelete replaces the content with the deletion marker and sets the flag.
// The broadcast reuses the message_updated event so clients treat deletion as
// a content mutation and keep the message's place in history. Deleting an
// already-deleted message re-broadcasts the current state without persisting,
// which keeps the operation idempotent in effect.
func (s *ChatService) SoftDelete(ctx context.Context, cmd domain.DeleteMessageCommand) (domain.Message, error) {
	msg, err := s.messages.GetMessageByID(ctx, cmd.MessageID)
	if err != nil {
		return domain.Message{}, err
	}
	if msg.SenderID != cmd.RequesterID {
		return domain.Message{}, errors.ErrUnauthorized
	}

	lock := s.channelLock(msg.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	if msg.IsDeleted {
		s.bc.BroadcastChannel(ctx, msg.ChannelID, event.MessageChanged{Message: msg})
		return msg, nil
	}

	msg.IsDeleted = true
	msg.Content = domain.DeletedMarker
	msg.UpdatedAt = s.now().UTC()

	if err := s.messages.SaveMessage(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("persisting delete: %w", err)
	}

	s.bc.BroadcastChannel(ctx, msg.ChannelID, event.MessageChanged{Message: msg})
	return msg, nil
}

// FetchHistory is a plain read path; consistency concerns stay with the
// storage collaborator.
func (s *ChatService) FetchHistory(ctx context.Context, q domain.HistoryQuery) ([]domain.Message, error) {
	return s.messages.ListMessagesByChannel(ctx, q.ChannelID, q.Filter)
}
