package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"chatline/contract"
	"chatline/domain"
	"chatline/domain/event"
	"chatline/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ChannelService owns durable channel membership. It is the access-control
// collaborator that runs before the membership index is touched. Channel
// announcements go to every connection; clients filter relevance themselves.
type ChannelService struct {
	log      *slog.Logger
	channels contract.ChannelStore
	users    contract.UserStore
	bc       contract.Broadcaster
}

func NewChannelService(log *slog.Logger, channels contract.ChannelStore, users contract.UserStore, bc contract.Broadcaster) *ChannelService {
	return &ChannelService{log: log, channels: channels, users: users, bc: bc}
}

func (s *ChannelService) Create(ctx context.Context, name, description string, kind domain.ChannelType, creator domain.UserID) (domain.Channel, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Channel{}, errors.ErrChannelNotFound
	}
	if kind == "" {
		kind = domain.ChannelPublic
	}

	now := time.Now().UTC()
	channel := domain.Channel{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Type:        kind,
		Members:     []domain.UserID{creator},
		CreatedBy:   creator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.channels.CreateChannel(ctx, channel); err != nil {
		return domain.Channel{}, err
	}

	s.bc.BroadcastAll(ctx, event.ChannelAnnounced{Channel: channel})
	return channel, nil
}

// List returns the channels visible to a user: public ones plus private ones
// they belong to, most recently updated first.
func (s *ChannelService) List(ctx context.Context, userID domain.UserID) ([]domain.Channel, error) {
	all, err := s.channels.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	visible := lo.Filter(all, func(c domain.Channel, _ int) bool {
		return c.VisibleTo(userID)
	})
	sortChannelsByUpdate(visible)
	return visible, nil
}

func (s *ChannelService) Join(ctx context.Context, channelID domain.ChannelID, userID domain.UserID) (domain.Channel, error) {
	channel, err := s.channels.GetChannelByID(ctx, channelID)
	if err != nil {
		return domain.Channel{}, err
	}
	if channel.HasMember(userID) {
		return domain.Channel{}, errors.ErrAlreadyMember
	}

	channel.Members = append(channel.Members, userID)
	channel.UpdatedAt = time.Now().UTC()
	if err := s.channels.SaveChannel(ctx, channel); err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

func (s *ChannelService) Leave(ctx context.Context, channelID domain.ChannelID, userID domain.UserID) (domain.Channel, error) {
	channel, err := s.channels.GetChannelByID(ctx, channelID)
	if err != nil {
		return domain.Channel{}, err
	}

	channel.Members = lo.Reject(channel.Members, func(id domain.UserID, _ int) bool {
		return id == userID
	})
	channel.UpdatedAt = time.Now().UTC()
	if err := s.channels.SaveChannel(ctx, channel); err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

// AddMember adds a user by email and announces the channel so the added
// user's clients see it appear without polling.
func (s *ChannelService) AddMember(ctx context.Context, channelID domain.ChannelID, email string) (domain.Channel, error) {
	channel, err := s.channels.GetChannelByID(ctx, channelID)
	if err != nil {
		return domain.Channel{}, err
	}

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return domain.Channel{}, errors.ErrUserNotFound
	}
	if channel.HasMember(user.UserID()) {
		return domain.Channel{}, errors.ErrAlreadyMember
	}

	channel.Members = append(channel.Members, user.UserID())
	channel.UpdatedAt = time.Now().UTC()
	if err := s.channels.SaveChannel(ctx, channel); err != nil {
		return domain.Channel{}, err
	}

	s.bc.BroadcastAll(ctx, event.ChannelAnnounced{Channel: channel})
	return channel, nil
}

func sortChannelsByUpdate(channels []domain.Channel) {
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].UpdatedAt.After(channels[j].UpdatedAt)
	})
}
