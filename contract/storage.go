//go:generate go run go.uber.org/mock/mockgen -source=storage.go -destination=../mocks/mock_storage.go -package=mocks
package contract

import (
	"chatline/domain"
	"context"

	"github.com/google/uuid"
)

// MessageStore is the persistence collaborator of the delivery pipeline.
// Every delivered message or update corresponds to a durably stored record:
// the pipeline never fans out an event whose write failed.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg domain.Message) error
	GetMessageByID(ctx context.Context, id uuid.UUID) (domain.Message, error)
	SaveMessage(ctx context.Context, msg domain.Message) error
	// ListMessagesByChannel returns messages in ascending creation order.
	// A non-nil filter restricts to messages whose content contains the
	// filter, case-insensitively.
	ListMessagesByChannel(ctx context.Context, channelID domain.ChannelID, filter *string) ([]domain.Message, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u domain.User) error
	GetUserByID(ctx context.Context, id domain.UserID) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type ChannelStore interface {
	CreateChannel(ctx context.Context, c domain.Channel) error
	GetChannelByID(ctx context.Context, id domain.ChannelID) (domain.Channel, error)
	SaveChannel(ctx context.Context, c domain.Channel) error
	ListChannels(ctx context.Context) ([]domain.Channel, error)
}
