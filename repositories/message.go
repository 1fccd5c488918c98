// Package repositories persists chat entities in BadgerDB and mirrors
// message content into a Bluge index for the history search filter.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chatline/domain"
	"chatline/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// MessageRepository stores messages under two key families:
//
//	msg:{channel_id}:{timestamp_padded}:{uuid}  -> encoded message
//	msgid:{uuid}                                -> primary key
//
// The 19-digit zero padding makes lexicographical order chronological, so a
// forward prefix scan yields ascending creation order. The UUID suffix
// disambiguates two messages arriving at the same nanosecond. Edits rewrite
// the value in place: the creation timestamp never changes, so the primary
// key stays stable and the message keeps its position in history.
type MessageRepository struct {
	db     *badger.DB
	search *SearchIndex
	log    *slog.Logger
}

func NewMessageRepository(db *badger.DB, search *SearchIndex, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, search: search, log: log}
}

type diskMessage struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channelId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	Lang       string    `json:"lang,omitempty"`
	IsDeleted  bool      `json:"isDeleted"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func primaryKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.ChannelID, m.CreatedAt.UnixNano(), m.ID))
}

func idKey(id uuid.UUID) []byte {
	return []byte("msgid:" + id.String())
}

func (r *MessageRepository) CreateMessage(ctx context.Context, m domain.Message) error {
	value, err := json.Marshal(fromMessage(m))
	if err != nil {
		return err
	}

	key := primaryKey(m)
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(idKey(m.ID), key)
	})
	if err != nil {
		return err
	}

	if err := r.search.Index(m); err != nil {
		// The record of truth is Badger; a failed index entry only degrades
		// filtered history for this message.
		r.log.Error("Indexing message failed", "message", m.ID, "error", err)
	}
	return nil
}

func (r *MessageRepository) GetMessageByID(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	var dm diskMessage
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idKey(id))
		if err != nil {
			return err
		}
		var key []byte
		if err := item.Value(func(v []byte) error {
			key = append([]byte(nil), v...)
			return nil
		}); err != nil {
			return err
		}

		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &dm)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Message{}, errors.ErrNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(dm)
}

// SaveMessage rewrites an existing message in place. The primary key is
// derived from the unchanged creation timestamp, so history order holds.
func (r *MessageRepository) SaveMessage(ctx context.Context, m domain.Message) error {
	value, err := json.Marshal(fromMessage(m))
	if err != nil {
		return err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(idKey(m.ID)); err != nil {
			return err
		}
		return txn.Set(primaryKey(m), value)
	})
	if err == badger.ErrKeyNotFound {
		return errors.ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := r.search.Index(m); err != nil {
		r.log.Error("Reindexing message failed", "message", m.ID, "error", err)
	}
	return nil
}

// ListMessagesByChannel scans the channel prefix forward, which yields
// ascending creation order for free. A non-nil filter is resolved through the
// search index first; only matching ids survive the scan.
func (r *MessageRepository) ListMessagesByChannel(ctx context.Context, channelID domain.ChannelID, filter *string) ([]domain.Message, error) {
	var matching map[string]struct{}
	if filter != nil && *filter != "" {
		ids, err := r.search.MatchSubstring(ctx, channelID, *filter)
		if err != nil {
			return nil, fmt.Errorf("searching channel %s: %w", channelID, err)
		}
		matching = ids
	}

	var disk []diskMessage
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(fmt.Sprintf("msg:%s:", channelID))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var dm diskMessage
				if err := json.Unmarshal(v, &dm); err != nil {
					return err
				}
				if matching != nil {
					if _, ok := matching[dm.ID]; !ok {
						return nil
					}
				}
				disk = append(disk, dm)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(disk))
	for _, dm := range disk {
		m, err := toMessage(dm)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func fromMessage(m domain.Message) diskMessage {
	return diskMessage{
		ID:         m.ID.String(),
		ChannelID:  string(m.ChannelID),
		SenderID:   string(m.SenderID),
		SenderName: m.SenderName,
		Content:    m.Content,
		Lang:       m.Lang,
		IsDeleted:  m.IsDeleted,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toMessage(dm diskMessage) (domain.Message, error) {
	id, err := uuid.Parse(dm.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:         id,
		ChannelID:  domain.ChannelID(dm.ChannelID),
		SenderID:   domain.UserID(dm.SenderID),
		SenderName: dm.SenderName,
		Content:    dm.Content,
		Lang:       dm.Lang,
		IsDeleted:  dm.IsDeleted,
		CreatedAt:  dm.CreatedAt.UTC(),
		UpdatedAt:  dm.UpdatedAt.UTC(),
	}, nil
}
