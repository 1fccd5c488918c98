package repositories

import (
	"context"
	"encoding/json"

	"chatline/domain"
	"chatline/errors"

	"github.com/dgraph-io/badger/v4"
)

type ChannelRepository struct {
	db *badger.DB
}

func NewChannelRepository(db *badger.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

func channelKey(id string) []byte { return []byte("channel:" + id) }

func (r *ChannelRepository) CreateChannel(ctx context.Context, c domain.Channel) error {
	value, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(channelKey(c.ID.String()), value)
	})
}

func (r *ChannelRepository) GetChannelByID(ctx context.Context, id domain.ChannelID) (domain.Channel, error) {
	var channel domain.Channel
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(channelKey(string(id)))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &channel)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Channel{}, errors.ErrChannelNotFound
	}
	if err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

func (r *ChannelRepository) SaveChannel(ctx context.Context, c domain.Channel) error {
	return r.CreateChannel(ctx, c)
}

func (r *ChannelRepository) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	var channels []domain.Channel
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("channel:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var channel domain.Channel
				if err := json.Unmarshal(v, &channel); err != nil {
					return err
				}
				channels = append(channels, channel)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return channels, err
}
