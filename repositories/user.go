package repositories

import (
	"context"
	"encoding/json"
	"strings"

	"chatline/domain"
	"chatline/errors"

	"github.com/dgraph-io/badger/v4"
)

// UserRepository stores accounts under user:{uuid} with a secondary index
// useremail:{email} -> uuid for login lookups.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func userKey(id string) []byte     { return []byte("user:" + id) }
func emailKey(email string) []byte { return []byte("useremail:" + strings.ToLower(email)) }

func (r *UserRepository) CreateUser(ctx context.Context, u domain.User) error {
	value, err := json.Marshal(u)
	if err != nil {
		return err
	}

	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(u.Email)); err == nil {
			return errors.ErrEmailTaken
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if err := txn.Set(userKey(u.ID.String()), value); err != nil {
			return err
		}
		return txn.Set(emailKey(u.Email), []byte(u.ID.String()))
	})
}

func (r *UserRepository) GetUserByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	var user domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(string(id)))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &user)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var id string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			id = string(v)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return r.GetUserByID(ctx, domain.UserID(id))
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("user:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var user domain.User
				if err := json.Unmarshal(v, &user); err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}
