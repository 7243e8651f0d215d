package repositories

import (
	"encoding/json"
	"errors"
	"fmt"

	"chat-relay/domain"
	apperrors "chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
)

// UserDirectory is the local projection of the external user service.
// Authentication and profile management live elsewhere; this core only
// needs id and preferred language.
type UserDirectory struct {
	db *badger.DB
}

func NewUserDirectory(db *badger.DB) UserDirectory {
	return UserDirectory{db: db}
}

func userKey(id string) []byte {
	return []byte("user:" + id)
}

func (u UserDirectory) GetUser(id string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.ErrUserNotFound
			}
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &user)
		})
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// SaveUser upserts a directory entry. Fed by the external user service;
// also used to seed tests.
func (u UserDirectory) SaveUser(user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return u.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.ID), data)
	})
}
