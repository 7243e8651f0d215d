package repositories

import (
	"encoding/json"
	"errors"
	"fmt"

	"chat-relay/domain"
	apperrors "chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IChannelRepository interface {
	Create(channel domain.Channel) (domain.Channel, error)
	Get(id string) (domain.Channel, error)
	AppendMessage(channelID string, messageID uuid.UUID) error
}

// ChannelRepository persists channels under "channel:{id}". The Messages
// slice is append-only; membership mutation belongs to an external
// collaborator and has no write path here.
type ChannelRepository struct {
	db *badger.DB
}

func NewChannelRepository(db *badger.DB) ChannelRepository {
	return ChannelRepository{db: db}
}

func channelKey(id string) []byte {
	return []byte("channel:" + id)
}

func (c ChannelRepository) Create(channel domain.Channel) (domain.Channel, error) {
	if channel.ID == "" {
		channel.ID = uuid.NewString()
	}
	data, err := json.Marshal(channel)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("marshal failed: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(channelKey(channel.ID), data)
	})
	if err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

func (c ChannelRepository) Get(id string) (domain.Channel, error) {
	var channel domain.Channel
	err := c.db.View(func(txn *badger.Txn) error {
		return readChannel(txn, id, &channel)
	})
	return channel, err
}

// AppendMessage adds one message reference to the channel's ordered
// sequence, retrying on transaction conflicts so concurrent sends to the
// same channel never drop a reference.
func (c ChannelRepository) AppendMessage(channelID string, messageID uuid.UUID) error {
	for {
		err := c.db.Update(func(txn *badger.Txn) error {
			var channel domain.Channel
			if err := readChannel(txn, channelID, &channel); err != nil {
				return err
			}
			channel.Messages = append(channel.Messages, messageID)
			data, err := json.Marshal(channel)
			if err != nil {
				return fmt.Errorf("marshal failed: %w", err)
			}
			return txn.Set(channelKey(channelID), data)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
}

func readChannel(txn *badger.Txn, id string, into *domain.Channel) error {
	item, err := txn.Get(channelKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperrors.ErrChannelNotFound
		}
		return err
	}
	return item.Value(func(value []byte) error {
		return json.Unmarshal(value, into)
	})
}
