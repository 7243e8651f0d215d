package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/domain"
	apperrors "chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Create(msg domain.Message) (domain.Message, error)
	Get(id uuid.UUID) (domain.Message, error)
	AppendTranslation(id uuid.UUID, lang, text string) error
	SetDetectedLanguage(id uuid.UUID, lang string) error
	ListConversation(userA, userB string) ([]domain.Message, error)
	ListChannel(channelID string) ([]domain.Message, error)
}

// MessageRepository persists messages in BadgerDB.
//
// Each message lives under "msg:{uuid}" so translation-cache updates can
// target it by id. Listing goes through index keys:
//
//	conv:{a}:{b}:{timestamp_padded}:{uuid}  (a,b lexicographically ordered)
//	chanmsg:{channel}:{timestamp_padded}:{uuid}
//
// The 19-digit zero-padded timestamp makes a plain prefix scan come back
// in chronological order; the uuid suffix disambiguates two messages
// landing on the same nanosecond.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

func recordKey(id uuid.UUID) []byte {
	return []byte("msg:" + id.String())
}

// conversationPrefix is direction-agnostic: both A->B and B->A messages
// index under the ordered pair.
func conversationPrefix(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("conv:%s:%s:", userA, userB)
}

func channelPrefix(channelID string) string {
	return fmt.Sprintf("chanmsg:%s:", channelID)
}

// Create assigns the id and timestamp, snapshots OriginalContent for text
// messages, and writes the record plus its index entry in one transaction.
// A failure here leaves no partial message behind.
func (m MessageRepository) Create(msg domain.Message) (domain.Message, error) {
	msg.ID = uuid.New()
	msg.Timestamp = time.Now().UTC()
	if msg.Type == domain.MessageText {
		msg.OriginalContent = msg.Content
		if msg.Translations == nil {
			msg.Translations = make(map[string]string)
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal failed: %w", err)
	}

	var indexKey string
	switch {
	case msg.ChannelID != "":
		indexKey = fmt.Sprintf("%s%019d:%s", channelPrefix(msg.ChannelID), msg.Timestamp.UnixNano(), msg.ID)
	default:
		indexKey = fmt.Sprintf("%s%019d:%s", conversationPrefix(msg.Sender, msg.Recipient), msg.Timestamp.UnixNano(), msg.ID)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(msg.ID), data); err != nil {
			return err
		}
		return txn.Set([]byte(indexKey), []byte(msg.ID.String()))
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func (m MessageRepository) Get(id uuid.UUID) (domain.Message, error) {
	var msg domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		return readMessage(txn, id, &msg)
	})
	return msg, err
}

// AppendTranslation sets one language key in the translation cache
// without disturbing other keys or OriginalContent. Concurrent appends
// for different languages conflict at the Badger transaction level and
// are retried, so no key is ever lost; a retry for the same key is
// last-writer-wins.
func (m MessageRepository) AppendTranslation(id uuid.UUID, lang, text string) error {
	return m.mutate(id, func(msg *domain.Message) {
		if msg.Translations == nil {
			msg.Translations = make(map[string]string)
		}
		msg.Translations[lang] = text
	})
}

// SetDetectedLanguage records the detected source language. Detection may
// run more than once; last write wins.
func (m MessageRepository) SetDetectedLanguage(id uuid.UUID, lang string) error {
	return m.mutate(id, func(msg *domain.Message) {
		msg.LanguageFrom = lang
	})
}

// mutate applies a read-modify-write on one message record, retrying on
// transaction conflicts. OriginalContent is reasserted from the loaded
// record, never touched by callbacks.
func (m MessageRepository) mutate(id uuid.UUID, apply func(*domain.Message)) error {
	for {
		err := m.db.Update(func(txn *badger.Txn) error {
			var msg domain.Message
			if err := readMessage(txn, id, &msg); err != nil {
				return err
			}
			apply(&msg)
			data, err := json.Marshal(msg)
			if err != nil {
				return fmt.Errorf("marshal failed: %w", err)
			}
			return txn.Set(recordKey(id), data)
		})
		if errors.Is(err, badger.ErrConflict) {
			m.log.Debug("Retrying conflicting message update", "id", id)
			continue
		}
		return err
	}
}

// ListConversation returns every message between the two users, oldest
// first.
func (m MessageRepository) ListConversation(userA, userB string) ([]domain.Message, error) {
	return m.scan(conversationPrefix(userA, userB))
}

// ListChannel returns every message of the channel, oldest first.
func (m MessageRepository) ListChannel(channelID string) ([]domain.Message, error) {
	return m.scan(channelPrefix(channelID))
}

func (m MessageRepository) scan(prefix string) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			var rawID []byte
			err := it.Item().Value(func(value []byte) error {
				rawID = append([]byte(nil), value...)
				return nil
			})
			if err != nil {
				return err
			}
			id, err := uuid.Parse(string(rawID))
			if err != nil {
				return fmt.Errorf("corrupt index entry %q: %w", it.Item().Key(), err)
			}
			var msg domain.Message
			if err := readMessage(txn, id, &msg); err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	return messages, err
}

func readMessage(txn *badger.Txn, id uuid.UUID, into *domain.Message) error {
	item, err := txn.Get(recordKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperrors.ErrMessageNotFound
		}
		return err
	}
	return item.Value(func(value []byte) error {
		return json.Unmarshal(value, into)
	})
}
