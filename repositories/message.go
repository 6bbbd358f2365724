//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"

	"unified-chat/domain"
	"unified-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessages(channelID domain.ChannelID, cursor *string) ([]domain.Message, *string, error)
	GetAllMessages(channelID domain.ChannelID) ([]domain.Message, error)
	SetRead(ids []uuid.UUID, read bool) error
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

func messagePrefix(channelID domain.ChannelID) string {
	return fmt.Sprintf("msg:%s:", channelID)
}

func messageIndexKey(id uuid.UUID) []byte {
	return []byte("msgidx:" + id.String())
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{channel_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
//
// A "msgidx:{uuid}" entry points back to the key so read flags can be updated by id.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	key := fmt.Sprintf("%s%019d:%s", messagePrefix(message.ChannelID), message.CreatedAt.UnixNano(), message.ID)
	bytes, err := encode(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), bytes); err != nil {
			return err
		}
		return txn.Set(messageIndexKey(message.ID), []byte(key))
	})
}

// GetMessages pages through a channel's messages, newest first.
// Pass the returned cursor to get the next, older, page.
func (m MessageRepository) GetMessages(channelID domain.ChannelID, cursor *string) ([]domain.Message, *string, error) {
	var byteMessages [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := messagePrefix(channelID)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Start after the newest possible key, msg:{id}:9999999999999999999
			seekKey = append([]byte(prefixStr), []byte("9999999999999999999")...)
		default:
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug("Message page full", "channel", channelID, "limit", *m.limitMessages)
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			byteMessages = append(byteMessages, value)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	messages, err := decodeMessages(byteMessages)
	if err != nil {
		return nil, nil, err
	}
	return messages, &lastKey, nil
}

// GetAllMessages returns the whole log of a channel, oldest first.
func (m MessageRepository) GetAllMessages(channelID domain.ChannelID) ([]domain.Message, error) {
	var byteMessages [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix(channelID))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			byteMessages = append(byteMessages, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeMessages(byteMessages)
}

// SetRead rewrites the read flag of the given messages. Unknown ids are skipped.
func (m MessageRepository) SetRead(ids []uuid.UUID, read bool) error {
	return m.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get(messageIndexKey(id))
			if err == badger.ErrKeyNotFound {
				m.log.Debug("Unknown message, read flag not persisted", "message", id)
				continue
			}
			if err != nil {
				return err
			}
			key, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			item, err = txn.Get(key)
			if err != nil {
				return err
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			r, err := decode(value)
			if err != nil {
				return err
			}
			r["read"] = read
			bytes, err := encode(r)
			if err != nil {
				return err
			}
			if err = txn.Set(key, bytes); err != nil {
				return err
			}
		}
		return nil
	})
}

func decodeMessages(values [][]byte) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, len(values))
	for _, b := range values {
		r, err := decode(b)
		if err != nil {
			return nil, err
		}
		message, err := toMessage(r)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func fromMessage(message domain.Message) record {
	r := record{
		"id":         message.ID.String(),
		"type":       string(message.Type),
		"sender":     string(message.SenderID),
		"channel":    string(message.ChannelID),
		"content":    message.Content,
		"created_at": formatTime(message.CreatedAt),
		"read":       message.Read,
	}
	switch message.Type {
	case domain.FileMessage:
		r["file"] = map[string]any{
			"name":      message.File.Name,
			"url":       message.File.URL,
			"size":      float64(message.File.Size),
			"mime_type": message.File.MimeType,
		}
	case domain.AnnouncementMessage:
		r["announcement"] = map[string]any{
			"course_id":   message.Announcement.CourseID,
			"course_name": message.Announcement.CourseName,
			"important":   message.Announcement.Important,
			"category":    string(message.Announcement.Category),
		}
	}
	return r
}

func toMessage(r record) (domain.Message, error) {
	id, err := uuid.Parse(r.str("id"))
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: message id: %v", errors.ErrInvalidRecord, err)
	}
	createdAt, err := r.time("created_at")
	if err != nil {
		return domain.Message{}, err
	}
	message := domain.Message{
		ID:        id,
		Type:      domain.MessageType(r.str("type")),
		SenderID:  domain.UserID(r.str("sender")),
		ChannelID: domain.ChannelID(r.str("channel")),
		Content:   r.str("content"),
		CreatedAt: createdAt,
		Read:      r.boolean("read"),
	}
	if f := r.nested("file"); f != nil {
		message.File = domain.FileAttachment{
			Name:     f.str("name"),
			URL:      f.str("url"),
			Size:     f.number("size"),
			MimeType: f.str("mime_type"),
		}
	}
	if a := r.nested("announcement"); a != nil {
		message.Announcement = domain.Announcement{
			CourseID:   a.str("course_id"),
			CourseName: a.str("course_name"),
			Important:  a.boolean("important"),
			Category:   domain.AnnouncementCategory(a.str("category")),
		}
	}
	if err = message.Validate(); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrInvalidRecord, err)
	}
	return message, nil
}
