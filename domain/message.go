// Package domain contains core concepts of the chat system.
// This file defines Message records and their rendering rules.
// A message is immutable once sent, except for its read flag.
package domain

import (
	"fmt"
	"strings"
	"time"

	"unified-chat/errors"

	"github.com/google/uuid"
)

// TimestampLayout is used everywhere a timestamp is rendered as text.
const TimestampLayout = "2006-01-02T15:04:05"

type MessageType string

const (
	TextMessage         MessageType = "TEXT"
	FileMessage         MessageType = "FILE"
	AnnouncementMessage MessageType = "ANNOUNCEMENT"
)

// FileAttachment is metadata only, the bytes live behind URL.
type FileAttachment struct {
	Name     string
	URL      string
	Size     int64
	MimeType string
}

// Message is a value type: every copy handed out by a Channel is detached from
// the channel's own log. File and Announcement are only meaningful for their type.
type Message struct {
	ID           uuid.UUID
	Type         MessageType
	SenderID     UserID
	ChannelID    ChannelID
	Content      string
	CreatedAt    time.Time
	Read         bool
	File         FileAttachment
	Announcement Announcement
}

func NewTextMessage(channelID ChannelID, senderID UserID, content string) Message {
	return Message{
		ID:        uuid.New(),
		Type:      TextMessage,
		SenderID:  senderID,
		ChannelID: channelID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// NewFileMessage derives the searchable content label from the file name.
func NewFileMessage(channelID ChannelID, senderID UserID, file FileAttachment) Message {
	return Message{
		ID:        uuid.New(),
		Type:      FileMessage,
		SenderID:  senderID,
		ChannelID: channelID,
		Content:   "File: " + file.Name,
		CreatedAt: time.Now().UTC(),
		File:      file,
	}
}

func NewAnnouncementMessage(channelID ChannelID, senderID UserID, content string, announcement Announcement) Message {
	announcement.Category = ParseAnnouncementCategory(string(announcement.Category))
	return Message{
		ID:           uuid.New(),
		Type:         AnnouncementMessage,
		SenderID:     senderID,
		ChannelID:    channelID,
		Content:      content,
		CreatedAt:    time.Now().UTC(),
		Announcement: announcement,
	}
}

func (m *Message) MarkAsRead() { m.Read = true }

func (m *Message) MarkAsUnread() { m.Read = false }

// IsUnreadFor reports whether viewer still has to read m.
// A sender never has unread messages of their own.
func (m Message) IsUnreadFor(viewer UserID) bool {
	return !m.Read && m.SenderID != viewer
}

// FormattedContent renders the message for humans, depending on its type.
func (m Message) FormattedContent() string {
	switch m.Type {
	case FileMessage:
		return fmt.Sprintf("📎 %s (%s, %s)", m.File.Name, HumanSize(m.File.Size), m.File.MimeType)
	case AnnouncementMessage:
		a := m.Announcement
		return fmt.Sprintf("%s %s [%s] %s: %s",
			a.importanceMarker(), a.Category.Marker(), a.CourseName, a.Category, m.Content)
	default:
		return m.Content
	}
}

var lineBreaks = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\n`)

// ExportString renders a single history line. Line breaks inside the content are
// escaped so that one message always maps to one line.
func (m Message) ExportString() string {
	return fmt.Sprintf("[%s] %s: %s",
		m.CreatedAt.Format(TimestampLayout), m.SenderID, lineBreaks.Replace(m.FormattedContent()))
}

func (m Message) matches(lowerKeyword string) bool {
	return strings.Contains(strings.ToLower(m.Content), lowerKeyword)
}

// Validate is used when rebuilding messages from storage.
func (m Message) Validate() error {
	if m.ID == uuid.Nil {
		return fmt.Errorf("%w: message id", errors.ErrMissingField)
	}
	if m.SenderID == "" {
		return fmt.Errorf("%w: sender id of message %s", errors.ErrMissingField, m.ID)
	}
	if m.ChannelID == "" {
		return fmt.Errorf("%w: channel id of message %s", errors.ErrMissingField, m.ID)
	}
	switch m.Type {
	case TextMessage, FileMessage, AnnouncementMessage:
		return nil
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownMessageType, m.Type)
	}
}
