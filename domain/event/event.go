// Package event holds the facts emitted after a successful channel mutation.
// A rejected operation never produces an event.
package event

import (
	"time"

	"unified-chat/domain"

	"github.com/google/uuid"
)

type DomainEvent interface {
	ChannelID() domain.ChannelID
	OccurredAt() time.Time
}

// ChannelCreated carries the full state of a new channel.
type ChannelCreated struct {
	Snapshot domain.ChannelSnapshot
	At       time.Time
}

func (e ChannelCreated) ChannelID() domain.ChannelID { return e.Snapshot.ID }
func (e ChannelCreated) OccurredAt() time.Time       { return e.At }

// ChannelUpdated is emitted on membership, activity, or settings changes.
type ChannelUpdated struct {
	Snapshot domain.ChannelSnapshot
	At       time.Time
}

func (e ChannelUpdated) ChannelID() domain.ChannelID { return e.Snapshot.ID }
func (e ChannelUpdated) OccurredAt() time.Time       { return e.At }

type ParticipantJoined struct {
	Snapshot domain.ChannelSnapshot
	UserID   domain.UserID
	At       time.Time
}

func (e ParticipantJoined) ChannelID() domain.ChannelID { return e.Snapshot.ID }
func (e ParticipantJoined) OccurredAt() time.Time       { return e.At }

type ParticipantLeft struct {
	Snapshot domain.ChannelSnapshot
	UserID   domain.UserID
	At       time.Time
}

func (e ParticipantLeft) ChannelID() domain.ChannelID { return e.Snapshot.ID }
func (e ParticipantLeft) OccurredAt() time.Time       { return e.At }

// MessageSent carries a copy of the accepted message.
type MessageSent struct {
	Message domain.Message
}

func (e MessageSent) ChannelID() domain.ChannelID { return e.Message.ChannelID }
func (e MessageSent) OccurredAt() time.Time       { return e.Message.CreatedAt }

// MessagesRead lists the messages whose shared read flag was flipped by Reader.
type MessagesRead struct {
	Channel    domain.ChannelID
	Reader     domain.UserID
	MessageIDs []uuid.UUID
	At         time.Time
}

func (e MessagesRead) ChannelID() domain.ChannelID { return e.Channel }
func (e MessagesRead) OccurredAt() time.Time       { return e.At }
