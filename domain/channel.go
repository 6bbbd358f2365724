// Package domain contains core concepts of the chat system.
// This file defines the Channel aggregate: participants, the ordered message log
// and the per-variant policies deciding who may join, leave and send.
// No runtime, storage, or UI logic should be added here.
package domain

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"unified-chat/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type ChannelID string

func (c ChannelID) String() string { return string(c) }

// ChannelType is the closed set of channel variants.
type ChannelType string

const (
	DirectMessageChannel ChannelType = "DIRECT_MESSAGE"
	GroupChatChannel     ChannelType = "GROUP_CHAT"
	CourseChannel        ChannelType = "COURSE"
)

func (t ChannelType) valid() bool {
	switch t {
	case DirectMessageChannel, GroupChatChannel, CourseChannel:
		return true
	}
	return false
}

type set map[UserID]struct{}

// Channel is a unit of mutual exclusion: every mutation takes the write lock,
// every query takes the read lock and returns copies.
// Only the field matching kind among direct, group and course is populated.
type Channel struct {
	mu           sync.RWMutex
	id           ChannelID
	kind         ChannelType
	name         string
	description  string
	creatorID    UserID
	participants set
	messages     []Message
	createdAt    time.Time
	active       bool

	direct DirectMessage
	group  GroupChat
	course Course
}

func newChannel(kind ChannelType, name, description string, creatorID UserID) *Channel {
	return &Channel{
		id:           ChannelID(uuid.NewString()),
		kind:         kind,
		name:         name,
		description:  description,
		creatorID:    creatorID,
		participants: set{creatorID: {}},
		createdAt:    time.Now().UTC(),
		active:       true,
	}
}

func (c *Channel) ID() ChannelID { return c.id }

func (c *Channel) Type() ChannelType { return c.kind }

func (c *Channel) CreatorID() UserID { return c.creatorID }

func (c *Channel) CreatedAt() time.Time { return c.createdAt }

func (c *Channel) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *Channel) Description() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.description
}

func (c *Channel) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

func (c *Channel) Rename(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

func (c *Channel) SetDescription(description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.description = description
}

// SetActive toggles the channel and reports whether the state changed.
// An inactive channel accepts neither new participants nor new messages.
func (c *Channel) SetActive(active bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == active {
		return false
	}
	c.active = active
	return true
}

// AddParticipant is an idempotent insert. It reports true only when userID was
// not a member and the variant policy let it in.
func (c *Channel) AddParticipant(userID UserID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || userID == "" {
		return false
	}
	if _, ok := c.participants[userID]; ok {
		return false
	}
	if !c.canJoin(userID) {
		return false
	}
	c.participants[userID] = struct{}{}
	return true
}

// RemoveParticipant never removes the creator.
func (c *Channel) RemoveParticipant(userID UserID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.participants[userID]; !ok {
		return false
	}
	if !c.canLeave(userID) {
		return false
	}
	delete(c.participants, userID)
	return true
}

func (c *Channel) IsParticipant(userID UserID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.participants[userID]
	return ok
}

// Participants returns the member ids, sorted.
func (c *Channel) Participants() []UserID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedParticipants()
}

func (c *Channel) ParticipantCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.participants)
}

// CanSend tells whether a message from senderID would currently be accepted.
func (c *Channel) CanSend(senderID UserID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.canSend(senderID)
}

// SendMessage appends message to the tail of the log when the sender is allowed
// to post. A rejected message is discarded.
func (c *Channel) SendMessage(message Message) bool {
	_, ok := c.Post(message)
	return ok
}

// Post is SendMessage returning the message as appended. CreatedAt is stamped
// under the write lock and strictly increases along the log, so timestamps
// follow send order.
func (c *Channel) Post(message Message) (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if message.ChannelID != c.id || !c.canSend(message.SenderID) {
		return Message{}, false
	}
	message.Read = false
	message.CreatedAt = c.nextTimestamp()
	c.messages = append(c.messages, message)
	return message, true
}

func (c *Channel) nextTimestamp() time.Time {
	now := time.Now().UTC()
	if n := len(c.messages); n > 0 {
		if last := c.messages[n-1].CreatedAt; !now.After(last) {
			return last.Add(time.Nanosecond)
		}
	}
	return now
}

// Messages returns a copy of the log in send order.
func (c *Channel) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.messages)
}

func (c *Channel) MessageCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// UnreadMessages lists messages not read yet and not sent by viewer, in send order.
func (c *Channel) UnreadMessages(viewer UserID) []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Filter(c.messages, func(m Message, _ int) bool {
		return m.IsUnreadFor(viewer)
	})
}

func (c *Channel) UnreadCount(viewer UserID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.CountBy(c.messages, func(m Message) bool {
		return m.IsUnreadFor(viewer)
	})
}

// MarkAllMessagesAsRead flips the read flag of every message unread for viewer
// and returns the ids it changed. The flag is shared by all viewers.
func (c *Channel) MarkAllMessagesAsRead(viewer UserID) []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	var marked []uuid.UUID
	for i := range c.messages {
		if c.messages[i].IsUnreadFor(viewer) {
			c.messages[i].MarkAsRead()
			marked = append(marked, c.messages[i].ID)
		}
	}
	return marked
}

// MarkMessageAsRead reports false when the message is unknown or already read.
func (c *Channel) MarkMessageAsRead(id uuid.UUID) bool {
	return c.setRead(id, true)
}

// MarkMessageAsUnread reports false when the message is unknown or already unread.
func (c *Channel) MarkMessageAsUnread(id uuid.UUID) bool {
	return c.setRead(id, false)
}

func (c *Channel) setRead(id uuid.UUID, read bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID != id {
			continue
		}
		if c.messages[i].Read == read {
			return false
		}
		c.messages[i].Read = read
		return true
	}
	return false
}

// SearchMessages is a case-insensitive substring match on content.
// A blank keyword matches nothing.
func (c *Channel) SearchMessages(keyword string) []Message {
	if strings.TrimSpace(keyword) == "" {
		return nil
	}
	lower := strings.ToLower(keyword)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Filter(c.messages, func(m Message, _ int) bool {
		return m.matches(lower)
	})
}

// ExportChatHistory renders a header followed by one line per message.
func (c *Channel) ExportChatHistory() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "=== Chat History for %s ===\n", c.name)
	fmt.Fprintf(&b, "Created: %s\n", c.createdAt.Format(TimestampLayout))
	fmt.Fprintf(&b, "Participants: %d\n\n", len(c.participants))
	for _, m := range c.messages {
		b.WriteString(m.ExportString())
		b.WriteByte('\n')
	}
	return b.String()
}

// DirectMessage returns the two-party data when c is a direct message channel.
func (c *Channel) DirectMessage() (DirectMessage, bool) {
	return c.direct, c.kind == DirectMessageChannel
}

// GroupChat returns the capacity settings when c is a group chat.
func (c *Channel) GroupChat() (GroupChat, bool) {
	return c.group, c.kind == GroupChatChannel
}

// Course returns the course data when c is a course channel.
func (c *Channel) Course() (Course, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.course, c.kind == CourseChannel
}

// Snapshot copies the channel state, without the message log.
func (c *Channel) Snapshot() ChannelSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ChannelSnapshot{
		ID:           c.id,
		Type:         c.kind,
		Name:         c.name,
		Description:  c.description,
		CreatorID:    c.creatorID,
		Participants: c.sortedParticipants(),
		CreatedAt:    c.createdAt,
		Active:       c.active,
		MessageCount: len(c.messages),
		Direct:       c.direct,
		Group:        c.group,
		Course:       c.course,
	}
}

func (c *Channel) sortedParticipants() []UserID {
	ids := lo.Keys(c.participants)
	slices.Sort(ids)
	return ids
}

// canJoin is the variant admission policy. Caller holds the write lock and has
// already checked that the channel is active and userID is not a member.
func (c *Channel) canJoin(userID UserID) bool {
	switch c.kind {
	case DirectMessageChannel:
		return c.direct.InvolvesUser(userID)
	case GroupChatChannel:
		return len(c.participants) < c.group.MaxParticipants
	default:
		return true
	}
}

// canLeave protects the creator, and both ends of a direct message.
func (c *Channel) canLeave(userID UserID) bool {
	if userID == c.creatorID {
		return false
	}
	switch c.kind {
	case DirectMessageChannel:
		return false
	case CourseChannel:
		return !c.course.IsInstructor(userID)
	default:
		return true
	}
}

func (c *Channel) canSend(senderID UserID) bool {
	if !c.active {
		return false
	}
	if _, ok := c.participants[senderID]; !ok {
		return false
	}
	if c.kind == CourseChannel {
		return c.course.IsInstructor(senderID) || c.course.AllowStudentMessages
	}
	return true
}

func requireID(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", errors.ErrMissingField, field)
	}
	return nil
}
