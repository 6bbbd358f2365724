package domain

import (
	"fmt"

	"unified-chat/errors"
)

// GroupChat is the variant data of a capped multi-party channel.
// Private is only enforced by callers deciding who may join on their own.
type GroupChat struct {
	MaxParticipants int
	Private         bool
}

func NewGroupChat(name, description string, creatorID UserID, maxParticipants int, private bool) (*Channel, error) {
	if err := requireID(name, "name"); err != nil {
		return nil, err
	}
	if err := requireID(string(creatorID), "creator"); err != nil {
		return nil, err
	}
	if maxParticipants < 1 {
		return nil, fmt.Errorf("%w: %d", errors.ErrInvalidCapacity, maxParticipants)
	}
	c := newChannel(GroupChatChannel, name, description, creatorID)
	c.group = GroupChat{MaxParticipants: maxParticipants, Private: private}
	return c, nil
}

// IsFull is always false for channels that are not group chats.
func (c *Channel) IsFull() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kind == GroupChatChannel && len(c.participants) >= c.group.MaxParticipants
}

// RemainingCapacity reports how many more members a group chat can take.
// The boolean is false when the channel has no capacity limit.
func (c *Channel) RemainingCapacity() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.kind != GroupChatChannel {
		return 0, false
	}
	return max(c.group.MaxParticipants-len(c.participants), 0), true
}

// IsPrivate tells whether joining requires an invitation.
func (c *Channel) IsPrivate() bool {
	return c.kind == GroupChatChannel && c.group.Private
}
