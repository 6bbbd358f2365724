package domain

import (
	"fmt"
	"slices"
	"time"

	"unified-chat/errors"
)

// ChannelSnapshot is the persisted shape of a Channel, without its messages.
type ChannelSnapshot struct {
	ID           ChannelID
	Type         ChannelType
	Name         string
	Description  string
	CreatorID    UserID
	Participants []UserID
	CreatedAt    time.Time
	Active       bool
	MessageCount int
	Direct       DirectMessage
	Group        GroupChat
	Course       Course
}

// RestoreChannel rebuilds a Channel from storage. Every invariant a live channel
// maintains is checked again, so a corrupted record never reaches the registry.
// messages must be in send order.
func RestoreChannel(s ChannelSnapshot, messages []Message) (*Channel, error) {
	if err := requireID(string(s.ID), "channel id"); err != nil {
		return nil, err
	}
	if err := requireID(string(s.CreatorID), "creator of channel "+string(s.ID)); err != nil {
		return nil, err
	}
	if !s.Type.valid() {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownChannelType, s.Type)
	}
	participants := make(set, len(s.Participants))
	for _, p := range s.Participants {
		participants[p] = struct{}{}
	}
	if _, ok := participants[s.CreatorID]; !ok {
		return nil, violated(s.ID, "creator %s is not a participant", s.CreatorID)
	}

	switch s.Type {
	case DirectMessageChannel:
		d := s.Direct
		if d.UserA == "" || d.UserB == "" || d.UserA == d.UserB {
			return nil, violated(s.ID, "direct message needs two distinct users")
		}
		if len(participants) != 2 || !d.InvolvesUser(s.CreatorID) {
			return nil, violated(s.ID, "direct message participants do not match %s and %s", d.UserA, d.UserB)
		}
		for p := range participants {
			if !d.InvolvesUser(p) {
				return nil, violated(s.ID, "unexpected participant %s", p)
			}
		}
	case GroupChatChannel:
		if s.Group.MaxParticipants < 1 {
			return nil, fmt.Errorf("%w: %d", errors.ErrInvalidCapacity, s.Group.MaxParticipants)
		}
		if len(participants) > s.Group.MaxParticipants {
			return nil, violated(s.ID, "%d participants exceed capacity %d", len(participants), s.Group.MaxParticipants)
		}
	case CourseChannel:
		if s.Course.InstructorID != s.CreatorID {
			return nil, violated(s.ID, "instructor %s is not the creator", s.Course.InstructorID)
		}
	}

	for _, m := range messages {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if m.ChannelID != s.ID {
			return nil, violated(s.ID, "message %s belongs to channel %s", m.ID, m.ChannelID)
		}
	}

	return &Channel{
		id:           s.ID,
		kind:         s.Type,
		name:         s.Name,
		description:  s.Description,
		creatorID:    s.CreatorID,
		participants: participants,
		messages:     slices.Clone(messages),
		createdAt:    s.CreatedAt,
		active:       s.Active,
		direct:       s.Direct,
		group:        s.Group,
		course:       s.Course,
	}, nil
}

func violated(id ChannelID, format string, args ...any) error {
	return fmt.Errorf("%w: channel %s: %s", errors.ErrInvariantViolated, id, fmt.Sprintf(format, args...))
}
