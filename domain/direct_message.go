package domain

import (
	"fmt"

	"unified-chat/errors"
)

// DirectMessage is the variant data of a two-party channel.
// Its membership is fixed at creation.
type DirectMessage struct {
	UserA UserID
	UserB UserID
}

// NewDirectMessage opens a private conversation between two distinct users.
// userA is recorded as the creator.
func NewDirectMessage(userA, userB UserID) (*Channel, error) {
	if err := requireID(string(userA), "first participant"); err != nil {
		return nil, err
	}
	if err := requireID(string(userB), "second participant"); err != nil {
		return nil, err
	}
	if userA == userB {
		return nil, fmt.Errorf("%w: %s", errors.ErrSameParticipant, userA)
	}
	c := newChannel(DirectMessageChannel,
		fmt.Sprintf("DM_%s_%s", userA, userB), "Direct message between users", userA)
	c.participants[userB] = struct{}{}
	c.direct = DirectMessage{UserA: userA, UserB: userB}
	return c, nil
}

// OtherParticipant returns the counterpart of userID, false when userID is not part of the conversation.
func (d DirectMessage) OtherParticipant(userID UserID) (UserID, bool) {
	switch userID {
	case d.UserA:
		return d.UserB, true
	case d.UserB:
		return d.UserA, true
	default:
		return "", false
	}
}

func (d DirectMessage) InvolvesUser(userID UserID) bool {
	return userID == d.UserA || userID == d.UserB
}
