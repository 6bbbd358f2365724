// Package runtime keeps live channels in memory and delivers their events.
package runtime

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"unified-chat/domain"
	"unified-chat/errors"

	"github.com/samber/lo"
)

type Set map[domain.ChannelID]struct{}

// Registry owns every live channel. Its lock protects the maps only:
// channel state is guarded by each channel's own lock.
type Registry struct {
	mu          sync.RWMutex
	channels    map[domain.ChannelID]*domain.Channel
	memberships map[domain.UserID]Set // user -> channels
}

func NewRegistry() *Registry {
	return &Registry{
		channels:    make(map[domain.ChannelID]*domain.Channel),
		memberships: make(map[domain.UserID]Set),
	}
}

// Register adds a channel and indexes its current participants.
func (r *Registry) Register(channel *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(channel)
}

func (r *Registry) register(channel *domain.Channel) error {
	if _, ok := r.channels[channel.ID()]; ok {
		return fmt.Errorf("%w: %s", errors.ErrChannelAlreadyExists, channel.ID())
	}
	r.channels[channel.ID()] = channel
	for _, userID := range channel.Participants() {
		r.track(userID, channel.ID())
	}
	return nil
}

func (r *Registry) Get(id domain.ChannelID) (*domain.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.channels[id]
	return c, ok
}

// All returns every channel ordered by creation time.
func (r *Registry) All() []*domain.Channel {
	r.mu.RLock()
	channels := lo.Values(r.channels)
	r.mu.RUnlock()
	sortByCreation(channels)
	return channels
}

// ChannelsOf returns the channels userID belongs to, ordered by creation time.
// The membership index can lag behind a concurrent join or leave, so each
// candidate is checked against the channel itself.
func (r *Registry) ChannelsOf(userID domain.UserID) []*domain.Channel {
	r.mu.RLock()
	channels := r.channelsOf(userID)
	r.mu.RUnlock()
	sortByCreation(channels)
	return channels
}

func (r *Registry) channelsOf(userID domain.UserID) []*domain.Channel {
	channels := make([]*domain.Channel, 0, len(r.memberships[userID]))
	for id := range r.memberships[userID] {
		if c, ok := r.channels[id]; ok && c.IsParticipant(userID) {
			channels = append(channels, c)
		}
	}
	return channels
}

// AvailableTo lists active, public group chats and course channels userID could join.
func (r *Registry) AvailableTo(userID domain.UserID) []*domain.Channel {
	return lo.Filter(r.All(), func(c *domain.Channel, _ int) bool {
		if c.Type() == domain.DirectMessageChannel || c.IsPrivate() {
			return false
		}
		return c.IsActive() && !c.IsParticipant(userID)
	})
}

// FindDirectMessage returns the conversation between a and b, in either order.
func (r *Registry) FindDirectMessage(a, b domain.UserID) (*domain.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findDirectMessage(a, b)
}

// RegisterDirectMessage registers channel unless its two users already share a
// conversation, in which case that one is returned with false.
func (r *Registry) RegisterDirectMessage(channel *domain.Channel) (*domain.Channel, bool, error) {
	dm, ok := channel.DirectMessage()
	if !ok {
		return nil, false, fmt.Errorf("%w: %s is not a direct message", errors.ErrUnknownChannelType, channel.ID())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.findDirectMessage(dm.UserA, dm.UserB); ok {
		return existing, false, nil
	}
	if err := r.register(channel); err != nil {
		return nil, false, err
	}
	return channel, true, nil
}

func (r *Registry) findDirectMessage(a, b domain.UserID) (*domain.Channel, bool) {
	if a == b {
		return nil, false
	}
	return lo.Find(r.channelsOf(a), func(c *domain.Channel) bool {
		dm, ok := c.DirectMessage()
		return ok && dm.InvolvesUser(b)
	})
}

// Track records that userID joined channelID.
func (r *Registry) Track(userID domain.UserID, channelID domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.track(userID, channelID)
}

// Untrack forgets the membership and drops empty sets.
func (r *Registry) Untrack(userID domain.UserID, channelID domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.memberships[userID]; ok {
		delete(set, channelID)
		if len(set) == 0 {
			delete(r.memberships, userID)
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

func (r *Registry) track(userID domain.UserID, channelID domain.ChannelID) {
	if _, ok := r.memberships[userID]; !ok {
		r.memberships[userID] = make(Set)
	}
	r.memberships[userID][channelID] = struct{}{}
}

func sortByCreation(channels []*domain.Channel) {
	slices.SortFunc(channels, func(a, b *domain.Channel) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})
}
