package runtime

import (
	"fmt"
	"sync"
	"testing"

	"unified-chat/domain"
	"unified-chat/errors"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Register_Tracks_Participants(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given a group chat with two members
	group, err := domain.NewGroupChat("Study", "", "alice", 5, false)
	req.NoError(err)
	req.True(group.AddParticipant("bob"))

	// When it is registered
	req.NoError(registry.Register(group))

	// Then both members see it
	req.Equal(1, registry.Len())
	req.Len(registry.ChannelsOf("alice"), 1)
	req.Len(registry.ChannelsOf("bob"), 1)
	req.Empty(registry.ChannelsOf("carol"))

	got, ok := registry.Get(group.ID())
	req.True(ok)
	req.Same(group, got)
}

func TestRegistry_Register_Twice(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	group, err := domain.NewGroupChat("Study", "", "alice", 5, false)
	req.NoError(err)

	req.NoError(registry.Register(group))
	req.ErrorIs(registry.Register(group), errors.ErrChannelAlreadyExists)
	req.Equal(1, registry.Len())
}

func TestRegistry_Track_Untrack(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	group, err := domain.NewGroupChat("Study", "", "alice", 5, false)
	req.NoError(err)
	req.NoError(registry.Register(group))

	registry.Track("bob", group.ID())
	req.Len(registry.ChannelsOf("bob"), 1)

	registry.Untrack("bob", group.ID())
	req.Empty(registry.ChannelsOf("bob"))
	req.Empty(registry.memberships["bob"], "empty sets are dropped")

	// Unknown users are ignored
	registry.Untrack("nobody", group.ID())
}

func TestRegistry_AvailableTo(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	public, err := domain.NewGroupChat("Public", "", "alice", 5, false)
	req.NoError(err)
	private, err := domain.NewGroupChat("Private", "", "alice", 5, true)
	req.NoError(err)
	closed, err := domain.NewGroupChat("Closed", "", "alice", 5, false)
	req.NoError(err)
	closed.SetActive(false)
	dm, err := domain.NewDirectMessage("alice", "bob")
	req.NoError(err)
	course, err := domain.NewCourseChannel(domain.Course{CourseID: "c1", Code: "CS101", Name: "Intro", InstructorID: "prof"})
	req.NoError(err)

	for _, c := range []*domain.Channel{public, private, closed, dm, course} {
		req.NoError(registry.Register(c))
	}

	ids := func(channels []*domain.Channel) []domain.ChannelID {
		out := make([]domain.ChannelID, 0, len(channels))
		for _, c := range channels {
			out = append(out, c.ID())
		}
		return out
	}

	req.ElementsMatch([]domain.ChannelID{public.ID(), course.ID()}, ids(registry.AvailableTo("carol")))
	req.ElementsMatch([]domain.ChannelID{course.ID()}, ids(registry.AvailableTo("alice")), "members are excluded")
}

func TestRegistry_FindDirectMessage(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	dm, err := domain.NewDirectMessage("alice", "bob")
	req.NoError(err)
	req.NoError(registry.Register(dm))

	found, ok := registry.FindDirectMessage("bob", "alice")
	req.True(ok)
	req.Equal(dm.ID(), found.ID())

	_, ok = registry.FindDirectMessage("alice", "carol")
	req.False(ok)
	_, ok = registry.FindDirectMessage("alice", "alice")
	req.False(ok)
}

func TestRegistry_All_Ordered_By_Creation(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	var created []domain.ChannelID
	for i := range 5 {
		group, err := domain.NewGroupChat(fmt.Sprintf("group-%d", i), "", "alice", 5, false)
		req.NoError(err)
		req.NoError(registry.Register(group))
		created = append(created, group.ID())
	}

	all := registry.All()
	req.Len(all, 5)
	for i := 1; i < len(all); i++ {
		req.False(all[i].CreatedAt().Before(all[i-1].CreatedAt()))
	}
	req.ElementsMatch(created, []domain.ChannelID{all[0].ID(), all[1].ID(), all[2].ID(), all[3].ID(), all[4].ID()})
}

func TestRegistry_Concurrent_Access(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	group, err := domain.NewGroupChat("Study", "", "alice", 100, false)
	req.NoError(err)
	req.NoError(registry.Register(group))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(user domain.UserID) {
			defer wg.Done()
			if group.AddParticipant(user) {
				registry.Track(user, group.ID())
			}
			_ = registry.ChannelsOf(user)
			_ = registry.AvailableTo(user)
		}(domain.UserID(fmt.Sprintf("user-%d", i)))
	}
	wg.Wait()

	req.Equal(51, group.ParticipantCount())
	req.Len(registry.ChannelsOf("user-7"), 1)
}

func TestRegistry_ChannelsOf_Ignores_Stale_Membership(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	group, err := domain.NewGroupChat("Study", "", "alice", 5, false)
	req.NoError(err)
	req.NoError(registry.Register(group))

	// Given bob indexed in a channel he is not a member of
	registry.Track("bob", group.ID())

	// Then the channel is not listed for him
	req.Empty(registry.ChannelsOf("bob"))
	req.Len(registry.ChannelsOf("alice"), 1)
}

func TestRegistry_RegisterDirectMessage(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first, err := domain.NewDirectMessage("alice", "bob")
	req.NoError(err)
	second, err := domain.NewDirectMessage("bob", "alice")
	req.NoError(err)

	got, created, err := registry.RegisterDirectMessage(first)
	req.NoError(err)
	req.True(created)
	req.Same(first, got)

	got, created, err = registry.RegisterDirectMessage(second)
	req.NoError(err)
	req.False(created)
	req.Same(first, got)
	req.Equal(1, registry.Len())

	group, err := domain.NewGroupChat("Study", "", "alice", 5, false)
	req.NoError(err)
	_, _, err = registry.RegisterDirectMessage(group)
	req.ErrorIs(err, errors.ErrUnknownChannelType)
}

func TestRegistry_RegisterDirectMessage_Concurrent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := domain.UserID("alice"), domain.UserID("bob")
			if i%2 == 1 {
				a, b = b, a
			}
			dm, err := domain.NewDirectMessage(a, b)
			if err != nil {
				return
			}
			if _, ok, err := registry.RegisterDirectMessage(dm); err == nil && ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	req.Equal(1, created)
	req.Equal(1, registry.Len())
}
