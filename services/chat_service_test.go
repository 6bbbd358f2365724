package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"unified-chat/domain"
	"unified-chat/domain/event"
	"unified-chat/mocks"
	"unified-chat/moderation"
	"unified-chat/repositories"
	"unified-chat/runtime"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recorder keeps every event it receives.
type recorder struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (r *recorder) Consume(_ context.Context, e event.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

type fixture struct {
	svc       *ChatService
	registry  *runtime.Registry
	sink      *recorder
	directory *mocks.MockDirectory
	index     *mocks.MockIMessageIndex
}

func newFixture(t *testing.T, opts ...ChatOption) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := runtime.NewRegistry()
	sink := &recorder{}
	directory := mocks.NewMockDirectory(ctrl)
	index := mocks.NewMockIMessageIndex(ctrl)
	fanout := runtime.NewFanout(log, time.Second, sink)
	opts = append([]ChatOption{WithIndex(index)}, opts...)
	svc := NewChatService(registry, fanout, directory, log, 50, 10, opts...)
	return fixture{svc: svc, registry: registry, sink: sink, directory: directory, index: index}
}

func TestChatService_CreateDirectMessage_ReusesExisting(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	// Given a conversation between alice and bob
	first, err := f.svc.CreateDirectMessage(ctx, "alice", "bob")
	req.NoError(err)

	// When bob opens one with alice
	second, err := f.svc.CreateDirectMessage(ctx, "bob", "alice")
	req.NoError(err)

	// Then the same channel is returned and only one creation was published
	req.Equal(first.ID(), second.ID())
	req.Len(f.sink.events, 1)
	req.IsType(event.ChannelCreated{}, f.sink.events[0])
	req.Len(f.svc.UserChannels("bob"), 1)

	_, err = f.svc.CreateDirectMessage(ctx, "alice", "alice")
	req.Error(err)
}

func TestChatService_GroupLifecycle(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	group, err := f.svc.CreateGroupChat(ctx, "alice", "Study", "revision", 2, false)
	req.NoError(err)

	// Join until full
	req.True(f.svc.JoinChannel(ctx, "bob", group.ID()))
	req.False(f.svc.JoinChannel(ctx, "carol", group.ID()), "group is full")
	req.False(f.svc.JoinChannel(ctx, "bob", group.ID()), "already a member")
	req.False(f.svc.JoinChannel(ctx, "bob", "unknown"))

	// Leave
	req.False(f.svc.LeaveChannel(ctx, "alice", group.ID()), "creator stays")
	req.True(f.svc.LeaveChannel(ctx, "bob", group.ID()))
	req.Empty(f.svc.UserChannels("bob"))

	kinds := make([]string, 0, len(f.sink.events))
	for _, e := range f.sink.events {
		switch e.(type) {
		case event.ChannelCreated:
			kinds = append(kinds, "created")
		case event.ParticipantJoined:
			kinds = append(kinds, "joined")
		case event.ParticipantLeft:
			kinds = append(kinds, "left")
		}
	}
	req.Equal([]string{"created", "joined", "left"}, kinds)
}

func TestChatService_PrivateGroupNeedsInvitation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	group, err := f.svc.CreateGroupChat(ctx, "alice", "Secret", "", 5, true)
	req.NoError(err)

	req.Empty(f.svc.AvailableChannels("bob"))
	req.False(f.svc.JoinChannel(ctx, "bob", group.ID()))
	req.False(f.svc.AddMember(ctx, "mallory", "bob", group.ID()), "only members invite")
	req.True(f.svc.AddMember(ctx, "alice", "bob", group.ID()))
	req.True(group.IsParticipant("bob"))
}

func TestChatService_SendAndRead(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	group, err := f.svc.CreateGroupChat(ctx, "alice", "Study", "", 5, false)
	req.NoError(err)
	req.True(f.svc.JoinChannel(ctx, "bob", group.ID()))

	req.True(f.svc.SendText(ctx, "alice", group.ID(), "hello bob"))
	req.True(f.svc.SendFile(ctx, "alice", group.ID(), domain.FileAttachment{Name: "notes.pdf", Size: 10, MimeType: "application/pdf"}))
	req.False(f.svc.SendText(ctx, "carol", group.ID(), "let me in"), "not a member")
	req.False(f.svc.SendText(ctx, "alice", group.ID(), "   "), "blank")
	req.False(f.svc.SendText(ctx, "alice", group.ID(), string(make([]rune, 51))), "too long")
	req.False(f.svc.SendFile(ctx, "alice", group.ID(), domain.FileAttachment{}), "nameless file")

	req.Len(f.svc.Messages("bob", group.ID()), 2)
	req.Nil(f.svc.Messages("carol", group.ID()))
	req.Equal(2, f.svc.UnreadCount("bob", group.ID()))
	req.Equal(2, f.svc.TotalUnread("bob"))
	req.Equal(0, f.svc.UnreadCount("alice", group.ID()))

	req.Equal(2, f.svc.MarkAllRead(ctx, "bob", group.ID()))
	req.Equal(0, f.svc.MarkAllRead(ctx, "bob", group.ID()))
	req.Empty(f.svc.UnreadMessages("bob", group.ID()))

	read, ok := f.sink.events[len(f.sink.events)-1].(event.MessagesRead)
	req.True(ok)
	req.Len(read.MessageIDs, 2)
	req.Equal(domain.UserID("bob"), read.Reader)
}

func TestChatService_Moderation(t *testing.T) {
	req := require.New(t)
	moderator, err := moderation.NewModerator([]string{"idiot"}, '*', logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)
	f := newFixture(t, WithModerator(moderator))
	ctx := context.Background()
	group, err := f.svc.CreateGroupChat(ctx, "alice", "Study", "", 5, false)
	req.NoError(err)

	req.True(f.svc.SendText(ctx, "alice", group.ID(), "you idiot"))
	req.Equal("you *****", f.svc.Messages("alice", group.ID())[0].Content)
}

func TestChatService_CourseRules(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	course, err := f.svc.CreateCourseChannel(ctx, "prof", domain.Course{
		CourseID: "c1", Code: "CS101", Name: "Intro", Semester: "Fall", Year: 2024,
	})
	req.NoError(err)
	req.True(f.svc.JoinChannel(ctx, "student", course.ID()))

	// Students are muted by default
	req.False(f.svc.CanSendIn("student", course.ID()))
	req.True(f.svc.CanSendIn("prof", course.ID()))

	// Only the instructor can open the floor
	req.False(f.svc.SetAllowStudentMessages(ctx, "student", course.ID(), true))
	req.True(f.svc.SetAllowStudentMessages(ctx, "prof", course.ID(), true))
	req.True(f.svc.SendText(ctx, "student", course.ID(), "question"))

	// Announcements take their course fields from the channel
	req.True(f.svc.SendAnnouncement(ctx, "prof", course.ID(), "Midterm moved", true, "exam"))
	messages := f.svc.Messages("prof", course.ID())
	announcement := messages[len(messages)-1]
	req.Equal(domain.AnnouncementMessage, announcement.Type)
	req.Equal("🚨 📚 [CS101 - Intro] EXAM: Midterm moved", announcement.FormattedContent())

	// Not in a group chat
	group, err := f.svc.CreateGroupChat(ctx, "prof", "Office hours", "", 5, false)
	req.NoError(err)
	req.False(f.svc.SendAnnouncement(ctx, "prof", group.ID(), "x", false, domain.CategoryGeneral))
}

func TestChatService_DeactivateChannel(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	group, err := f.svc.CreateGroupChat(ctx, "alice", "Study", "", 5, false)
	req.NoError(err)
	req.True(f.svc.JoinChannel(ctx, "bob", group.ID()))

	req.False(f.svc.DeactivateChannel(ctx, "bob", group.ID()), "creator only")
	req.True(f.svc.DeactivateChannel(ctx, "alice", group.ID()))
	req.False(f.svc.DeactivateChannel(ctx, "alice", group.ID()), "already inactive")

	req.False(f.svc.SendText(ctx, "alice", group.ID(), "anyone?"))
	req.False(f.svc.JoinChannel(ctx, "carol", group.ID()))
	req.Empty(f.svc.AvailableChannels("carol"))
}

func TestChatService_DeactivateChannel_Concurrent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	group, err := f.svc.CreateGroupChat(ctx, "alice", "Study", "", 5, false)
	req.NoError(err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	closed := 0
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.svc.DeactivateChannel(ctx, "alice", group.ID()) {
				mu.Lock()
				closed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	req.Equal(1, closed)
	updates := 0
	for _, e := range f.sink.events {
		if _, ok := e.(event.ChannelUpdated); ok {
			updates++
		}
	}
	req.Equal(1, updates)
}

func TestChatService_SearchMessages(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	mine, err := f.svc.CreateGroupChat(ctx, "alice", "Mine", "", 5, false)
	req.NoError(err)
	other, err := f.svc.CreateGroupChat(ctx, "bob", "Other", "", 5, false)
	req.NoError(err)

	req.True(f.svc.SendText(ctx, "alice", mine.ID(), "Exam on Friday"))
	req.True(f.svc.SendText(ctx, "bob", other.ID(), "exam answers"))

	found := f.svc.SearchMessages("alice", "EXAM")
	req.Len(found, 1)
	req.Equal(mine.ID(), found[0].ChannelID)
	req.Empty(f.svc.SearchMessages("alice", ""))
}

func TestChatService_SearchHistory(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	mine, err := f.svc.CreateGroupChat(ctx, "alice", "Mine", "", 5, false)
	req.NoError(err)
	_, err = f.svc.CreateGroupChat(ctx, "bob", "Other", "", 5, false)
	req.NoError(err)

	hits := []repositories.IndexHit{{ChannelID: mine.ID(), Content: "exam"}}
	f.index.EXPECT().
		Search(gomock.Any(), repositories.IndexQuery{Terms: "exam", ChannelIDs: []domain.ChannelID{mine.ID()}, Limit: 3}).
		Return(hits, nil)

	got, err := f.svc.SearchHistory(ctx, "alice", "/find exam --limit 3")
	req.NoError(err)
	req.Equal(hits, got)

	// A foreign channel filter leaves nothing to search, the index is not queried
	got, err = f.svc.SearchHistory(ctx, "alice", "/find exam --channel elsewhere")
	req.NoError(err)
	req.Empty(got)

	got, err = f.svc.SearchHistory(ctx, "alice", "/find")
	req.NoError(err)
	req.Empty(got)
}

func TestChatService_ChannelDisplayName(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	dm, err := f.svc.CreateDirectMessage(ctx, "alice", "bob")
	req.NoError(err)
	group, err := f.svc.CreateGroupChat(ctx, "alice", "Study", "", 5, false)
	req.NoError(err)

	f.directory.EXPECT().DisplayName(domain.UserID("bob")).Return("Bob Stone")

	req.Equal("DM · Bob Stone", f.svc.ChannelDisplayName("alice", dm))
	req.Equal("Study", f.svc.ChannelDisplayName("alice", group))
}

func TestChatService_ExportHistory(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	group, err := f.svc.CreateGroupChat(ctx, "alice", "Study", "", 5, false)
	req.NoError(err)
	req.True(f.svc.SendText(ctx, "alice", group.ID(), "hello"))

	export, ok := f.svc.ExportHistory("alice", group.ID())
	req.True(ok)
	req.Contains(export, "=== Chat History for Study ===")
	req.Contains(export, "alice: hello")

	_, ok = f.svc.ExportHistory("bob", group.ID())
	req.False(ok)
}

func TestChatService_FailingSinkKeepsMutation(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	failing := mocks.NewMockEventSink(ctrl)
	failing.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(context.DeadlineExceeded).AnyTimes()
	svc := NewChatService(runtime.NewRegistry(), runtime.NewFanout(log, time.Second, failing),
		mocks.NewMockDirectory(ctrl), log, 0, 10)
	ctx := context.Background()

	group, err := svc.CreateGroupChat(ctx, "alice", "Study", "", 5, false)
	req.NoError(err)
	req.True(svc.SendText(ctx, "alice", group.ID(), "still here"))
	req.Len(svc.Messages("alice", group.ID()), 1)
}

func TestChatService_CreateDirectMessage_Concurrent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]domain.ChannelID, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caller, other := domain.UserID("alice"), domain.UserID("bob")
			if i%2 == 1 {
				caller, other = other, caller
			}
			dm, err := f.svc.CreateDirectMessage(ctx, caller, other)
			if err == nil {
				ids[i] = dm.ID()
			}
		}(i)
	}
	wg.Wait()

	// Every caller got the same conversation
	for _, id := range ids {
		req.Equal(ids[0], id)
	}
	req.Equal(1, f.registry.Len())
	req.Len(f.sink.events, 1)
}

func TestChatService_ConcurrentJoinLeave_NeverLeaks(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	group, err := f.svc.CreateGroupChat(ctx, "alice", "Study", "", 5, false)
	req.NoError(err)
	req.True(f.svc.SendText(ctx, "alice", group.ID(), "secret plan"))

	// Given bob joining and leaving concurrently many times
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.svc.AddMember(ctx, "alice", "bob", group.ID())
		}()
		go func() {
			defer wg.Done()
			f.svc.LeaveChannel(ctx, "bob", group.ID())
		}()
	}
	wg.Wait()

	// When bob ends up outside the channel
	f.svc.LeaveChannel(ctx, "bob", group.ID())
	req.False(group.IsParticipant("bob"))

	// Then no cross-channel query exposes it
	req.Empty(f.svc.UserChannels("bob"))
	req.Empty(f.svc.SearchMessages("bob", "secret"))
	req.Zero(f.svc.TotalUnread("bob"))
	hits, err := f.svc.SearchHistory(ctx, "bob", "secret")
	req.NoError(err)
	req.Empty(hits)
}
