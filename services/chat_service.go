package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"unified-chat/contract"
	"unified-chat/domain"
	"unified-chat/domain/event"
	"unified-chat/domain/search"
	"unified-chat/repositories"
	"unified-chat/runtime"

	"github.com/samber/lo"
)

// ChatService exposes the chat core to a signed-in user. Every operation is
// scoped to the caller and publishes an event only when the channel accepted
// the mutation. Policy rejections are reported as false, never as errors.
type ChatService struct {
	registry         *runtime.Registry
	fanout           *runtime.Fanout
	index            repositories.IMessageIndex
	moderator        contract.Moderator
	directory        contract.Directory
	log              *slog.Logger
	maxContentLength int
	searchLimit      int
}

type ChatOption func(*ChatService)

// WithModerator censors text and announcement content before it is sent.
func WithModerator(m contract.Moderator) ChatOption {
	return func(s *ChatService) { s.moderator = m }
}

// WithIndex enables the full-text history search.
func WithIndex(index repositories.IMessageIndex) ChatOption {
	return func(s *ChatService) { s.index = index }
}

func NewChatService(registry *runtime.Registry, fanout *runtime.Fanout, directory contract.Directory,
	log *slog.Logger, maxContentLength, searchLimit int, opts ...ChatOption) *ChatService {
	s := &ChatService{
		registry:         registry,
		fanout:           fanout,
		directory:        directory,
		log:              log,
		maxContentLength: maxContentLength,
		searchLimit:      searchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDirectMessage returns the existing conversation between caller and
// other when there is one.
func (s *ChatService) CreateDirectMessage(ctx context.Context, caller, other domain.UserID) (*domain.Channel, error) {
	if existing, ok := s.registry.FindDirectMessage(caller, other); ok {
		return existing, nil
	}
	channel, err := domain.NewDirectMessage(caller, other)
	if err != nil {
		return nil, err
	}
	registered, created, err := s.registry.RegisterDirectMessage(channel)
	if err != nil || !created {
		return registered, err
	}
	s.created(ctx, channel)
	return channel, nil
}

func (s *ChatService) CreateGroupChat(ctx context.Context, caller domain.UserID, name, description string, maxParticipants int, private bool) (*domain.Channel, error) {
	channel, err := domain.NewGroupChat(name, description, caller, maxParticipants, private)
	if err != nil {
		return nil, err
	}
	return channel, s.register(ctx, channel)
}

// CreateCourseChannel makes caller the instructor.
func (s *ChatService) CreateCourseChannel(ctx context.Context, caller domain.UserID, course domain.Course) (*domain.Channel, error) {
	course.InstructorID = caller
	channel, err := domain.NewCourseChannel(course)
	if err != nil {
		return nil, err
	}
	return channel, s.register(ctx, channel)
}

func (s *ChatService) register(ctx context.Context, channel *domain.Channel) error {
	if err := s.registry.Register(channel); err != nil {
		return err
	}
	s.created(ctx, channel)
	return nil
}

func (s *ChatService) created(ctx context.Context, channel *domain.Channel) {
	s.log.Info("Channel created", "channel", channel.ID(), "type", channel.Type(), "creator", channel.CreatorID())
	s.publish(ctx, event.ChannelCreated{Snapshot: channel.Snapshot(), At: time.Now().UTC()})
}

func (s *ChatService) Channel(id domain.ChannelID) (*domain.Channel, bool) {
	return s.registry.Get(id)
}

// JoinChannel lets caller in on their own. Private group chats only accept
// members added by someone already inside.
func (s *ChatService) JoinChannel(ctx context.Context, caller domain.UserID, channelID domain.ChannelID) bool {
	channel, ok := s.registry.Get(channelID)
	if !ok || channel.IsPrivate() {
		return false
	}
	return s.join(ctx, channel, caller)
}

// AddMember is the invitation path, open to any current participant.
func (s *ChatService) AddMember(ctx context.Context, caller, userID domain.UserID, channelID domain.ChannelID) bool {
	channel, ok := s.registry.Get(channelID)
	if !ok || !channel.IsParticipant(caller) {
		return false
	}
	return s.join(ctx, channel, userID)
}

func (s *ChatService) join(ctx context.Context, channel *domain.Channel, userID domain.UserID) bool {
	if !channel.AddParticipant(userID) {
		s.log.Debug("Join rejected", "channel", channel.ID(), "user", userID)
		return false
	}
	s.registry.Track(userID, channel.ID())
	s.publish(ctx, event.ParticipantJoined{Snapshot: channel.Snapshot(), UserID: userID, At: time.Now().UTC()})
	return true
}

func (s *ChatService) LeaveChannel(ctx context.Context, caller domain.UserID, channelID domain.ChannelID) bool {
	channel, ok := s.registry.Get(channelID)
	if !ok || !channel.RemoveParticipant(caller) {
		s.log.Debug("Leave rejected", "channel", channelID, "user", caller)
		return false
	}
	s.registry.Untrack(caller, channelID)
	s.publish(ctx, event.ParticipantLeft{Snapshot: channel.Snapshot(), UserID: caller, At: time.Now().UTC()})
	return true
}

func (s *ChatService) CanSendIn(caller domain.UserID, channelID domain.ChannelID) bool {
	channel, ok := s.registry.Get(channelID)
	return ok && channel.CanSend(caller)
}

func (s *ChatService) SendText(ctx context.Context, caller domain.UserID, channelID domain.ChannelID, content string) bool {
	content, ok := s.prepare(content)
	if !ok {
		return false
	}
	return s.send(ctx, channelID, domain.NewTextMessage(channelID, caller, content))
}

func (s *ChatService) SendFile(ctx context.Context, caller domain.UserID, channelID domain.ChannelID, file domain.FileAttachment) bool {
	if strings.TrimSpace(file.Name) == "" || file.Size < 0 {
		return false
	}
	return s.send(ctx, channelID, domain.NewFileMessage(channelID, caller, file))
}

// SendAnnouncement only works in course channels. The course fields of the
// announcement are taken from the channel.
func (s *ChatService) SendAnnouncement(ctx context.Context, caller domain.UserID, channelID domain.ChannelID,
	content string, important bool, category domain.AnnouncementCategory) bool {
	channel, ok := s.registry.Get(channelID)
	if !ok {
		return false
	}
	course, ok := channel.Course()
	if !ok {
		return false
	}
	content, ok = s.prepare(content)
	if !ok {
		return false
	}
	return s.send(ctx, channelID, domain.NewAnnouncementMessage(channelID, caller, content, domain.Announcement{
		CourseID:   course.CourseID,
		CourseName: course.CourseIdentifier(),
		Important:  important,
		Category:   category,
	}))
}

// prepare rejects blank or oversized content and applies moderation.
func (s *ChatService) prepare(content string) (string, bool) {
	if strings.TrimSpace(content) == "" {
		return "", false
	}
	if s.maxContentLength > 0 && utf8.RuneCountInString(content) > s.maxContentLength {
		return "", false
	}
	if s.moderator != nil {
		censored, words := s.moderator.Censor(content)
		if len(words) > 0 {
			s.log.Debug("Message censored", "words", len(words))
		}
		return censored, true
	}
	return content, true
}

func (s *ChatService) send(ctx context.Context, channelID domain.ChannelID, message domain.Message) bool {
	channel, ok := s.registry.Get(channelID)
	if !ok {
		return false
	}
	sent, ok := channel.Post(message)
	if !ok {
		s.log.Debug("Message rejected", "channel", channelID, "sender", message.SenderID)
		return false
	}
	s.publish(ctx, event.MessageSent{Message: sent})
	return true
}

// Messages returns the log of a channel caller belongs to.
func (s *ChatService) Messages(caller domain.UserID, channelID domain.ChannelID) []domain.Message {
	channel, ok := s.memberChannel(caller, channelID)
	if !ok {
		return nil
	}
	return channel.Messages()
}

func (s *ChatService) UnreadMessages(caller domain.UserID, channelID domain.ChannelID) []domain.Message {
	channel, ok := s.memberChannel(caller, channelID)
	if !ok {
		return nil
	}
	return channel.UnreadMessages(caller)
}

func (s *ChatService) UnreadCount(caller domain.UserID, channelID domain.ChannelID) int {
	channel, ok := s.memberChannel(caller, channelID)
	if !ok {
		return 0
	}
	return channel.UnreadCount(caller)
}

// TotalUnread sums the unread counts of every channel caller belongs to.
func (s *ChatService) TotalUnread(caller domain.UserID) int {
	return lo.SumBy(s.registry.ChannelsOf(caller), func(c *domain.Channel) int {
		return c.UnreadCount(caller)
	})
}

// MarkAllRead returns how many messages were flipped to read.
func (s *ChatService) MarkAllRead(ctx context.Context, caller domain.UserID, channelID domain.ChannelID) int {
	channel, ok := s.memberChannel(caller, channelID)
	if !ok {
		return 0
	}
	ids := channel.MarkAllMessagesAsRead(caller)
	if len(ids) > 0 {
		s.publish(ctx, event.MessagesRead{Channel: channelID, Reader: caller, MessageIDs: ids, At: time.Now().UTC()})
	}
	return len(ids)
}

// SearchMessages runs the keyword search on every channel caller belongs to,
// one channel lock at a time.
func (s *ChatService) SearchMessages(caller domain.UserID, keyword string) []domain.Message {
	var found []domain.Message
	for _, channel := range s.registry.ChannelsOf(caller) {
		found = append(found, channel.SearchMessages(keyword)...)
	}
	return found
}

// SearchHistory queries the full-text index, e.g. "/find exam --channel <id> --limit 5".
// Hits are restricted to channels caller belongs to.
func (s *ChatService) SearchHistory(ctx context.Context, caller domain.UserID, input string) ([]repositories.IndexHit, error) {
	if s.index == nil {
		return nil, nil
	}
	query := search.NewSearchQuery(input, s.searchLimit)
	channelIDs := lo.Map(s.registry.ChannelsOf(caller), func(c *domain.Channel, _ int) domain.ChannelID {
		return c.ID()
	})
	if query.ChannelID != "" {
		channelIDs = lo.Filter(channelIDs, func(id domain.ChannelID, _ int) bool {
			return id == domain.ChannelID(query.ChannelID)
		})
	}
	if len(channelIDs) == 0 || query.Terms == "" {
		return nil, nil
	}
	hits, err := s.index.Search(ctx, repositories.IndexQuery{Terms: query.Terms, ChannelIDs: channelIDs, Limit: query.Limit})
	if err != nil {
		return nil, fmt.Errorf("history search failed: %w", err)
	}
	return hits, nil
}

func (s *ChatService) ExportHistory(caller domain.UserID, channelID domain.ChannelID) (string, bool) {
	channel, ok := s.memberChannel(caller, channelID)
	if !ok {
		return "", false
	}
	return channel.ExportChatHistory(), true
}

func (s *ChatService) UserChannels(caller domain.UserID) []*domain.Channel {
	return s.registry.ChannelsOf(caller)
}

func (s *ChatService) AvailableChannels(caller domain.UserID) []*domain.Channel {
	return s.registry.AvailableTo(caller)
}

// ChannelDisplayName names a direct message after the other participant.
func (s *ChatService) ChannelDisplayName(caller domain.UserID, channel *domain.Channel) string {
	if dm, ok := channel.DirectMessage(); ok {
		if other, ok := dm.OtherParticipant(caller); ok {
			return "DM · " + s.directory.DisplayName(other)
		}
	}
	return channel.Name()
}

// DeactivateChannel is reserved to the creator.
func (s *ChatService) DeactivateChannel(ctx context.Context, caller domain.UserID, channelID domain.ChannelID) bool {
	channel, ok := s.registry.Get(channelID)
	if !ok || channel.CreatorID() != caller || !channel.SetActive(false) {
		return false
	}
	s.publish(ctx, event.ChannelUpdated{Snapshot: channel.Snapshot(), At: time.Now().UTC()})
	return true
}

// SetAllowStudentMessages is reserved to the course instructor.
func (s *ChatService) SetAllowStudentMessages(ctx context.Context, caller domain.UserID, channelID domain.ChannelID, allow bool) bool {
	channel, ok := s.registry.Get(channelID)
	if !ok {
		return false
	}
	course, ok := channel.Course()
	if !ok || !course.IsInstructor(caller) || !channel.SetAllowStudentMessages(allow) {
		return false
	}
	s.publish(ctx, event.ChannelUpdated{Snapshot: channel.Snapshot(), At: time.Now().UTC()})
	return true
}

func (s *ChatService) memberChannel(caller domain.UserID, channelID domain.ChannelID) (*domain.Channel, bool) {
	channel, ok := s.registry.Get(channelID)
	if !ok || !channel.IsParticipant(caller) {
		return nil, false
	}
	return channel, true
}

// publish never undoes an accepted mutation: sink failures are logged by the fanout.
func (s *ChatService) publish(ctx context.Context, events ...event.DomainEvent) {
	if err := s.fanout.Publish(ctx, events...); err != nil {
		s.log.Warn("Event not fully delivered", "error", err)
	}
}
