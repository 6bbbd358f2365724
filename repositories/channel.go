//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=../mocks/mock_channel_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"

	"unified-chat/domain"
	"unified-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

const channelPrefix = "channel:"

type IChannelRepository interface {
	StoreChannel(snapshot domain.ChannelSnapshot) error
	GetChannels() ([]domain.ChannelSnapshot, error)
}

type ChannelRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChannelRepository(db *badger.DB, log *slog.Logger) ChannelRepository {
	return ChannelRepository{db: db, log: log}
}

// StoreChannel upserts the channel under "channel:{id}".
func (c ChannelRepository) StoreChannel(snapshot domain.ChannelSnapshot) error {
	bytes, err := encode(fromSnapshot(snapshot))
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(channelPrefix+string(snapshot.ID)), bytes)
	})
}

// GetChannels decodes every stored channel. A single malformed record fails the whole load.
func (c ChannelRepository) GetChannels() ([]domain.ChannelSnapshot, error) {
	var snapshots []domain.ChannelSnapshot
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte(channelPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				r, err := decode(value)
				if err != nil {
					return err
				}
				snapshot, err := toSnapshot(r)
				if err != nil {
					return fmt.Errorf("key %s: %w", it.Item().Key(), err)
				}
				snapshots = append(snapshots, snapshot)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.Debug("Channels loaded", "count", len(snapshots))
	return snapshots, nil
}

func fromSnapshot(s domain.ChannelSnapshot) record {
	r := record{
		"id":           string(s.ID),
		"type":         string(s.Type),
		"name":         s.Name,
		"description":  s.Description,
		"creator":      string(s.CreatorID),
		"participants": stringList(s.Participants),
		"created_at":   formatTime(s.CreatedAt),
		"active":       s.Active,
	}
	switch s.Type {
	case domain.DirectMessageChannel:
		r["direct"] = map[string]any{
			"user_a": string(s.Direct.UserA),
			"user_b": string(s.Direct.UserB),
		}
	case domain.GroupChatChannel:
		r["group"] = map[string]any{
			"max_participants": float64(s.Group.MaxParticipants),
			"private":          s.Group.Private,
		}
	case domain.CourseChannel:
		r["course"] = map[string]any{
			"course_id":              s.Course.CourseID,
			"code":                   s.Course.Code,
			"name":                   s.Course.Name,
			"instructor":             string(s.Course.InstructorID),
			"semester":               s.Course.Semester,
			"year":                   float64(s.Course.Year),
			"allow_student_messages": s.Course.AllowStudentMessages,
		}
	}
	return r
}

func toSnapshot(r record) (domain.ChannelSnapshot, error) {
	createdAt, err := r.time("created_at")
	if err != nil {
		return domain.ChannelSnapshot{}, err
	}
	s := domain.ChannelSnapshot{
		ID:          domain.ChannelID(r.str("id")),
		Type:        domain.ChannelType(r.str("type")),
		Name:        r.str("name"),
		Description: r.str("description"),
		CreatorID:   domain.UserID(r.str("creator")),
		Participants: lo.Map(r.strings("participants"), func(p string, _ int) domain.UserID {
			return domain.UserID(p)
		}),
		CreatedAt: createdAt,
		Active:    r.boolean("active"),
	}
	switch s.Type {
	case domain.DirectMessageChannel:
		d := r.nested("direct")
		s.Direct = domain.DirectMessage{UserA: domain.UserID(d.str("user_a")), UserB: domain.UserID(d.str("user_b"))}
	case domain.GroupChatChannel:
		g := r.nested("group")
		s.Group = domain.GroupChat{MaxParticipants: int(g.number("max_participants")), Private: g.boolean("private")}
	case domain.CourseChannel:
		c := r.nested("course")
		s.Course = domain.Course{
			CourseID:             c.str("course_id"),
			Code:                 c.str("code"),
			Name:                 c.str("name"),
			InstructorID:         domain.UserID(c.str("instructor")),
			Semester:             c.str("semester"),
			Year:                 int(c.number("year")),
			AllowStudentMessages: c.boolean("allow_student_messages"),
		}
	default:
		return domain.ChannelSnapshot{}, fmt.Errorf("%w: %w: %q", errors.ErrInvalidRecord, errors.ErrUnknownChannelType, s.Type)
	}
	return s, nil
}
