//go:generate go run go.uber.org/mock/mockgen -source=index.go -destination=../mocks/mock_message_index.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"unified-chat/domain"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

const (
	fieldContent   = "content"
	fieldChannel   = "channel"
	fieldSender    = "sender"
	fieldLang      = "lang"
	fieldCreatedAt = "created_at"
)

// IMessageIndex is the full-text history index. It complements the in-memory
// keyword search with ranked results across the whole stored history.
type IMessageIndex interface {
	Index(message domain.Message, lang string) error
	Search(ctx context.Context, query IndexQuery) ([]IndexHit, error)
}

// IndexQuery restricts Terms to ChannelIDs. An empty channel list matches nothing.
type IndexQuery struct {
	Terms      string
	ChannelIDs []domain.ChannelID
	Limit      int
}

type IndexHit struct {
	MessageID uuid.UUID
	ChannelID domain.ChannelID
	SenderID  domain.UserID
	Content   string
	Lang      string
	CreatedAt time.Time
	Score     float64
}

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// Index upserts the message document, keyed by message id.
func (i *MessageIndex) Index(message domain.Message, lang string) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField(fieldContent, message.Content).StoreValue()).
		AddField(bluge.NewKeywordField(fieldChannel, string(message.ChannelID)).StoreValue()).
		AddField(bluge.NewKeywordField(fieldSender, string(message.SenderID)).StoreValue()).
		AddField(bluge.NewKeywordField(fieldLang, lang).StoreValue()).
		AddField(bluge.NewDateTimeField(fieldCreatedAt, message.CreatedAt).StoreValue())
	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("failed to index message %s: %w", message.ID, err)
	}
	return nil
}

// Search returns the best matches first.
func (i *MessageIndex) Search(ctx context.Context, query IndexQuery) ([]IndexHit, error) {
	if strings.TrimSpace(query.Terms) == "" || len(query.ChannelIDs) == 0 {
		return nil, nil
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}

	channels := bluge.NewBooleanQuery().SetMinShould(1)
	for _, id := range query.ChannelIDs {
		channels.AddShould(bluge.NewTermQuery(string(id)).SetField(fieldChannel))
	}
	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query.Terms).SetField(fieldContent)).
		AddMust(channels)

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open index reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	dmi, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var hits []IndexHit
	match, err := dmi.Next()
	for err == nil && match != nil {
		hit := IndexHit{Score: match.Score}
		var visitErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID, visitErr = uuid.ParseBytes(value)
			case fieldContent:
				hit.Content = string(value)
			case fieldChannel:
				hit.ChannelID = domain.ChannelID(value)
			case fieldSender:
				hit.SenderID = domain.UserID(value)
			case fieldLang:
				hit.Lang = string(value)
			case fieldCreatedAt:
				hit.CreatedAt, visitErr = bluge.DecodeDateTime(value)
			}
			return visitErr == nil
		})
		if err != nil {
			return nil, err
		}
		if visitErr != nil {
			i.log.Warn("Skipping malformed index document", "error", visitErr)
		} else {
			hits = append(hits, hit)
		}
		match, err = dmi.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}
