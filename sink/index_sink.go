package sink

import (
	"context"
	"log/slog"

	"unified-chat/domain"
	"unified-chat/domain/event"
	"unified-chat/repositories"

	"github.com/abadojack/whatlanggo"
)

// IndexSink feeds the full-text history index. Each message is tagged with the
// language detected from its content, "und" when nothing was detected.
type IndexSink struct {
	index repositories.IMessageIndex
	log   *slog.Logger
}

func NewIndexSink(index repositories.IMessageIndex, log *slog.Logger) IndexSink {
	return IndexSink{index: index, log: log}
}

func (s IndexSink) Consume(ctx context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.MessageSent)
	if !ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	lang := DetectLanguage(evt.Message)
	s.log.Debug("Indexing message", "message", evt.Message.ID, "lang", lang)
	return s.index.Index(evt.Message, lang)
}

// DetectLanguage returns an ISO 639-1 code. Files are labelled by name only
// and never detected.
func DetectLanguage(message domain.Message) string {
	if message.Type == domain.FileMessage {
		return "und"
	}
	info := whatlanggo.Detect(message.Content)
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return "und"
}
