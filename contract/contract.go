//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"unified-chat/domain"
	"unified-chat/domain/event"
)

// EventSink reacts to a domain event after the mutation it describes succeeded.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// SinkName uses reflection to retrieve the type name of the sink, for logging.
func SinkName(s EventSink) string {
	if s == nil {
		return "NilSink"
	}
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Moderator rewrites forbidden words before a message is built.
type Moderator interface {
	Censor(content string) (string, []string)
}

// Directory resolves user ids to human names for the presentation layer.
type Directory interface {
	DisplayName(userID domain.UserID) string
}
