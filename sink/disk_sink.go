// Package sink holds the consumers reacting to channel events.
package sink

import (
	"context"
	"log/slog"

	"unified-chat/domain/event"
	"unified-chat/repositories"
)

// DiskSink persists every accepted mutation so that the registry can be rebuilt at startup.
type DiskSink struct {
	channels repositories.IChannelRepository
	messages repositories.IMessageRepository
	log      *slog.Logger
}

func NewDiskSink(channels repositories.IChannelRepository, messages repositories.IMessageRepository, log *slog.Logger) DiskSink {
	return DiskSink{channels: channels, messages: messages, log: log}
}

func (d DiskSink) Consume(ctx context.Context, e event.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch evt := e.(type) {
	case event.ChannelCreated:
		return d.channels.StoreChannel(evt.Snapshot)
	case event.ChannelUpdated:
		return d.channels.StoreChannel(evt.Snapshot)
	case event.ParticipantJoined:
		return d.channels.StoreChannel(evt.Snapshot)
	case event.ParticipantLeft:
		return d.channels.StoreChannel(evt.Snapshot)
	case event.MessageSent:
		return d.messages.StoreMessage(evt.Message)
	case event.MessagesRead:
		return d.messages.SetRead(evt.MessageIDs, true)
	default:
		d.log.Debug("Event not persisted", "event", evt)
		return nil
	}
}
