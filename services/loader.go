package services

import (
	"fmt"
	"log/slog"

	"unified-chat/domain"
	"unified-chat/repositories"
	"unified-chat/runtime"
)

// Loader rebuilds the registry from storage at startup.
type Loader struct {
	channels repositories.IChannelRepository
	messages repositories.IMessageRepository
	registry *runtime.Registry
	log      *slog.Logger
}

func NewLoader(channels repositories.IChannelRepository, messages repositories.IMessageRepository,
	registry *runtime.Registry, log *slog.Logger) Loader {
	return Loader{channels: channels, messages: messages, registry: registry, log: log}
}

// Hydrate restores every stored channel with its messages and returns how many
// were registered. Any record breaking a channel invariant aborts the load.
func (l Loader) Hydrate() (int, error) {
	snapshots, err := l.channels.GetChannels()
	if err != nil {
		return 0, fmt.Errorf("failed to load channels: %w", err)
	}
	messageCount := 0
	for _, snapshot := range snapshots {
		messages, err := l.messages.GetAllMessages(snapshot.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to load messages of channel %s: %w", snapshot.ID, err)
		}
		channel, err := domain.RestoreChannel(snapshot, messages)
		if err != nil {
			return 0, fmt.Errorf("failed to restore channel %s: %w", snapshot.ID, err)
		}
		if err = l.registry.Register(channel); err != nil {
			return 0, err
		}
		messageCount += len(messages)
	}
	l.log.Info("Registry hydrated", "channels", len(snapshots), "messages", messageCount)
	return len(snapshots), nil
}
