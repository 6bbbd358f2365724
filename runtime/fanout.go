package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"unified-chat/contract"
	"unified-chat/domain/event"
	"unified-chat/errors"
)

// Fanout delivers each event to every sink, in registration order, before
// returning. A failing sink never prevents the next one from receiving the event.
type Fanout struct {
	log         *slog.Logger
	sinks       []contract.EventSink
	sinkTimeout time.Duration
}

func NewFanout(log *slog.Logger, sinkTimeout time.Duration, sinks ...contract.EventSink) *Fanout {
	return &Fanout{log: log, sinks: sinks, sinkTimeout: sinkTimeout}
}

// Add registers more sinks. Not safe to call while events are published.
func (f *Fanout) Add(sinks ...contract.EventSink) {
	f.sinks = append(f.sinks, sinks...)
}

// Publish returns the joined errors of every sink that failed.
func (f *Fanout) Publish(ctx context.Context, events ...event.DomainEvent) error {
	var errs []error
	for _, evt := range events {
		for _, sink := range f.sinks {
			if err := f.consume(ctx, sink, evt); err != nil {
				f.log.Error("Sink failed", "sink", contract.SinkName(sink), "channel", evt.ChannelID(), "error", err)
				errs = append(errs, err)
			}
		}
	}
	return stderrors.Join(errs...)
}

func (f *Fanout) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) error {
	if f.sinkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.sinkTimeout)
		defer cancel()
	}
	err := sink.Consume(ctx, evt)
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", errors.ErrSinkTimeout, contract.SinkName(sink), f.sinkTimeout)
	}
	return err
}
