package carousel

import (
	"context"
	"errors"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// CarouselChanged does nothing and returns nil
func (n *NoopEventSink) CarouselChanged(ctx context.Context, event ChangeEvent) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other action
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// CarouselChanged logs the change event
func (l *LoggingEventSink) CarouselChanged(ctx context.Context, event ChangeEvent) error {
	l.logger.InfoContext(ctx, "carousel changed",
		"owner_kind_id", event.Owner.KindID,
		"owner_id", event.Owner.ID,
		"operation", event.Operation)
	return nil
}

// FanoutEventSink delivers every event to all of its sinks
type FanoutEventSink struct {
	sinks []EventSink
}

// NewFanoutEventSink creates an event sink that forwards to sinks in order
func NewFanoutEventSink(sinks ...EventSink) EventSink {
	return &FanoutEventSink{sinks: sinks}
}

// CarouselChanged forwards the event to every sink and joins their errors
func (f *FanoutEventSink) CarouselChanged(ctx context.Context, event ChangeEvent) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.CarouselChanged(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopRecorder struct{}

func (noopRecorder) ItemsAdded(int)         {}
func (noopRecorder) UploadFailed()          {}
func (noopRecorder) ItemsDeleted(int)       {}
func (noopRecorder) FieldsUpdated(int)      {}
func (noopRecorder) ItemMoved(Direction)    {}
func (noopRecorder) PositionsRefreshed(int) {}
