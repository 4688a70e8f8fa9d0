package service

import (
	"context"

	"go.uber.org/zap"
)

// EventPublisher receives the portal activity events. The services never fail a request
// because an event could not be queued.
type EventPublisher interface {
	Publish(ctx context.Context, kind string, v any) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, any) error { return nil }

func publish(ctx context.Context, p EventPublisher, log *zap.SugaredLogger, kind string, v any) {
	if err := p.Publish(ctx, kind, v); err != nil {
		log.Warnw("failed to publish event", "kind", kind, "error", err)
	}
}
