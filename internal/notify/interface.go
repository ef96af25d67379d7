package notify

import (
	"context"
	stderrors "errors"

	"codeberg.org/mutker/atmena/internal/errors"
)

// EventNewData is emitted for every stored converted reading.
const EventNewData = "newdata"

// Publisher fans an event out to whoever listens on topic. Topics are
// device IDs in decimal.
type Publisher interface {
	Publish(ctx context.Context, topic, event string, payload any) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }

// Multi publishes to every publisher and reports all failures.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, topic, event string, payload any) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, topic, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.New().Wrap(errors.ErrPublishFailed, stderrors.Join(errs...))
}
