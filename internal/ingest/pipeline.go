package ingest

import (
	"context"
	"strconv"
	"sync"
	"time"

	"codeberg.org/mutker/atmena/internal/logger"
	"codeberg.org/mutker/atmena/internal/notify"
	"codeberg.org/mutker/atmena/internal/sensor"
	"codeberg.org/mutker/atmena/internal/storage"
)

// Pipeline stores raw readings and derives their converted counterpart.
type Pipeline struct {
	store     storage.Store
	publisher notify.Publisher
	logger    logger.Logger
	now       func() time.Time
	wg        sync.WaitGroup
}

type Option func(*Pipeline)

// WithClock overrides the time source used to stamp readings.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(store storage.Store, publisher notify.Publisher, opts ...Option) *Pipeline {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	p := &Pipeline{
		store:     store,
		publisher: publisher,
		logger:    logger.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest stores raw and schedules the derived step. It returns the reading
// as stored, with created filled in when it was missing. A failed raw
// insert is returned and nothing else happens.
func (p *Pipeline) Ingest(ctx context.Context, raw sensor.RawReading) (sensor.RawReading, error) {
	if raw.Created.IsZero() {
		raw.Created = p.now().UTC().Truncate(time.Second)
	}

	if err := p.store.InsertRaw(ctx, raw); err != nil {
		return raw, err
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.derive(context.WithoutCancel(ctx), raw)
	}()

	return raw, nil
}

func (p *Pipeline) derive(ctx context.Context, raw sensor.RawReading) {
	converted := sensor.Convert(raw)

	if err := p.store.InsertConverted(ctx, converted); err != nil {
		p.logger.Error().
			Err(err).
			Uint64("device_id", raw.DeviceID).
			Time("created", raw.Created).
			Msg("Failed to store converted reading")
		return
	}

	topic := strconv.FormatUint(raw.DeviceID, 10)
	if err := p.publisher.Publish(ctx, topic, notify.EventNewData, converted); err != nil {
		p.logger.Warn().
			Err(err).
			Str("topic", topic).
			Msg("Failed to publish converted reading")
	}
}

// Wait blocks until every scheduled derived step has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}
