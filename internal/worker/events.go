package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/garageops/workshop-notify/internal/kafka"
	"github.com/garageops/workshop-notify/internal/logger"
	"github.com/garageops/workshop-notify/internal/model"
	"github.com/garageops/workshop-notify/internal/service/dispatch"
	"go.uber.org/zap"
)

// Events consumes workflow-event envelopes from Kafka and hands each one to
// the dispatch orchestrator. Commits are at-least-once; a dispatch outcome
// (including total failure) never blocks the commit, since dispatch is
// best-effort by contract and redelivery would re-notify everyone.
type Events struct {
	Consumer *kafka.Consumer
	Dispatch *dispatch.Service

	Processors int // goroutines processing envelopes
}

func NewEvents(consumer *kafka.Consumer, svc *dispatch.Service) *Events {
	return &Events{
		Consumer:   consumer,
		Dispatch:   svc,
		Processors: 8,
	}
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *Events) Run(ctx context.Context) error {
	if w.Processors <= 0 {
		w.Processors = 8
	}

	msgCh := make(chan kafka.Message, w.Processors*2)

	// fetcher
	go func() {
		defer close(msgCh)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				m, err := w.Consumer.Fetch(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					logger.Log.Warn("kafka fetch failed", zap.Error(err))
					time.Sleep(200 * time.Millisecond)
					continue
				}
				msgCh <- m
			}
		}
	}()

	// processors
	for i := 0; i < w.Processors; i++ {
		go w.runProcessor(ctx, msgCh)
	}

	<-ctx.Done()
	return nil
}

func (w *Events) runProcessor(ctx context.Context, in <-chan kafka.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			w.processOne(ctx, m)
		}
	}
}

func (w *Events) processOne(ctx context.Context, m kafka.Message) {
	var env model.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message: commit and skip
		logger.Log.Warn("bad envelope json", zap.Error(err),
			zap.String("topic", m.Topic), zap.Int64("offset", m.Offset))
		_ = w.Consumer.Commit(ctx, m)
		return
	}
	if !env.Event.Type.Valid() || len(env.Roles) == 0 {
		logger.Log.Warn("envelope missing event type or roles",
			zap.String("topic", m.Topic), zap.Int64("offset", m.Offset))
		_ = w.Consumer.Commit(ctx, m)
		return
	}

	res := w.Dispatch.Dispatch(ctx, env.Event, env.Roles, model.TenantID(env.TenantID))
	if res.Failed > 0 {
		logger.Log.Warn("dispatch had failures",
			zap.String("event", env.Event.Type.String()),
			zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
	}

	if err := w.Consumer.Commit(ctx, m); err != nil {
		logger.Log.Warn("kafka commit failed", zap.Error(err))
	}
}
