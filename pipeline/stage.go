// Package pipeline implements the generic event-driven worker every stage
// of the discovery pipeline runs: topic subscription, envelope decode,
// bounded concurrent dispatch, envelope re-encode on publish.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/checkmate3d/taxograph/event"
	xsync "github.com/checkmate3d/taxograph/pkg/sync"
	"github.com/checkmate3d/taxograph/stream/binding"
	"github.com/checkmate3d/taxograph/stream/message"
)

// Handler processes one decoded payload and returns 0..N result payloads.
// A nil or empty slice means "nothing to publish"; the stage commits the
// inbound event as processed either way.
type Handler func(ctx context.Context, payload []byte, env event.Envelope, tenant, correlationID, parentID string) ([][]byte, error)

// Stage runs one pipeline stage: it subscribes to one inbound topic via an
// inbound Binding, dispatches to handler with bounded parallelism, and
// publishes results to an outbound Binding.
type Stage struct {
	Name       string
	KeyPrefix  string
	MaxWorkers int

	inbound  binding.Binding
	outbound binding.Binding
	handler  Handler
	tenant   string

	limiter *xsync.Limiter
	ackMu   sync.Mutex
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewStage builds a Stage. inboundTopic is used only to recover the tenant
// segment stamped into derived outbound envelopes; the stage never
// publishes to or subscribes from a topic string directly — that's the
// Binding's job.
func NewStage(name, inboundTopic string, inbound, outbound binding.Binding, maxWorkers int, keyPrefix string, handler Handler) (*Stage, error) {
	tenant, err := ParseTenant(inboundTopic)
	if err != nil {
		return nil, err
	}
	s := &Stage{
		Name:       name,
		KeyPrefix:  keyPrefix,
		MaxWorkers: maxWorkers,
		inbound:    inbound,
		outbound:   outbound,
		handler:    handler,
		tenant:     tenant,
	}
	if maxWorkers > 0 {
		s.limiter = xsync.NewLimiter(maxWorkers)
	}
	return s, nil
}

// Run polls the inbound binding until ctx is canceled, draining in-flight
// handlers before returning. With MaxWorkers == 0 it processes one message
// at a time on the calling goroutine; otherwise handler dispatch is bounded
// by a semaphore of size MaxWorkers, with at most one Receive in flight per
// acquired slot. A failed publish stops the stage: Run drains in-flight
// handlers and returns that *BusError.
func (s *Stage) Run(ctx context.Context) error {
	if s.running.Load() {
		return nil
	}
	s.running.Store(true)
	defer s.running.Store(false)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	for {
		if ctx.Err() != nil {
			s.wg.Wait()
			return context.Cause(ctx)
		}

		if s.MaxWorkers == 0 {
			if err := s.process(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				var busErr *BusError
				if errors.As(err, &busErr) && busErr.Op == "publish" {
					return err
				}
				slog.Error("pipeline: process error", "stage", s.Name, "err", err)
			}
			continue
		}

		s.limiter.Acquire()
		s.wg.Add(1)
		xsync.Go(func() {
			defer s.wg.Done()
			defer s.limiter.Release()
			if err := s.process(ctx); err != nil && ctx.Err() == nil {
				var busErr *BusError
				if errors.As(err, &busErr) && busErr.Op == "publish" {
					cancel(err)
					return
				}
				slog.Error("pipeline: process error", "stage", s.Name, "err", err)
			}
		})
	}
}

// Wait blocks until every in-flight handler invocation has returned. Callers
// cancel the context passed to Run and then call Wait for a graceful drain.
func (s *Stage) Wait() {
	s.wg.Wait()
}

func (s *Stage) process(ctx context.Context) error {
	msg, err := s.inbound.Receive(ctx)
	if err != nil {
		return &BusError{Op: "receive", Cause: err}
	}

	var inbound event.Envelope
	if err := msg.Unmarshal(&inbound).Error(); err != nil {
		slog.Error("pipeline: malformed envelope, event dropped", "stage", s.Name, "err", err)
		return s.ack(ctx, msg)
	}

	correlationID := inbound.Extensions.CorrelationID
	if correlationID == "" {
		correlationID = inbound.ID
	}

	outputs, err := s.invoke(ctx, inbound, correlationID)
	if err != nil {
		slog.Error("pipeline: handler failed, event dropped", "stage", s.Name, "err", &HandlerError{EventID: inbound.ID, Cause: err})
		return s.ack(ctx, msg)
	}
	if len(outputs) == 0 {
		return s.ack(ctx, msg)
	}

	if err := s.publish(ctx, msg, inbound, outputs); err != nil {
		return &BusError{Op: "publish", Cause: err}
	}
	return s.ack(ctx, msg)
}

// invoke calls handler, converting a panic into an error so one
// misbehaving handler never takes down the stage.
func (s *Stage) invoke(ctx context.Context, inbound event.Envelope, correlationID string) (outputs [][]byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return s.handler(ctx, inbound.Data.Value, inbound, s.tenant, correlationID, inbound.Extensions.ParentID)
}

// publish derives one outbound envelope per output payload. A single output
// is a pass-through (event.DeriveFrom, same id); more than one is treated as
// a fan-out expansion (event.DeriveExpansion per item, depth strictly
// increasing, correlation id held stable).
func (s *Stage) publish(ctx context.Context, msg message.Message, inbound event.Envelope, outputs [][]byte) error {
	for i, payload := range outputs {
		var outEnv event.Envelope
		if len(outputs) == 1 {
			outEnv = event.DeriveFrom(inbound, payload)
		} else {
			outEnv = event.DeriveExpansion(inbound, payload)
			outEnv.Extensions.Depth = inbound.Extensions.Depth + 1 + i
		}

		encoded, err := json.Marshal(outEnv)
		if err != nil {
			return err
		}

		out := message.NewSimpleMessage()
		out.SetPayload(encoded)
		if rk, ok := msg.Headers().Get(message.RoutingKeyHeader); ok && s.KeyPrefix != "" {
			if key, ok := rk.(string); ok {
				out.Headers().Set(message.RoutingKeyHeader, s.KeyPrefix+":"+suffixKey(key))
			}
		}

		if err := s.outbound.Send(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stage) ack(ctx context.Context, msg message.Message) error {
	s.ackMu.Lock()
	defer s.ackMu.Unlock()
	return s.inbound.Ack(ctx, msg)
}
