package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkmate3d/taxograph/event"
	"github.com/checkmate3d/taxograph/stream/message"
)

// fakeBinding is an in-memory binding.Binding used to drive Stage without a
// real broker: Receive drains inbox, Send/Ack/Nack record what happened.
type fakeBinding struct {
	inbox chan message.Message

	mu     sync.Mutex
	sent   []message.Message
	acked  []message.Message
	nacked []message.Message
}

func newFakeBinding(buffered ...message.Message) *fakeBinding {
	inbox := make(chan message.Message, len(buffered)+1)
	for _, m := range buffered {
		inbox <- m
	}
	return &fakeBinding{inbox: inbox}
}

func (f *fakeBinding) Send(_ context.Context, msg message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeBinding) Receive(ctx context.Context) (message.Message, error) {
	select {
	case m, ok := <-f.inbox:
		if !ok {
			return nil, io.EOF
		}
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeBinding) Ack(_ context.Context, msg message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, msg)
	return nil
}

func (f *fakeBinding) Nack(_ context.Context, msg message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked = append(f.nacked, msg)
	return nil
}

func (f *fakeBinding) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeBinding) ackedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.acked)
}

func envelopeMessage(t *testing.T, env event.Envelope) message.Message {
	t.Helper()
	encoded, err := json.Marshal(env)
	require.NoError(t, err)
	msg := message.NewSimpleMessage()
	msg.SetPayload(encoded)
	require.NoError(t, msg.Error())
	return msg
}

func decodeSent(t *testing.T, msg message.Message) event.Envelope {
	t.Helper()
	var env event.Envelope
	require.NoError(t, msg.Unmarshal(&env).Error())
	return env
}

func runOnce(t *testing.T, s *Stage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := s.Run(ctx)
	assert.Error(t, err)
	s.Wait()
}

func TestStage_SingleOutput_DerivesPassThrough(t *testing.T) {
	inbound := event.Generate([]byte("raw"), "searchplanner", "search", "client-1", 0, "")
	in := newFakeBinding(envelopeMessage(t, inbound))
	out := newFakeBinding()

	handler := func(_ context.Context, payload []byte, _ event.Envelope, _, _, _ string) ([][]byte, error) {
		return [][]byte{append(payload, '!')}, nil
	}

	s, err := NewStage("test", "dev.acme.searchplanner.discovered", in, out, 0, "", handler)
	require.NoError(t, err)
	runOnce(t, s)

	require.Equal(t, 1, out.sentCount())
	sent := decodeSent(t, out.sent[0])
	assert.Equal(t, inbound.ID, sent.ID)
	assert.Equal(t, inbound.Extensions.CorrelationID, sent.Extensions.CorrelationID)
	assert.Equal(t, "raw!", string(sent.Data.Value))
	assert.Equal(t, 1, in.ackedCount())
}

func TestStage_FanOut_DerivesExpansionsWithIncreasingDepth(t *testing.T) {
	inbound := event.Generate([]byte("raw"), "searchplanner", "search", "client-1", 0, "")
	in := newFakeBinding(envelopeMessage(t, inbound))
	out := newFakeBinding()

	handler := func(_ context.Context, _ []byte, _ event.Envelope, _, _, _ string) ([][]byte, error) {
		return [][]byte{[]byte("a"), []byte("b"), []byte("c")}, nil
	}

	s, err := NewStage("test", "dev.acme.searchplanner.discovered", in, out, 0, "", handler)
	require.NoError(t, err)
	runOnce(t, s)

	require.Equal(t, 3, out.sentCount())
	ids := make(map[string]bool)
	for i, msg := range out.sent {
		sent := decodeSent(t, msg)
		assert.Equal(t, inbound.Extensions.CorrelationID, sent.Extensions.CorrelationID, "correlation id must stay stable across fan-out")
		assert.Equal(t, inbound.ID, sent.ParentID)
		assert.Equal(t, inbound.Extensions.Depth+1+i, sent.Extensions.Depth)
		assert.False(t, ids[sent.ID], "expansion ids must be distinct")
		ids[sent.ID] = true
	}
}

func TestStage_HandlerError_EventDroppedNoPublish(t *testing.T) {
	inbound := event.Generate([]byte("raw"), "searchplanner", "search", "client-1", 0, "")
	in := newFakeBinding(envelopeMessage(t, inbound))
	out := newFakeBinding()

	handler := func(_ context.Context, _ []byte, _ event.Envelope, _, _, _ string) ([][]byte, error) {
		return nil, assertError{}
	}

	s, err := NewStage("test", "dev.acme.searchplanner.discovered", in, out, 0, "", handler)
	require.NoError(t, err)
	runOnce(t, s)

	assert.Equal(t, 0, out.sentCount())
	assert.Equal(t, 1, in.ackedCount())
}

func TestStage_HandlerPanic_Recovered(t *testing.T) {
	inbound := event.Generate([]byte("raw"), "searchplanner", "search", "client-1", 0, "")
	in := newFakeBinding(envelopeMessage(t, inbound))
	out := newFakeBinding()

	handler := func(_ context.Context, _ []byte, _ event.Envelope, _, _, _ string) ([][]byte, error) {
		panic("boom")
	}

	s, err := NewStage("test", "dev.acme.searchplanner.discovered", in, out, 0, "", handler)
	require.NoError(t, err)
	runOnce(t, s)

	assert.Equal(t, 0, out.sentCount())
	assert.Equal(t, 1, in.ackedCount())
}

func TestStage_ZeroOutputs_AcksWithoutPublish(t *testing.T) {
	inbound := event.Generate([]byte("raw"), "searchplanner", "search", "client-1", 0, "")
	in := newFakeBinding(envelopeMessage(t, inbound))
	out := newFakeBinding()

	handler := func(_ context.Context, _ []byte, _ event.Envelope, _, _, _ string) ([][]byte, error) {
		return nil, nil
	}

	s, err := NewStage("test", "dev.acme.searchplanner.discovered", in, out, 0, "", handler)
	require.NoError(t, err)
	runOnce(t, s)

	assert.Equal(t, 0, out.sentCount())
	assert.Equal(t, 1, in.ackedCount())
}

func TestStage_BoundedConcurrency_ProcessesAllMessages(t *testing.T) {
	const n = 20
	envs := make([]message.Message, 0, n)
	for i := 0; i < n; i++ {
		envs = append(envs, envelopeMessage(t, event.Generate([]byte("raw"), "searchplanner", "search", "client-1", 0, "")))
	}
	in := newFakeBinding(envs...)
	out := newFakeBinding()

	var seen int32
	var mu sync.Mutex
	handler := func(_ context.Context, payload []byte, _ event.Envelope, _, _, _ string) ([][]byte, error) {
		mu.Lock()
		seen++
		mu.Unlock()
		return [][]byte{payload}, nil
	}

	s, err := NewStage("test", "dev.acme.searchplanner.discovered", in, out, 4, "route", handler)
	require.NoError(t, err)
	runOnce(t, s)

	assert.Equal(t, n, out.sentCount())
	assert.Equal(t, n, in.ackedCount())
}

func TestStage_KeyPropagation(t *testing.T) {
	inbound := event.Generate([]byte("raw"), "searchplanner", "search", "client-1", 0, "")
	inMsg := envelopeMessage(t, inbound)
	inMsg.Headers().Set(message.RoutingKeyHeader, "graphwrite:tenant-acme")
	in := newFakeBinding(inMsg)
	out := newFakeBinding()

	handler := func(_ context.Context, payload []byte, _ event.Envelope, _, _, _ string) ([][]byte, error) {
		return [][]byte{payload}, nil
	}

	s, err := NewStage("test", "dev.acme.searchplanner.discovered", in, out, 0, "stage", handler)
	require.NoError(t, err)
	runOnce(t, s)

	require.Equal(t, 1, out.sentCount())
	key, ok := out.sent[0].Headers().Get(message.RoutingKeyHeader)
	require.True(t, ok)
	assert.Equal(t, "stage:tenant-acme", key)
}

// assertError is a minimal error type so handler tests don't need to import
// the errors package just to build a sentinel.
type assertError struct{}

func (assertError) Error() string { return "handler failed" }
