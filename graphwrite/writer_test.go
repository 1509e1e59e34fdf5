package graphwrite

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx captures the cypher text a chunk's write transaction ran, standing
// in for neo4j.ManagedTransaction.
type fakeTx struct {
	ran *string
}

func (t *fakeTx) Run(_ context.Context, cypher string, _ map[string]any) (neo4j.ResultWithContext, error) {
	*t.ran = cypher
	return nil, nil
}

// fakeSession records every ExecuteWrite call's statement and fails the
// call whose index matches failAt (0-based), simulating a store-side
// rejection of one chunk.
type fakeSession struct {
	statements []string
	failAt     int
	closed     bool
}

func (f *fakeSession) ExecuteWrite(_ context.Context, work neo4j.ManagedTransactionWork, _ ...func(*neo4j.TransactionConfig)) (any, error) {
	idx := len(f.statements)
	var ran string
	if _, err := work(&fakeTx{ran: &ran}); err != nil {
		f.statements = append(f.statements, ran)
		return nil, err
	}
	f.statements = append(f.statements, ran)
	if idx == f.failAt {
		return nil, errors.New("store rejected statement")
	}
	return nil, nil
}

func (f *fakeSession) Close(_ context.Context) error {
	f.closed = true
	return nil
}

func dyadsOfSize(n int) []Dyad {
	dyads := make([]Dyad, n)
	for i := range dyads {
		dyads[i] = Dyad{
			FromType:  "Person",
			FromProps: map[string]string{"name": "p"},
			EdgeType:  "KNOWS",
		}
	}
	return dyads
}

func TestWriter_WriteDyads_SingleChunkSuccess(t *testing.T) {
	fs := &fakeSession{failAt: -1}
	w := &Writer{chunkSize: 100, openSession: func(context.Context) session { return fs } }

	err := w.WriteDyads(context.Background(), dyadsOfSize(50))
	require.NoError(t, err)
	assert.True(t, fs.closed)
}

func TestWriter_WriteDyads_SecondChunkFails(t *testing.T) {
	fs := &fakeSession{failAt: 1}
	w := &Writer{chunkSize: 100, openSession: func(context.Context) session { return fs }}

	err := w.WriteDyads(context.Background(), dyadsOfSize(150))
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 2, upstream.Chunk)
}

func TestWriter_WriteDyads_EmptyInput(t *testing.T) {
	fs := &fakeSession{failAt: -1}
	w := &Writer{chunkSize: 100, openSession: func(context.Context) session { return fs }}

	err := w.WriteDyads(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, fs.statements)
}
