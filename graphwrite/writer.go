// Package graphwrite projects staged documents into a typed dyad stream and
// persists them into a property graph in bounded, transactional chunks.
package graphwrite

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/checkmate3d/taxograph/pkg/slices"
)

// session is the slice of neo4j.SessionWithContext the writer actually
// calls, narrowed so tests can substitute a fake without reimplementing the
// full driver session surface.
type session interface {
	ExecuteWrite(ctx context.Context, work neo4j.ManagedTransactionWork, configurers ...func(*neo4j.TransactionConfig)) (any, error)
	Close(ctx context.Context) error
}

// Writer persists a dyad stream against a Neo4j database, chunking writes
// into fixed-size transactional MERGE statements per Neo4jHandler.py's
// dataPush/transaction contract: one ExecuteWrite per chunk, roll back and
// surface the error on any chunk's failure, no automatic retry.
type Writer struct {
	driver      neo4j.DriverWithContext
	database    string
	chunkSize   int
	openSession func(ctx context.Context) session
}

// NewWriter opens a driver against uri and returns a Writer that chunks
// writes at chunkSize dyads per statement.
func NewWriter(uri, username, password, database string, chunkSize int) (*Writer, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}
	w := &Writer{driver: driver, database: database, chunkSize: chunkSize}
	w.openSession = func(ctx context.Context) session {
		return driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: database})
	}
	return w, nil
}

// Close releases the underlying driver.
func (w *Writer) Close(ctx context.Context) error {
	return w.driver.Close(ctx)
}

// WriteDyads formats dyads into comma-joined MERGE statements, one per
// chunk of w.chunkSize, executing each inside its own write transaction. A
// chunk failure rolls that chunk back and returns immediately without
// attempting subsequent chunks.
func (w *Writer) WriteDyads(ctx context.Context, dyads []Dyad) error {
	sess := w.openSession(ctx)
	defer sess.Close(ctx)

	chunkSize := w.chunkSize
	if chunkSize <= 0 {
		chunkSize = len(dyads)
		if chunkSize == 0 {
			chunkSize = 1
		}
	}

	clauses := make([]string, len(dyads))
	for i, d := range dyads {
		clauses[i] = d.MergeClause()
	}

	for chunkIdx, chunk := range slices.Chunk(clauses, chunkSize) {
		stmt := "MERGE " + strings.Join(chunk, ",")
		_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		})
		if err != nil {
			return &UpstreamError{Chunk: chunkIdx + 1, Cause: err}
		}
	}
	return nil
}
