// Command graphwriter runs the graph-write planner as a pipeline stage: it
// consumes document-staged events, re-fetches the staged hits from the
// full-text store, projects them through the configured dyad plan, and
// commits the batch into the graph database in fixed-size chunks.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/checkmate3d/taxograph/event"
	"github.com/checkmate3d/taxograph/graphwrite"
	"github.com/checkmate3d/taxograph/internal/config"
	"github.com/checkmate3d/taxograph/pipeline"
	"github.com/checkmate3d/taxograph/runtime"
	"github.com/checkmate3d/taxograph/search"
	"github.com/checkmate3d/taxograph/staging"
	"github.com/checkmate3d/taxograph/stream/binder"
	kafkabinder "github.com/checkmate3d/taxograph/stream/binder/kafka"
	pulsarbinder "github.com/checkmate3d/taxograph/stream/binder/pulsar"
)

// documentStagedPayload is the expected shape of a document-staged event:
// the originating expansion query, whose properties drive the
// multi_match lookup against the staging store's index.
type documentStagedPayload struct {
	ExpansionQuery search.ExpansionQuery `json:"expansionQuery"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the stage configuration file")
	planPath := flag.String("plan", "plan.yaml", "path to the projection-plan artifact")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("graphwriter: failed to load config", "err", err)
		os.Exit(1)
	}

	plan, err := graphwrite.LoadPlan(*planPath)
	if err != nil {
		slog.Error("graphwriter: failed to load plan", "err", err)
		os.Exit(1)
	}
	fields := stagedFields(plan)

	stagingClient, err := staging.NewClient(cfg.StagingStore.Hosts, cfg.StagingStore.Username, cfg.StagingStore.Password, cfg.StagingStore.Index)
	if err != nil {
		slog.Error("graphwriter: failed to build staging client", "err", err)
		os.Exit(1)
	}

	writer, err := graphwrite.NewWriter(cfg.GraphStore.URI, cfg.GraphStore.Username, cfg.GraphStore.Password, cfg.GraphStore.Database, cfg.GraphStore.ChunkSize)
	if err != nil {
		slog.Error("graphwriter: failed to build graph writer", "err", err)
		os.Exit(1)
	}
	defer writer.Close(context.Background())

	b, err := newBinder(cfg.Bus)
	if err != nil {
		slog.Error("graphwriter: failed to build bus binder", "err", err)
		os.Exit(1)
	}

	inboundTopic := pipeline.BuildTopic(cfg.Env, cfg.TenantTopicPrefix, cfg.Stage.ProducerServices[0], cfg.Stage.InboundEvents[0])
	outboundTopic := pipeline.BuildTopic(cfg.Env, cfg.TenantTopicPrefix, cfg.Stage.ServiceName, cfg.Stage.OutboundEvent)

	inbound, err := b.BindConsumer(inboundTopic)
	if err != nil {
		slog.Error("graphwriter: failed to bind inbound topic", "err", err)
		os.Exit(1)
	}
	outbound, err := b.BindProducer(outboundTopic)
	if err != nil {
		slog.Error("graphwriter: failed to bind outbound topic", "err", err)
		os.Exit(1)
	}

	stage, err := pipeline.NewStage(cfg.Stage.ServiceName, inboundTopic, inbound, outbound, cfg.Stage.MaxWorkers, cfg.Stage.KeyPrefix,
		handler(stagingClient, writer, plan, fields))
	if err != nil {
		slog.Error("graphwriter: failed to build stage", "err", err)
		os.Exit(1)
	}

	app := runtime.New()
	app.Register(cfg.Stage.ServiceName, stage)
	if err := app.Run(context.Background()); err != nil {
		slog.Error("graphwriter: exited with error", "err", err)
		os.Exit(1)
	}
}

func handler(client *staging.Client, writer *graphwrite.Writer, plan *graphwrite.Plan, fields []string) pipeline.Handler {
	return func(ctx context.Context, payload []byte, env event.Envelope, tenant, correlationID, parentID string) ([][]byte, error) {
		var in documentStagedPayload
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, err
		}

		query := staging.BuildQuery(in.ExpansionQuery, fields)
		docs, err := client.Documents(ctx, query)
		if err != nil {
			return nil, err
		}

		var dyads []graphwrite.Dyad
		for _, doc := range docs {
			projected, errs := plan.Project(doc)
			for _, e := range errs {
				slog.Warn("graphwriter: dyad skipped", "err", e, "correlationId", correlationID)
			}
			dyads = append(dyads, projected...)
		}

		if len(dyads) == 0 {
			return nil, nil
		}
		if err := writer.WriteDyads(ctx, dyads); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

// stagedFields returns the staged field names a plan reads from, in
// declaration order (duplicates removed): every from/to document field the
// plan's projections name.
func stagedFields(p *graphwrite.Plan) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(fields []string) {
		for _, f := range fields {
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}
	add(p.From)
	add(p.To)
	return out
}

func newBinder(cfg config.BusConfig) (binder.Binder, error) {
	switch cfg.Driver {
	case "pulsar":
		return pulsarbinder.NewPulsar(pulsarbinder.Config{URL: cfg.URL}), nil
	default:
		return kafkabinder.NewKafka(kafkabinder.Config{URL: cfg.URL}), nil
	}
}
