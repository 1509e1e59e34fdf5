// Command ingressworker runs one data-source's ingress pipeline stage: it
// consumes expansion-query-created events tagged for its data source,
// fetches raw documents from the external collaborator bound to that
// source, and publishes one document-staged event per fetched document.
//
// The fetch call itself — the per-source business logic (web scraper,
// people-data API, breach database, bucket scraper) — is an external
// collaborator out of scope for this repo; only the contract a Fetcher
// must satisfy is specified here.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/checkmate3d/taxograph/event"
	"github.com/checkmate3d/taxograph/internal/config"
	"github.com/checkmate3d/taxograph/pipeline"
	"github.com/checkmate3d/taxograph/runtime"
	"github.com/checkmate3d/taxograph/search"
	"github.com/checkmate3d/taxograph/stream/binder"
	kafkabinder "github.com/checkmate3d/taxograph/stream/binder/kafka"
	pulsarbinder "github.com/checkmate3d/taxograph/stream/binder/pulsar"
	"github.com/checkmate3d/taxograph/taxonomy"
)

// Fetcher is the contract every per-data-source ingress fetcher satisfies:
// given the expansion query routed to it, return the raw document bytes it
// retrieved, ready to be staged verbatim into the full-text store.
type Fetcher interface {
	Fetch(ctx context.Context, query search.ExpansionQuery) ([]byte, error)
}

// documentStagedPayload is the event this stage publishes once a fetch
// succeeds: the originating expansion query plus the raw document bytes a
// downstream document parser stages into the full-text store.
type documentStagedPayload struct {
	ExpansionQuery search.ExpansionQuery `json:"expansionQuery"`
	RawDocument    []byte                `json:"rawDocument"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the stage configuration file")
	dataSourceFlag := flag.String("data-source", "", "the data source tag this worker fetches for")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("ingressworker: failed to load config", "err", err)
		os.Exit(1)
	}

	dataSource := taxonomy.DataSource(*dataSourceFlag)
	if !dataSource.Valid() {
		slog.Error("ingressworker: unrecognized data source", "dataSource", *dataSourceFlag)
		os.Exit(1)
	}

	fetcher, err := resolveFetcher(dataSource)
	if err != nil {
		slog.Error("ingressworker: failed to resolve fetcher", "err", err)
		os.Exit(1)
	}

	b, err := newBinder(cfg.Bus)
	if err != nil {
		slog.Error("ingressworker: failed to build bus binder", "err", err)
		os.Exit(1)
	}

	inboundTopic := pipeline.BuildTopic(cfg.Env, cfg.TenantTopicPrefix, cfg.Stage.ProducerServices[0], cfg.Stage.InboundEvents[0])
	outboundTopic := pipeline.BuildTopic(cfg.Env, cfg.TenantTopicPrefix, cfg.Stage.ServiceName, cfg.Stage.OutboundEvent)

	inbound, err := b.BindConsumer(inboundTopic)
	if err != nil {
		slog.Error("ingressworker: failed to bind inbound topic", "err", err)
		os.Exit(1)
	}
	outbound, err := b.BindProducer(outboundTopic)
	if err != nil {
		slog.Error("ingressworker: failed to bind outbound topic", "err", err)
		os.Exit(1)
	}

	stage, err := pipeline.NewStage(cfg.Stage.ServiceName, inboundTopic, inbound, outbound, cfg.Stage.MaxWorkers, cfg.Stage.KeyPrefix,
		handler(dataSource, fetcher))
	if err != nil {
		slog.Error("ingressworker: failed to build stage", "err", err)
		os.Exit(1)
	}

	app := runtime.New()
	app.Register(cfg.Stage.ServiceName, stage)
	if err := app.Run(context.Background()); err != nil {
		slog.Error("ingressworker: exited with error", "err", err)
		os.Exit(1)
	}
}

func handler(dataSource taxonomy.DataSource, fetcher Fetcher) pipeline.Handler {
	return func(ctx context.Context, payload []byte, env event.Envelope, tenant, correlationID, parentID string) ([][]byte, error) {
		var eq search.ExpansionQuery
		if err := json.Unmarshal(payload, &eq); err != nil {
			return nil, err
		}

		if !routedToThisSource(eq, dataSource) {
			return nil, nil
		}

		raw, err := fetcher.Fetch(ctx, eq)
		if err != nil {
			return nil, err
		}

		out := documentStagedPayload{ExpansionQuery: eq, RawDocument: raw}
		encoded, err := json.Marshal(out)
		if err != nil {
			return nil, err
		}
		return [][]byte{encoded}, nil
	}
}

// routedToThisSource reports whether any item in eq names dataSource,
// matching the planner's one-item-per-(path,data-source) emission.
func routedToThisSource(eq search.ExpansionQuery, dataSource taxonomy.DataSource) bool {
	for _, item := range eq.Items {
		if item.DataSource == string(dataSource) {
			return true
		}
	}
	return false
}

func newBinder(cfg config.BusConfig) (binder.Binder, error) {
	switch cfg.Driver {
	case "pulsar":
		return pulsarbinder.NewPulsar(pulsarbinder.Config{URL: cfg.URL}), nil
	default:
		return kafkabinder.NewKafka(kafkabinder.Config{URL: cfg.URL}), nil
	}
}
