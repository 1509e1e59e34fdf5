// Command searchplanner runs the taxonomy-driven search-planner pipeline
// stage: it consumes search-requested events, expands each against its
// taxonomy, and publishes one expansion-query-created event per emitted
// ExpansionQuery.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"os"
	"sync"

	"github.com/checkmate3d/taxograph/event"
	"github.com/checkmate3d/taxograph/internal/config"
	"github.com/checkmate3d/taxograph/pipeline"
	xsync "github.com/checkmate3d/taxograph/pkg/sync"
	"github.com/checkmate3d/taxograph/runtime"
	"github.com/checkmate3d/taxograph/search"
	"github.com/checkmate3d/taxograph/search/parser"
	"github.com/checkmate3d/taxograph/stream/binder"
	kafkabinder "github.com/checkmate3d/taxograph/stream/binder/kafka"
	pulsarbinder "github.com/checkmate3d/taxograph/stream/binder/pulsar"
	"github.com/checkmate3d/taxograph/taxonomy"
)

// searchRequest is the expected shape of a search-requested payload: the
// advanced-query text plus the taxonomy to expand it against. AdvancedQuery
// is optional and is compiled through the advanced parser when present.
type searchRequest struct {
	SearchID      string   `json:"searchId"`
	TaxonomyID    string   `json:"taxonomyId"`
	AdvancedQuery string   `json:"advancedQuery,omitempty"`
	DataSources   []string `json:"dataSources,omitempty"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the stage configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("searchplanner: failed to load config", "err", err)
		os.Exit(1)
	}

	taxonomies, err := loadTaxonomies(cfg.TaxonomyArtifactDir)
	if err != nil {
		slog.Error("searchplanner: failed to load taxonomies", "err", err)
		os.Exit(1)
	}

	b, err := newBinder(cfg.Bus)
	if err != nil {
		slog.Error("searchplanner: failed to build bus binder", "err", err)
		os.Exit(1)
	}

	inboundTopic := pipeline.BuildTopic(cfg.Env, cfg.TenantTopicPrefix, cfg.Stage.ProducerServices[0], cfg.Stage.InboundEvents[0])
	outboundTopic := pipeline.BuildTopic(cfg.Env, cfg.TenantTopicPrefix, cfg.Stage.ServiceName, cfg.Stage.OutboundEvent)

	inbound, err := b.BindConsumer(inboundTopic)
	if err != nil {
		slog.Error("searchplanner: failed to bind inbound topic", "err", err)
		os.Exit(1)
	}
	outbound, err := b.BindProducer(outboundTopic)
	if err != nil {
		slog.Error("searchplanner: failed to bind outbound topic", "err", err)
		os.Exit(1)
	}

	dispatchPool := xsync.DefaultPool()

	stage, err := pipeline.NewStage(cfg.Stage.ServiceName, inboundTopic, inbound, outbound, cfg.Stage.MaxWorkers, cfg.Stage.KeyPrefix,
		handler(taxonomies, cfg.DefaultDataSources, dispatchPool))
	if err != nil {
		slog.Error("searchplanner: failed to build stage", "err", err)
		os.Exit(1)
	}

	app := runtime.New()
	app.Register(cfg.Stage.ServiceName, stage)
	if err := app.Run(context.Background()); err != nil {
		slog.Error("searchplanner: exited with error", "err", err)
		os.Exit(1)
	}
}

func handler(taxonomies map[string]*taxonomy.Taxonomy, defaultDataSources []string, pool xsync.Pool) pipeline.Handler {
	return func(ctx context.Context, payload []byte, env event.Envelope, tenant, correlationID, parentID string) ([][]byte, error) {
		var req searchRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, &search.ParseError{Input: string(payload), Reason: err.Error()}
		}

		t, ok := taxonomies[req.TaxonomyID]
		if !ok {
			return nil, &taxonomy.ConfigError{TaxonomyID: req.TaxonomyID, Cause: errUnknownTaxonomy}
		}

		var constraints []taxonomy.Constraint
		if req.AdvancedQuery != "" {
			parsed, err := parser.Parse(req.AdvancedQuery, t)
			if err != nil {
				return nil, err
			}
			constraints = parsed
		}

		s := search.NewSearch(req.SearchID, req.TaxonomyID, constraints, nil)
		planner, err := search.NewPlanner(t, s, tenant)
		if err != nil {
			return nil, err
		}

		dataSources := req.DataSources
		if len(dataSources) == 0 {
			dataSources = defaultDataSources
		}
		tagged := make([]taxonomy.DataSource, 0, len(dataSources))
		for _, d := range dataSources {
			tagged = append(tagged, taxonomy.DataSource(d))
		}

		queries, err := planner.Discover(tagged)
		if err != nil {
			return nil, err
		}

		outputs := make([][]byte, len(queries))
		var wg sync.WaitGroup
		var mu sync.Mutex
		var encodeErr error
		for i, q := range queries {
			i, q := i, q
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				encoded, err := json.Marshal(q)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					encodeErr = err
					return
				}
				outputs[i] = encoded
			})
			if submitErr != nil {
				wg.Done()
				return nil, submitErr
			}
		}
		wg.Wait()
		if encodeErr != nil {
			return nil, encodeErr
		}
		return outputs, nil
	}
}

func loadTaxonomies(dir string) (map[string]*taxonomy.Taxonomy, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*taxonomy.Taxonomy, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		t, err := taxonomy.Load(dir + "/" + e.Name())
		if err != nil {
			return nil, err
		}
		out[t.ID] = t
	}
	return out, nil
}

func newBinder(cfg config.BusConfig) (binder.Binder, error) {
	switch cfg.Driver {
	case "pulsar":
		return pulsarbinder.NewPulsar(pulsarbinder.Config{URL: cfg.URL}), nil
	default:
		return kafkabinder.NewKafka(kafkabinder.Config{URL: cfg.URL}), nil
	}
}

var errUnknownTaxonomy = errors.New("taxonomy not loaded")
