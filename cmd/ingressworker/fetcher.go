package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/checkmate3d/taxograph/search"
	"github.com/checkmate3d/taxograph/taxonomy"
)

// httpFetcher implements Fetcher against an external data-source collaborator
// reachable over HTTP: it POSTs the routed expansion query as JSON and
// returns the response body verbatim as the raw document to stage. This is
// the pipeline's half of the contract with each enumerated DataSource
// collaborator (web scraper, people-data API, breach database, bucket
// scraper); the collaborator's own fetch/scrape logic lives outside this
// repo.
type httpFetcher struct {
	client *http.Client
	url    string
}

func newHTTPFetcher(url string) *httpFetcher {
	return &httpFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		url:    url,
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, query search.ExpansionQuery) ([]byte, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ingressworker: fetch against %s returned status %d", f.url, resp.StatusCode)
	}
	return raw, nil
}

// resolveFetcher builds the Fetcher for dataSource from the
// TAXOGRAPH_FETCH_URL_<DATASOURCE> environment variable, so each deployed
// ingress worker instance can be pointed at its own collaborator endpoint
// without a code change.
func resolveFetcher(dataSource taxonomy.DataSource) (Fetcher, error) {
	envKey := "TAXOGRAPH_FETCH_URL_" + string(dataSource)
	url := os.Getenv(envKey)
	if url == "" {
		return nil, fmt.Errorf("ingressworker: %s is not set for data source %q", envKey, dataSource)
	}
	return newHTTPFetcher(url), nil
}
