// Package staging implements the full-text staging-store client the
// graph-write planner streams documents from: a query builder that turns an
// expansion query's properties into an Elasticsearch multi_match body, and a
// hit-to-Document conversion. Documents decodes one search response and
// returns all of its hits as a slice; it is not lazy and does not scroll.
package staging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v7"

	"github.com/checkmate3d/taxograph/graphwrite"
)

// Client wraps an Elasticsearch client scoped to a single index, matching
// ElasticsearchHandler's one-client-per-index shape.
type Client struct {
	es    *elasticsearch.Client
	index string
}

// NewClient builds a Client against hosts, authenticating with
// username/password when either is non-empty.
func NewClient(hosts []string, username, password, index string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: hosts,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, &UpstreamError{Op: "connect", Cause: err}
	}
	return &Client{es: es, index: index}, nil
}

// searchHit is the subset of an Elasticsearch hit body this client reads.
type searchHit struct {
	Source map[string][]struct {
		Answer string  `json:"answer"`
		Score  float64 `json:"score"`
	} `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

// Documents runs query against the client's index and returns every hit's
// body as a graphwrite.Document, in result order. The caller-visible
// surface is a plain slice rather than an iterator only because
// go-elasticsearch/v7's Search API itself returns one decoded response, not
// a scroll cursor; scrolling across pages (the reference's "TODO: add
// scrolling in esreq") is not implemented here.
func (c *Client) Documents(ctx context.Context, query map[string]any) ([]graphwrite.Document, error) {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(query); err != nil {
		return nil, &UpstreamError{Op: "encode query", Cause: err}
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&body),
	)
	if err != nil {
		return nil, &UpstreamError{Op: "search", Cause: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, &UpstreamError{Op: "search", Cause: fmt.Errorf("elasticsearch: %s", res.String())}
	}

	var decoded searchResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, &UpstreamError{Op: "decode", Cause: err}
	}

	docs := make([]graphwrite.Document, 0, len(decoded.Hits.Hits))
	for _, hit := range decoded.Hits.Hits {
		doc := make(graphwrite.Document, len(hit.Source))
		for field, candidates := range hit.Source {
			entities := make([]graphwrite.SubEntity, 0, len(candidates))
			for _, c := range candidates {
				entities = append(entities, graphwrite.SubEntity{Answer: c.Answer, Score: c.Score})
			}
			doc[field] = entities
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
