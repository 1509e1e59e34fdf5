// Package search turns a taxonomy traversal into the expansion queries and
// graph-query string that drive the rest of the discovery pipeline.
package search

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/checkmate3d/taxograph/taxonomy"
)

// PropertyItem annotates a PayloadItem with one constraint that narrowed the
// node it was emitted for.
type PropertyItem struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Subject string `json:"subject"`
	Type    string `json:"type"`
}

// PayloadItem is one element of an ExpansionQuery's ordered payload.
type PayloadItem struct {
	Key            string         `json:"key"`
	Value          string         `json:"value"`
	Subject        string         `json:"subject"`
	TaxonomyNodeID string         `json:"taxonomy-node-id,omitempty"`
	Properties     []PropertyItem `json:"properties,omitempty"`
	DataSource     string         `json:"data-source,omitempty"`
}

// ExpansionQuery is a per-(path, data source) sub-query derived from a
// taxonomy traversal, ready to ship as a cloud-event payload.
type ExpansionQuery struct {
	ID         string
	SearchID   string
	TaxonomyID string
	Items      []PayloadItem
}

// newExpansionQuery prepends the search-id/taxonomy-id/expansion-query-id
// header items ahead of the caller-supplied path items, mirroring the
// envelope identification block every expansion query carries.
func newExpansionQuery(searchID, taxonomyID string, pathItems []PayloadItem) ExpansionQuery {
	id := uuid.NewString()
	items := make([]PayloadItem, 0, len(pathItems)+3)
	items = append(items,
		PayloadItem{Key: "search-id", Value: searchID, Subject: "Search"},
		PayloadItem{Key: "taxonomy-id", Value: taxonomyID, Subject: "Taxonomy"},
		PayloadItem{Key: "expansion-query-id", Value: id, Subject: "ExpansionQuery"},
	)
	items = append(items, pathItems...)
	return ExpansionQuery{ID: id, SearchID: searchID, TaxonomyID: taxonomyID, Items: items}
}

// canonicalKey returns a deterministic serialization of pathItems used to
// deduplicate expansion queries whose path items are equal.
func canonicalKey(pathItems []PayloadItem) string {
	b, _ := json.Marshal(pathItems)
	return string(b)
}

// Search layers caller-supplied constraints on top of a taxonomy's own,
// without mutating the loaded taxonomy (taxonomy artifacts are immutable
// once loaded; only the narrowing constraint list belongs to the search).
type Search struct {
	ID                      string
	TaxonomyID              string
	NodeConstraints         []taxonomy.Constraint
	RelationshipConstraints []taxonomy.Constraint
}

// NewSearch builds a Search. Constraints passed here only ever narrow the
// result set further than the taxonomy's own constraints already do.
func NewSearch(id, taxonomyID string, nodeConstraints, relConstraints []taxonomy.Constraint) *Search {
	return &Search{
		ID:                      id,
		TaxonomyID:              taxonomyID,
		NodeConstraints:         nodeConstraints,
		RelationshipConstraints: relConstraints,
	}
}
