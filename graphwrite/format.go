package graphwrite

import (
	"fmt"
	"sort"
	"strings"
)

// formatProps renders a property map as Cypher map literal text, sorting
// keys for deterministic output across repeated runs.
func formatProps(props map[string]string) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: '%s'", k, props[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatNode renders a Cypher node pattern. An empty nodeType renders an
// anonymous node "()", used for a to-node whose candidate was filtered out
// by threshold.
func formatNode(nodeType string, props map[string]string) string {
	if nodeType == "" {
		return "()"
	}
	propStr := formatProps(props)
	if propStr == "" {
		return fmt.Sprintf("(:%s)", nodeType)
	}
	return fmt.Sprintf("(:%s %s)", nodeType, propStr)
}

// formatRelationship renders a Cypher relationship pattern embedded between
// two node patterns, e.g. "-[:KNOWS {since: '2020'}]->".
func formatRelationship(edgeType string, props map[string]string) string {
	propStr := formatProps(props)
	if propStr == "" {
		return fmt.Sprintf("-[:%s]->", edgeType)
	}
	return fmt.Sprintf("-[:%s %s]->", edgeType, propStr)
}

// MergeClause renders a dyad as a single MERGE clause body (without the
// leading "MERGE " keyword, so callers can comma-join several into one
// statement), mirroring Neo4jHandler.py's createDyad.
func (d Dyad) MergeClause() string {
	from := formatNode(d.FromType, d.FromProps)
	rel := formatRelationship(d.EdgeType, d.EdgeProps)
	to := formatNode(d.ToType, d.ToProps)
	return from + rel + to
}
