package search

import (
	"fmt"
	"strings"

	"github.com/checkmate3d/taxograph/pkg/sets"
	"github.com/checkmate3d/taxograph/taxonomy"
)

const tenantKey = "tenant-name"

// GraphQuery is the three-clause Cypher-style query string a Planner emits
// alongside its expansion queries.
type GraphQuery struct {
	Match         string
	OptionalMatch string
	Where         string
}

// String concatenates the three clauses in emission order, terminated by
// the fixed projection clause.
func (q GraphQuery) String() string {
	return q.Match + "\n" + q.OptionalMatch + "\n" + q.Where + "\nRETURN DISTINCT *"
}

// Planner turns a taxonomy traversal, narrowed by a Search's layered
// constraints, into expansion queries and a graph-query string. Its indices
// are built once and reused across calls against the same taxonomy/search
// pair.
type Planner struct {
	taxonomy   *taxonomy.Taxonomy
	search     *Search
	tenantName string

	constraintsByNode map[string][]taxonomy.Constraint
	adjacency         map[string][]taxonomy.Relationship
	allPaths          [][]string
}

// NewPlanner builds a Planner, computing all simple paths from the
// taxonomy's start node to every other node once.
func NewPlanner(t *taxonomy.Taxonomy, s *Search, tenantName string) (*Planner, error) {
	p := &Planner{taxonomy: t, search: s, tenantName: tenantName}
	p.buildIndices()
	p.allPaths = p.enumeratePaths()
	return p, nil
}

func (p *Planner) buildIndices() {
	p.constraintsByNode = make(map[string][]taxonomy.Constraint)
	for _, c := range p.taxonomy.NodeConstraints {
		p.constraintsByNode[c.AffectedNodeID] = append(p.constraintsByNode[c.AffectedNodeID], c)
	}
	for _, c := range p.search.NodeConstraints {
		p.constraintsByNode[c.AffectedNodeID] = append(p.constraintsByNode[c.AffectedNodeID], c)
	}

	p.adjacency = make(map[string][]taxonomy.Relationship)
	for _, r := range p.taxonomy.Relationships {
		p.adjacency[r.SourceID] = append(p.adjacency[r.SourceID], r)
	}
}

// enumeratePaths computes, for every node other than the start node (in
// taxonomy declaration order), all simple directed paths from the start
// node to it, in depth-first discovery order.
func (p *Planner) enumeratePaths() [][]string {
	start := p.taxonomy.StartNodeID
	var all [][]string
	for _, n := range p.taxonomy.Nodes {
		if n.ID == start {
			continue
		}
		visited := map[string]bool{start: true}
		p.dfsSimplePaths(start, n.ID, []string{start}, visited, &all)
	}
	return all
}

func (p *Planner) dfsSimplePaths(current, target string, path []string, visited map[string]bool, all *[][]string) {
	for _, rel := range p.adjacency[current] {
		next := rel.TargetID
		if next == target {
			found := make([]string, len(path)+1)
			copy(found, path)
			found[len(path)] = next
			*all = append(*all, found)
			continue
		}
		if visited[next] {
			continue
		}
		visited[next] = true
		p.dfsSimplePaths(next, target, append(path, next), visited, all)
		visited[next] = false
	}
}

func (p *Planner) propertiesFor(nodeID string) []PropertyItem {
	constraints := p.constraintsByNode[nodeID]
	if len(constraints) == 0 {
		return nil
	}
	props := make([]PropertyItem, 0, len(constraints))
	for _, c := range constraints {
		props = append(props, PropertyItem{
			Key:     string(c.Comparator),
			Value:   c.Value,
			Subject: c.AttributeName,
			Type:    "property",
		})
	}
	return props
}

// Discover emits one ExpansionQuery per (path, data source) pair carrying
// at least one property constraint, deduplicated by the canonical
// serialization of each candidate's ordered items.
func (p *Planner) Discover(dataSources []taxonomy.DataSource) ([]ExpansionQuery, error) {
	var out []ExpansionQuery
	seen := sets.NewHashSet[string]()

	for _, path := range p.allPaths {
		var pathItems []PayloadItem
		hasPropertyConstraint := false

		for i := 0; i < len(path)-1; i++ {
			nodeID := path[i]
			node, ok := p.taxonomy.Node(nodeID)
			if !ok {
				return nil, &ValidationError{Reason: fmt.Sprintf("path references unknown node %q", nodeID)}
			}
			properties := p.propertiesFor(nodeID)
			if len(properties) == 0 {
				continue
			}
			hasPropertyConstraint = true
			for _, source := range dataSources {
				pathItems = append(pathItems, PayloadItem{
					Key:            "name",
					Value:          node.Attr("name"),
					Subject:        string(node.Type),
					TaxonomyNodeID: nodeID,
					Properties:     properties,
					DataSource:     string(source),
				})
			}
		}

		terminalID := path[len(path)-1]
		terminalNode, ok := p.taxonomy.Node(terminalID)
		if !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("path references unknown node %q", terminalID)}
		}
		terminalProperties := p.propertiesFor(terminalID)
		if len(terminalProperties) > 0 {
			hasPropertyConstraint = true
			for _, source := range dataSources {
				pathItems = append(pathItems, PayloadItem{
					Key:            "name",
					Value:          terminalNode.Attr("name"),
					Subject:        string(terminalNode.Type),
					TaxonomyNodeID: terminalID,
					Properties:     terminalProperties,
					DataSource:     string(source),
				})
			}
		}

		if !hasPropertyConstraint {
			continue
		}

		pathItems = append(pathItems, PayloadItem{Key: tenantKey, Value: p.tenantName, Subject: "Tenant"})

		key := canonicalKey(pathItems)
		if !seen.Add(key) {
			continue
		}
		out = append(out, newExpansionQuery(p.search.ID, p.taxonomy.ID, pathItems))
	}

	return out, nil
}

// GraphQuery builds the three-clause graph-query string: a required MATCH
// over REQUIRED_ONE/REQUIRED_MANY relationships, an OPTIONAL MATCH over the
// remainder, and a WHERE clause conjoining every node constraint.
func (p *Planner) GraphQuery() (GraphQuery, error) {
	match, err := p.matchClause(true)
	if err != nil {
		return GraphQuery{}, err
	}
	optional, err := p.matchClause(false)
	if err != nil {
		return GraphQuery{}, err
	}
	where, err := p.whereClause()
	if err != nil {
		return GraphQuery{}, err
	}
	return GraphQuery{Match: match, OptionalMatch: optional, Where: where}, nil
}

func (p *Planner) matchClause(required bool) (string, error) {
	var components []string
	for _, r := range p.taxonomy.Relationships {
		if r.Multiplicity.Required() != required {
			continue
		}
		srcNode, ok := p.taxonomy.Node(r.SourceID)
		if !ok {
			return "", &ValidationError{Reason: fmt.Sprintf("relationship %q source %q not found", r.ID, r.SourceID)}
		}
		tgtNode, ok := p.taxonomy.Node(r.TargetID)
		if !ok {
			return "", &ValidationError{Reason: fmt.Sprintf("relationship %q target %q not found", r.ID, r.TargetID)}
		}
		if !srcNode.Type.Valid() {
			return "", &ValidationError{Reason: fmt.Sprintf("node %q has unrecognized type %q", srcNode.ID, srcNode.Type)}
		}
		if !tgtNode.Type.Valid() {
			return "", &ValidationError{Reason: fmt.Sprintf("node %q has unrecognized type %q", tgtNode.ID, tgtNode.Type)}
		}
		components = append(components, fmt.Sprintf("(%s:%s)-[:%s]-(%s:%s)", r.SourceID, srcNode.Type, r.Type, r.TargetID, tgtNode.Type))
	}
	prefix := "MATCH "
	if !required {
		prefix = "OPTIONAL MATCH "
	}
	return prefix + strings.Join(components, ","), nil
}

func (p *Planner) whereClause() (string, error) {
	components := []string{"1=1"}
	for _, c := range p.taxonomy.NodeConstraints {
		token, ok := c.Comparator.WireToken()
		if !ok {
			return "", &ValidationError{Reason: fmt.Sprintf("constraint on %q uses unknown comparator %q", c.AffectedNodeID, c.Comparator)}
		}
		value := strings.TrimSpace(c.Value)
		components = append(components, fmt.Sprintf("%s.%s%s'%s'", c.AffectedNodeID, c.AttributeName, token, value))
	}
	for _, c := range p.search.NodeConstraints {
		token, ok := c.Comparator.WireToken()
		if !ok {
			return "", &ValidationError{Reason: fmt.Sprintf("constraint on %q uses unknown comparator %q", c.AffectedNodeID, c.Comparator)}
		}
		value := strings.TrimSpace(c.Value)
		components = append(components, fmt.Sprintf("%s.%s%s'%s'", c.AffectedNodeID, c.AttributeName, token, value))
	}
	return "WHERE " + strings.Join(components, " AND "), nil
}
