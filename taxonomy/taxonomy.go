package taxonomy

import "fmt"

// Taxonomy is the typed multi-graph a search plan expands against: a fixed
// node/relationship arena plus the constraints narrowing which instances of
// each qualify.
type Taxonomy struct {
	ID                      string
	Name                    string
	StartNodeID             string
	Nodes                   []Node
	Relationships           []Relationship
	NodeConstraints         []Constraint
	RelationshipConstraints []Constraint

	nodesByID map[string]Node
	relsByID  map[string]Relationship
}

// New builds a Taxonomy and validates its structural invariants: the start
// node and every relationship endpoint must resolve within the node arena,
// every node constraint's attribute must be declared on its node, and every
// relationship constraint must target a known relationship. Relationship
// constraint attribute names are not checked.
func New(id, name string, startNodeID string, nodes []Node, rels []Relationship, nodeConstraints, relConstraints []Constraint) (*Taxonomy, error) {
	t := &Taxonomy{
		ID:                      id,
		Name:                    name,
		StartNodeID:             startNodeID,
		Nodes:                   nodes,
		Relationships:           rels,
		NodeConstraints:         nodeConstraints,
		RelationshipConstraints: relConstraints,
	}
	t.index()
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Taxonomy) index() {
	t.nodesByID = make(map[string]Node, len(t.Nodes))
	for _, n := range t.Nodes {
		t.nodesByID[n.ID] = n
	}
	t.relsByID = make(map[string]Relationship, len(t.Relationships))
	for _, r := range t.Relationships {
		t.relsByID[r.ID] = r
	}
}

func (t *Taxonomy) validate() error {
	if _, ok := t.nodesByID[t.StartNodeID]; !ok {
		return &ValidationError{Reason: fmt.Sprintf("start node %q not present in taxonomy %q", t.StartNodeID, t.Name)}
	}
	for _, r := range t.Relationships {
		if _, ok := t.nodesByID[r.SourceID]; !ok {
			return &ValidationError{Reason: fmt.Sprintf("relationship %q source %q not present in taxonomy %q", r.ID, r.SourceID, t.Name)}
		}
		if _, ok := t.nodesByID[r.TargetID]; !ok {
			return &ValidationError{Reason: fmt.Sprintf("relationship %q target %q not present in taxonomy %q", r.ID, r.TargetID, t.Name)}
		}
	}
	for _, c := range t.NodeConstraints {
		n, ok := t.nodesByID[c.AffectedNodeID]
		if !ok {
			return &ValidationError{Reason: fmt.Sprintf("node constraint targets unknown node %q", c.AffectedNodeID)}
		}
		if !n.HasAttr(c.AttributeName) {
			return &ValidationError{Reason: fmt.Sprintf("node constraint attribute %q not declared on node %q", c.AttributeName, c.AffectedNodeID)}
		}
	}
	for _, c := range t.RelationshipConstraints {
		if _, ok := t.relsByID[c.AffectedRelationshipID]; !ok {
			return &ValidationError{Reason: fmt.Sprintf("relationship constraint targets unknown relationship %q", c.AffectedRelationshipID)}
		}
	}
	return nil
}

// Node looks up a node by id.
func (t *Taxonomy) Node(id string) (Node, bool) {
	n, ok := t.nodesByID[id]
	return n, ok
}

// Relationship looks up a relationship by id.
func (t *Taxonomy) Relationship(id string) (Relationship, bool) {
	r, ok := t.relsByID[id]
	return r, ok
}

// StartNode returns the taxonomy's entry node.
func (t *Taxonomy) StartNode() Node {
	return t.nodesByID[t.StartNodeID]
}

// RelationshipsFrom returns every relationship whose source is nodeID, in
// declaration order.
func (t *Taxonomy) RelationshipsFrom(nodeID string) []Relationship {
	var out []Relationship
	for _, r := range t.Relationships {
		if r.SourceID == nodeID {
			out = append(out, r)
		}
	}
	return out
}

// AppendNodeConstraint adds a caller-supplied constraint narrowing the
// result set further.
//
// TODO: reject constraints that would broaden rather than narrow the
// taxonomy-defined result set; unenforced today, mirroring the reference.
func (t *Taxonomy) AppendNodeConstraint(c Constraint) {
	t.NodeConstraints = append(t.NodeConstraints, c)
}

// AppendRelationshipConstraint adds a caller-supplied relationship
// constraint. See AppendNodeConstraint's TODO.
func (t *Taxonomy) AppendRelationshipConstraint(c Constraint) {
	t.RelationshipConstraints = append(t.RelationshipConstraints, c)
}
