package taxonomy

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// artifact is the on-disk YAML shape of a taxonomy definition. It stays
// decoupled from the Taxonomy domain type so the wire format can evolve
// without touching planner code.
type artifact struct {
	ID                      string                `yaml:"id"`
	Name                    string                `yaml:"name"`
	StartNodeID             string                `yaml:"start_node_id"`
	Nodes                   []nodeArtifact        `yaml:"nodes"`
	Relationships           []relationshipArtifact `yaml:"relationships"`
	NodeConstraints         []constraintArtifact  `yaml:"node_constraints"`
	RelationshipConstraints []constraintArtifact  `yaml:"relationship_constraints"`
}

type nodeArtifact struct {
	ID         string            `yaml:"id"`
	Type       string            `yaml:"type"`
	Attributes map[string]string `yaml:"attributes"`
}

type relationshipArtifact struct {
	ID            string  `yaml:"id"`
	Type          string  `yaml:"type"`
	Multiplicity  string  `yaml:"multiplicity"`
	SourceID      string  `yaml:"source_id"`
	TargetID      string  `yaml:"target_id"`
	PropertyValue string  `yaml:"property_value"`
	Confidence    *float64 `yaml:"confidence"`
}

type constraintArtifact struct {
	AffectedID    string `yaml:"affected_id"`
	AttributeName string `yaml:"attribute_name"`
	Comparator    string `yaml:"comparator"`
	Value         string `yaml:"value"`
}

// Load reads and decodes a taxonomy artifact from path, keyed by the
// taxonomy id embedded in the file itself.
func Load(path string) (*Taxonomy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{TaxonomyID: path, Cause: err}
	}
	defer f.Close()
	return LoadFromReader(path, f)
}

// LoadFromReader decodes a taxonomy artifact from r. taxonomyID labels
// ConfigError on failure and is otherwise informational; the artifact's own
// "id" field is authoritative for the returned Taxonomy.
func LoadFromReader(taxonomyID string, r io.Reader) (*Taxonomy, error) {
	var a artifact
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		return nil, &ConfigError{TaxonomyID: taxonomyID, Cause: err}
	}

	nodes := make([]Node, 0, len(a.Nodes))
	nodesByID := make(map[string]Node, len(a.Nodes))
	for _, n := range a.Nodes {
		nt := NodeType(n.Type)
		if !nt.Valid() {
			return nil, &ConfigError{TaxonomyID: a.ID, Cause: fmt.Errorf("node %q: unknown type %q", n.ID, n.Type)}
		}
		node := NewNode(n.ID, nt, n.Attributes)
		nodes = append(nodes, node)
		nodesByID[node.ID] = node
	}

	rels := make([]Relationship, 0, len(a.Relationships))
	relsByID := make(map[string]Relationship, len(a.Relationships))
	for _, r := range a.Relationships {
		mult := RelationshipMultiplicity(r.Multiplicity)
		switch mult {
		case RequiredOne, RequiredMany, OptionalMany, OptionalZeroOrMore:
		default:
			return nil, &ConfigError{TaxonomyID: a.ID, Cause: fmt.Errorf("relationship %q: unknown multiplicity %q", r.ID, r.Multiplicity)}
		}
		rel := Relationship{
			ID:            r.ID,
			Type:          r.Type,
			Multiplicity:  mult,
			SourceID:      r.SourceID,
			TargetID:      r.TargetID,
			PropertyValue: r.PropertyValue,
			Confidence:    r.Confidence,
		}
		rels = append(rels, rel)
		relsByID[rel.ID] = rel
	}

	nodeConstraints := make([]Constraint, 0, len(a.NodeConstraints))
	for _, c := range a.NodeConstraints {
		n, ok := nodesByID[c.AffectedID]
		if !ok {
			return nil, &ConfigError{TaxonomyID: a.ID, Cause: fmt.Errorf("node constraint references unknown node %q", c.AffectedID)}
		}
		nc, err := NewNodeConstraint(n, c.AttributeName, Comparator(c.Comparator), c.Value)
		if err != nil {
			return nil, &ConfigError{TaxonomyID: a.ID, Cause: err}
		}
		nodeConstraints = append(nodeConstraints, nc)
	}

	relConstraints := make([]Constraint, 0, len(a.RelationshipConstraints))
	for _, c := range a.RelationshipConstraints {
		rel, ok := relsByID[c.AffectedID]
		if !ok {
			return nil, &ConfigError{TaxonomyID: a.ID, Cause: fmt.Errorf("relationship constraint references unknown relationship %q", c.AffectedID)}
		}
		rc, err := NewRelationshipConstraint(rel, c.AttributeName, Comparator(c.Comparator), c.Value)
		if err != nil {
			return nil, &ConfigError{TaxonomyID: a.ID, Cause: err}
		}
		relConstraints = append(relConstraints, rc)
	}

	t, err := New(a.ID, a.Name, a.StartNodeID, nodes, rels, nodeConstraints, relConstraints)
	if err != nil {
		return nil, &ConfigError{TaxonomyID: a.ID, Cause: err}
	}
	return t, nil
}
