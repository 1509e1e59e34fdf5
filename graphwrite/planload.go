package graphwrite

import (
	"os"

	"gopkg.in/yaml.v3"
)

// planArtifact is the on-disk YAML shape of a Plan, mirroring the
// taxonomy package's artifact/Load split: the wire format stays decoupled
// from the domain Plan type.
type planArtifact struct {
	From              []string          `yaml:"from"`
	To                []string          `yaml:"to"`
	Relationship      []string          `yaml:"relationship"`
	FromProps         []string          `yaml:"from_props"`
	ToProps           []string          `yaml:"to_props"`
	RelationshipProps []string          `yaml:"relationship_props"`
	PropMap           map[string]string `yaml:"prop_map"`
	Types             map[string]string `yaml:"types"`
	Thresholds        map[string]float64 `yaml:"thresholds"`
}

// LoadPlan reads a projection-plan artifact from path and returns a
// normalized Plan, ready for Project.
func LoadPlan(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Cause: err}
	}
	defer f.Close()

	var a planArtifact
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		return nil, &ConfigError{Path: path, Cause: err}
	}

	p := &Plan{
		From:              a.From,
		To:                a.To,
		Relationship:      a.Relationship,
		FromProps:         a.FromProps,
		ToProps:           a.ToProps,
		RelationshipProps: a.RelationshipProps,
		PropMap:           a.PropMap,
		Types:             a.Types,
		Thresholds:        a.Thresholds,
	}
	p.Normalize()
	return p, nil
}
