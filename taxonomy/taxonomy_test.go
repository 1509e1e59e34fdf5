package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personTaxonomyNodes() []Node {
	return []Node{
		NewNode("n1", Person, map[string]string{"name": "root"}),
		NewNode("n2", Email, map[string]string{"name": "email"}),
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		startNodeID string
		rels        []Relationship
		nodeCons    []Constraint
		wantErr     bool
		errContains string
	}{
		{
			name:        "valid taxonomy with one relationship",
			startNodeID: "n1",
			rels: []Relationship{
				{ID: "r1", Type: "HAS_EMAIL", Multiplicity: OptionalMany, SourceID: "n1", TargetID: "n2"},
			},
		},
		{
			name:        "unknown start node",
			startNodeID: "missing",
			wantErr:     true,
			errContains: "start node",
		},
		{
			name:        "relationship references unknown target",
			startNodeID: "n1",
			rels: []Relationship{
				{ID: "r1", Type: "HAS_EMAIL", Multiplicity: OptionalMany, SourceID: "n1", TargetID: "missing"},
			},
			wantErr:     true,
			errContains: "target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taxo, err := New("t1", "person", tt.startNodeID, personTaxonomyNodes(), tt.rels, tt.nodeCons, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, taxo)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, taxo)
			assert.Equal(t, tt.startNodeID, taxo.StartNode().ID)
		})
	}
}

func TestTaxonomy_RelationshipsFrom(t *testing.T) {
	rels := []Relationship{
		{ID: "r1", Type: "HAS_EMAIL", Multiplicity: OptionalMany, SourceID: "n1", TargetID: "n2"},
		{ID: "r2", Type: "HAS_PHONE", Multiplicity: OptionalMany, SourceID: "n1", TargetID: "n2"},
	}
	taxo, err := New("t1", "person", "n1", personTaxonomyNodes(), rels, nil, nil)
	require.NoError(t, err)

	from := taxo.RelationshipsFrom("n1")
	assert.Len(t, from, 2)
	assert.Empty(t, taxo.RelationshipsFrom("n2"))
}

func TestNewNodeConstraint(t *testing.T) {
	node := NewNode("n1", Person, map[string]string{"name": "root"})

	t.Run("valid attribute", func(t *testing.T) {
		c, err := NewNodeConstraint(node, "name", Equals, "root")
		require.NoError(t, err)
		assert.True(t, c.IsNode())
		assert.Equal(t, "n1", c.AffectedNodeID)
	})

	t.Run("unknown attribute rejected", func(t *testing.T) {
		_, err := NewNodeConstraint(node, "ssn", Equals, "x")
		require.Error(t, err)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("unknown comparator rejected", func(t *testing.T) {
		_, err := NewNodeConstraint(node, "name", Comparator("BOGUS"), "x")
		require.Error(t, err)
	})
}

func TestNodeType_Schema(t *testing.T) {
	tests := []struct {
		nodeType NodeType
		want     NodeType
	}{
		{Email, Thing},
		{School, Organization},
		{Person, Person},
	}
	for _, tt := range tests {
		got, ok := tt.nodeType.Schema()
		assert.True(t, ok)
		assert.Equal(t, tt.want, got)
	}

	_, ok := NodeType("nonsense").Schema()
	assert.False(t, ok)
}
