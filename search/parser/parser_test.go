package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkmate3d/taxograph/search/parser"
	"github.com/checkmate3d/taxograph/taxonomy"
)

func buildPersonTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	nodeA := taxonomy.NewNode("A", taxonomy.Person, map[string]string{"name": "", "address": ""})
	nodeB := taxonomy.NewNode("B", taxonomy.Email, map[string]string{"name": ""})
	taxo, err := taxonomy.New(
		"t1", "person", "A",
		[]taxonomy.Node{nodeA, nodeB},
		[]taxonomy.Relationship{
			{ID: "r1", Type: "KNOWS", Multiplicity: taxonomy.RequiredOne, SourceID: "A", TargetID: "B"},
		},
		nil, nil,
	)
	require.NoError(t, err)
	return taxo
}

func TestParse(t *testing.T) {
	taxo := buildPersonTaxonomy(t)

	constraints, err := parser.Parse(`person AND email: a@b.co AND address: LA`, taxo)
	require.NoError(t, err)
	require.Len(t, constraints, 2)

	assert.Equal(t, "B", constraints[0].AffectedNodeID)
	assert.Equal(t, taxonomy.Equals, constraints[0].Comparator)
	assert.Equal(t, "a@b.co", constraints[0].Value)
	assert.Equal(t, "name", constraints[0].AttributeName)

	assert.Equal(t, "A", constraints[1].AffectedNodeID)
	assert.Equal(t, taxonomy.StartsWith, constraints[1].Comparator)
	assert.Equal(t, "LA", constraints[1].Value)
	assert.Equal(t, "address", constraints[1].AttributeName)
}

func TestParse_Errors(t *testing.T) {
	taxo := buildPersonTaxonomy(t)

	tests := []struct {
		name  string
		query string
	}{
		{"no AND atoms", "person"},
		{"atom missing colon", "person AND nocolonhere"},
		{"empty atom", "person AND  AND address:LA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.query, taxo)
			require.Error(t, err)
		})
	}
}

func TestParse_UnknownAttributeRejected(t *testing.T) {
	taxo := buildPersonTaxonomy(t)
	_, err := parser.Parse("person AND ssn: 123", taxo)
	require.Error(t, err)
}
