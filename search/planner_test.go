package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkmate3d/taxograph/search"
	"github.com/checkmate3d/taxograph/taxonomy"
)

func buildSimpleTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	nodeA := taxonomy.NewNode("A", taxonomy.Person, map[string]string{"name": "Tom"})
	nodeB := taxonomy.NewNode("B", taxonomy.Email, map[string]string{"name": "tom@example.com"})

	nc, err := taxonomy.NewNodeConstraint(nodeA, "name", taxonomy.StartsWith, "Tom")
	require.NoError(t, err)

	taxo, err := taxonomy.New(
		"t1", "person", "A",
		[]taxonomy.Node{nodeA, nodeB},
		[]taxonomy.Relationship{
			{ID: "r1", Type: "KNOWS", Multiplicity: taxonomy.RequiredOne, SourceID: "A", TargetID: "B"},
		},
		[]taxonomy.Constraint{nc},
		nil,
	)
	require.NoError(t, err)
	return taxo
}

func TestPlanner_Discover(t *testing.T) {
	taxo := buildSimpleTaxonomy(t)
	s := search.NewSearch("s1", taxo.ID, nil, nil)
	planner, err := search.NewPlanner(taxo, s, "acme")
	require.NoError(t, err)

	queries, err := planner.Discover([]taxonomy.DataSource{taxonomy.CVE, taxonomy.DataScraper})
	require.NoError(t, err)
	require.Len(t, queries, 1)

	q := queries[0]
	assert.Equal(t, "s1", q.SearchID)
	assert.Equal(t, "t1", q.TaxonomyID)

	var names []string
	for _, item := range q.Items {
		names = append(names, item.Key)
	}
	assert.Contains(t, names, "search-id")
	assert.Contains(t, names, "taxonomy-id")
	assert.Contains(t, names, "expansion-query-id")
	assert.Contains(t, names, "tenant-name")

	var nameItems int
	for _, item := range q.Items {
		if item.Key == "name" {
			nameItems++
			assert.NotEmpty(t, item.Properties)
		}
	}
	assert.Equal(t, 2, nameItems, "one name item per data source on the constrained start node")
}

func TestPlanner_Discover_NoConstraints(t *testing.T) {
	nodeA := taxonomy.NewNode("A", taxonomy.Person, map[string]string{"name": "Tom"})
	nodeB := taxonomy.NewNode("B", taxonomy.Email, map[string]string{"name": "tom@example.com"})
	taxo, err := taxonomy.New(
		"t1", "person", "A",
		[]taxonomy.Node{nodeA, nodeB},
		[]taxonomy.Relationship{
			{ID: "r1", Type: "KNOWS", Multiplicity: taxonomy.RequiredOne, SourceID: "A", TargetID: "B"},
		},
		nil, nil,
	)
	require.NoError(t, err)

	s := search.NewSearch("s1", taxo.ID, nil, nil)
	planner, err := search.NewPlanner(taxo, s, "acme")
	require.NoError(t, err)

	queries, err := planner.Discover([]taxonomy.DataSource{taxonomy.CVE})
	require.NoError(t, err)
	assert.Empty(t, queries, "purely structural paths with no property constraint are discarded")
}

func TestPlanner_GraphQuery(t *testing.T) {
	taxo := buildSimpleTaxonomy(t)
	s := search.NewSearch("s1", taxo.ID, nil, nil)
	planner, err := search.NewPlanner(taxo, s, "acme")
	require.NoError(t, err)

	q, err := planner.GraphQuery()
	require.NoError(t, err)

	assert.Equal(t, "MATCH (A:Person)-[:KNOWS]-(B:Email)", q.Match)
	assert.Equal(t, "OPTIONAL MATCH ", q.OptionalMatch)
	assert.Equal(t, "WHERE 1=1 AND A.name STARTS WITH 'Tom'", q.Where)
	assert.Contains(t, q.String(), "RETURN DISTINCT *")
}

func TestPlanner_Discover_StableAcrossInvocations(t *testing.T) {
	taxo := buildSimpleTaxonomy(t)
	s := search.NewSearch("s1", taxo.ID, nil, nil)
	planner, err := search.NewPlanner(taxo, s, "acme")
	require.NoError(t, err)

	first, err := planner.Discover([]taxonomy.DataSource{taxonomy.CVE})
	require.NoError(t, err)
	second, err := planner.Discover([]taxonomy.DataSource{taxonomy.CVE})
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))
}
