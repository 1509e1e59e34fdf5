package staging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkmate3d/taxograph/search"
)

func TestBuildQuery_FiltersToRecognizedFields(t *testing.T) {
	eq := search.ExpansionQuery{
		Items: []search.PayloadItem{
			{
				Subject: "Person",
				Properties: []search.PropertyItem{
					{Subject: "Vendor", Value: "Acme Corp"},
					{Subject: "Unrecognized", Value: "ignored"},
				},
			},
		},
	}

	q := BuildQuery(eq, []string{"Vendor", "Amount"})
	queryMap, ok := q["query"].(multiMatchQuery)
	require.True(t, ok)
	require.Len(t, queryMap.Bool.Must, 1)
	assert.Equal(t, "acme corp", queryMap.Bool.Must[0].MultiMatch.Query)
	assert.Equal(t, []string{"Vendor", "Amount"}, queryMap.Bool.Must[0].MultiMatch.Fields)
	assert.Equal(t, "and", queryMap.Bool.Must[0].MultiMatch.Operator)
}

func TestBuildQuery_NoRecognizedPropertiesMatchesAll(t *testing.T) {
	eq := search.ExpansionQuery{
		Items: []search.PayloadItem{{Subject: "Person"}},
	}

	q := BuildQuery(eq, []string{"Vendor"})
	inner, ok := q["query"].(map[string]any)
	require.True(t, ok)
	_, hasMatchAll := inner["match_all"]
	assert.True(t, hasMatchAll)
}
