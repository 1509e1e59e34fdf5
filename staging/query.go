package staging

import (
	"strings"

	"github.com/checkmate3d/taxograph/search"
)

// multiMatchQuery is the Elasticsearch query-DSL body BuildQuery emits: a
// bool/must aggregation of one multi_match clause per expansion-query
// property whose subject names a staged field.
type multiMatchQuery struct {
	Bool struct {
		Must []multiMatchClause `json:"must,omitempty"`
	} `json:"bool"`
}

type multiMatchClause struct {
	MultiMatch struct {
		Query     string   `json:"query"`
		Fields    []string `json:"fields"`
		Operator  string   `json:"operator"`
		Fuzziness string   `json:"fuzziness"`
	} `json:"multi_match"`
}

// BuildQuery builds a bool/must multi_match query from eq's properties,
// restricted to the staged fields named in fields. A property whose
// Subject is not in fields is excluded, mirroring the reference's
// "if searchProperty.get('subject', '') in properties" filter. An
// expansion query carrying no recognized property yields an empty
// (match-all) query.
func BuildQuery(eq search.ExpansionQuery, fields []string) map[string]any {
	allowed := make(map[string]bool, len(fields))
	for _, f := range fields {
		allowed[f] = true
	}

	var q multiMatchQuery
	for _, item := range eq.Items {
		for _, prop := range item.Properties {
			if !allowed[prop.Subject] {
				continue
			}
			clause := multiMatchClause{}
			clause.MultiMatch.Query = strings.ToLower(prop.Value)
			clause.MultiMatch.Fields = fields
			clause.MultiMatch.Operator = "and"
			clause.MultiMatch.Fuzziness = "AUTO"
			q.Bool.Must = append(q.Bool.Must, clause)
		}
	}

	if len(q.Bool.Must) == 0 {
		return map[string]any{"query": map[string]any{"match_all": map[string]any{}}}
	}
	return map[string]any{"query": q}
}
