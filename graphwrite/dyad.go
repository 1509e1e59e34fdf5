package graphwrite

import (
	"strconv"

	"github.com/checkmate3d/taxograph/taxonomy"
)

// SubEntity is one candidate value extracted for a document field, carrying
// the confidence score it was staged with.
type SubEntity struct {
	Answer string
	Score  float64
}

// Document is a staged hit's body: each recognized entity field holds zero
// or more scored candidate values.
type Document map[string][]SubEntity

// Dyad is one source-node/relationship/target-node triple ready to format
// as a MERGE clause. FromType/ToType are already collapsed (taxonomy.NodeType.Schema)
// graph labels; an empty Type means an anonymous node (no surviving candidate).
type Dyad struct {
	FromType  string
	FromProps map[string]string
	EdgeType  string
	EdgeProps map[string]string
	ToType    string
	ToProps   map[string]string
}

// Project walks doc once per plan index, threshold-filters each side's
// candidates, and yields one Dyad per index. A dyad whose from-side or
// to-side names a node-type tag absent from the taxonomy schema is skipped
// and reported; a dyad missing a literal relationship type is skipped and
// reported. A from-node with no surviving candidate is also skipped (the
// source node is required); a to-node with no surviving candidate still
// yields a dyad, with an anonymous to-node, matching the reference's
// documented "drop below-threshold candidate, keep the dyad" scenario.
func (p *Plan) Project(doc Document) ([]Dyad, []error) {
	var dyads []Dyad
	var errs []error

	for i := 0; i < p.projections(); i++ {
		fromField := p.From[i]
		toField := p.To[i]
		edgeType := p.Relationship[i]

		if edgeType == "" {
			errs = append(errs, &SkippedDyadError{Reason: "empty relationship type at index " + strconv.Itoa(i)})
			continue
		}

		fromValue, fromOK := bestCandidate(doc[fromField], p.Thresholds[fromField])
		if !fromOK {
			errs = append(errs, &SkippedDyadError{Reason: "no surviving candidate for required from-field " + fromField})
			continue
		}
		toValue, toOK := bestCandidate(doc[toField], p.Thresholds[toField])

		fromType, fromTypeOK := p.collapsedType(fromField)
		if !fromTypeOK {
			errs = append(errs, &SkippedDyadError{Reason: "unknown node type for field " + fromField})
			continue
		}

		dyad := Dyad{
			FromType:  fromType,
			FromProps: p.copyNodeProp(p.FromProps, i, fromValue),
			EdgeType:  edgeType,
			EdgeProps: p.copyEdgeProp(p.RelationshipProps, i, doc),
		}

		if toOK {
			toType, toTypeOK := p.collapsedType(toField)
			if !toTypeOK {
				errs = append(errs, &SkippedDyadError{Reason: "unknown node type for field " + toField})
				continue
			}
			dyad.ToType = toType
			dyad.ToProps = p.copyNodeProp(p.ToProps, i, toValue)
		}

		if _, ok := dyad.FromProps["name"]; !ok {
			errs = append(errs, &SkippedDyadError{Reason: "missing required name property on from-node for field " + fromField})
			continue
		}
		if dyad.ToType != "" {
			if _, ok := dyad.ToProps["name"]; !ok {
				errs = append(errs, &SkippedDyadError{Reason: "missing required name property on to-node for field " + toField})
				continue
			}
		}

		dyads = append(dyads, dyad)
	}

	return dyads, errs
}

func (p *Plan) collapsedType(field string) (string, bool) {
	tag, ok := p.Types[field]
	if !ok {
		return "", false
	}
	schema, ok := taxonomy.NodeType(tag).Schema()
	if !ok {
		return "", false
	}
	return string(schema), true
}

// copyNodeProp copies the single property key named at index i from value,
// renamed through PropMap, onto a from/to node. The only value a SubEntity
// carries is Answer, so the copied key always maps to it.
func (p *Plan) copyNodeProp(keys []string, i int, value SubEntity) map[string]string {
	if i >= len(keys) || keys[i] == "" {
		return map[string]string{}
	}
	outKey := keys[i]
	if mapped, ok := p.PropMap[outKey]; ok {
		outKey = mapped
	}
	return map[string]string{outKey: value.Answer}
}

// copyEdgeProp copies the relationship property named at index i, keyed by
// the document field name itself (not renamed through PropMap): the field
// is its own document-level entity, distinct from the from/to node's
// "answer" attribute, e.g. plan.RelationshipProps=["amount"] on a document
// carrying doc["amount"] yields {"amount": "<surviving answer>"}.
func (p *Plan) copyEdgeProp(keys []string, i int, doc Document) map[string]string {
	if i >= len(keys) || keys[i] == "" {
		return map[string]string{}
	}
	field := keys[i]
	value, ok := bestCandidate(doc[field], p.Thresholds[field])
	if !ok {
		return map[string]string{}
	}
	return map[string]string{field: value.Answer}
}

// bestCandidate returns the highest-scoring sub-entity meeting threshold
// (entities are only filtered when the field has a configured threshold),
// or false if none survive.
func bestCandidate(candidates []SubEntity, threshold float64) (SubEntity, bool) {
	var best SubEntity
	found := false
	for _, c := range candidates {
		if threshold > 0 && c.Score < threshold {
			continue
		}
		if !found || c.Score > best.Score {
			best = c
			found = true
		}
	}
	return best, found
}
