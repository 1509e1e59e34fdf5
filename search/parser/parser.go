// Package parser compiles the advanced `key:value AND …` query grammar into
// taxonomy node constraints.
package parser

import (
	"errors"
	"strings"

	"github.com/checkmate3d/taxograph/search"
	"github.com/checkmate3d/taxograph/taxonomy"
)

// Parse compiles query into an ordered list of NodeConstraints, binding the
// "email" key to t's Email node and every other key to t's start node.
//
// The leading AND-delimited atom (the entity-type prefix) is discarded; see
// the open questions in SPEC_FULL.md §9 for whether that is intentional.
func Parse(query string, t *taxonomy.Taxonomy) ([]taxonomy.Constraint, error) {
	atoms := strings.Split(query, "AND")
	if len(atoms) < 2 {
		return nil, &search.ParseError{Input: query, Reason: "expected at least one AND-joined key:value atom"}
	}
	atoms = atoms[1:]

	emailNode, hasEmailNode := findNodeByType(t, taxonomy.Email)
	startNode := t.StartNode()

	constraints := make([]taxonomy.Constraint, 0, len(atoms))
	for _, atom := range atoms {
		key, value, err := splitAtom(atom)
		if err != nil {
			return nil, &search.ParseError{Input: query, Reason: err.Error()}
		}

		var (
			target    taxonomy.Node
			attribute string
			cmp       taxonomy.Comparator
		)
		if key == "email" {
			if !hasEmailNode {
				return nil, &search.ValidationError{Reason: "query references \"email\" but taxonomy has no Email node"}
			}
			target = emailNode
			attribute = "name"
			cmp = taxonomy.Equals
		} else {
			target = startNode
			attribute = key
			cmp = taxonomy.StartsWith
		}

		nc, err := taxonomy.NewNodeConstraint(target, attribute, cmp, value)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, nc)
	}
	return constraints, nil
}

func splitAtom(atom string) (key, value string, err error) {
	trimmed := strings.TrimSpace(atom)
	if trimmed == "" {
		return "", "", errors.New("empty atom")
	}
	idx := strings.IndexByte(trimmed, ':')
	if idx < 0 {
		return "", "", errors.New("atom missing ':'")
	}
	key = strings.TrimSpace(trimmed[:idx])
	value = strings.TrimSpace(trimmed[idx+1:])
	if key == "" {
		return "", "", errors.New("empty key")
	}
	return key, value, nil
}

func findNodeByType(t *taxonomy.Taxonomy, nt taxonomy.NodeType) (taxonomy.Node, bool) {
	for _, n := range t.Nodes {
		if n.Type == nt {
			return n, true
		}
	}
	return taxonomy.Node{}, false
}
