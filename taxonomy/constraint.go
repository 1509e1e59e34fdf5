package taxonomy

// ConstraintKind discriminates the two Constraint variants. Constraint is
// modeled as a single tagged struct rather than an interface with runtime
// type assertions, keeping the planner's dispatch a plain switch on Kind.
type ConstraintKind int

const (
	NodeConstraintKind ConstraintKind = iota
	RelationshipConstraintKind
)

// Constraint is the sum type of NodeConstraint and RelationshipConstraint.
// Exactly one side of the affected-id/type pair is meaningful, selected by
// Kind.
type Constraint struct {
	Kind ConstraintKind

	// NodeConstraint fields.
	AffectedNodeID string
	NodeType       NodeType

	// RelationshipConstraint fields.
	AffectedRelationshipID string
	RelationshipType       string

	AttributeName string
	Comparator    Comparator
	Value         string
}

// NewNodeConstraint builds a NodeConstraint-kind Constraint, validating that
// the comparator is recognized and the attribute exists on the target
// node's schema.
func NewNodeConstraint(node Node, attributeName string, cmp Comparator, value string) (Constraint, error) {
	if _, ok := cmp.WireToken(); !ok {
		return Constraint{}, &ValidationError{Reason: "unknown comparator " + string(cmp)}
	}
	if !node.HasAttr(attributeName) {
		return Constraint{}, &ValidationError{Reason: "attribute " + attributeName + " does not exist on node " + node.ID}
	}
	return Constraint{
		Kind:           NodeConstraintKind,
		AffectedNodeID: node.ID,
		NodeType:       node.Type,
		AttributeName:  attributeName,
		Comparator:     cmp,
		Value:          value,
	}, nil
}

// NewRelationshipConstraint builds a RelationshipConstraint-kind Constraint.
func NewRelationshipConstraint(rel Relationship, attributeName string, cmp Comparator, value string) (Constraint, error) {
	if _, ok := cmp.WireToken(); !ok {
		return Constraint{}, &ValidationError{Reason: "unknown comparator " + string(cmp)}
	}
	return Constraint{
		Kind:                   RelationshipConstraintKind,
		AffectedRelationshipID: rel.ID,
		RelationshipType:       rel.Type,
		AttributeName:          attributeName,
		Comparator:             cmp,
		Value:                  value,
	}, nil
}

// IsNode reports whether this is a NodeConstraint.
func (c Constraint) IsNode() bool { return c.Kind == NodeConstraintKind }
