package taxonomy

// Node is a taxonomy vertex: a stable id, a NodeType tag, and a string-keyed
// property bag. Nodes are immutable after construction.
type Node struct {
	ID         string
	Type       NodeType
	Attributes map[string]string
}

// NewNode constructs a Node, copying attrs so the caller's map can't mutate
// the node afterward.
func NewNode(id string, nodeType NodeType, attrs map[string]string) Node {
	cp := make(map[string]string, len(attrs))
	for k, v := range attrs {
		cp[k] = v
	}
	return Node{ID: id, Type: nodeType, Attributes: cp}
}

// Attr returns the named attribute, or "" if unset.
func (n Node) Attr(name string) string {
	return n.Attributes[name]
}

// HasAttr reports whether the node declares the named attribute. "name" is
// always considered declared: every taxonomy node carries a display name
// even when the artifact didn't enumerate it explicitly (the original
// schema.org lookup this stands in for guarantees it universally).
func (n Node) HasAttr(name string) bool {
	if name == "name" {
		return true
	}
	_, ok := n.Attributes[name]
	return ok
}
