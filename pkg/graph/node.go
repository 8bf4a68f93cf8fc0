// Package graph models the object tree of a received model version:
// nodes addressable by stable id, carrying either a modern nested
// properties mapping, a legacy parameter collection, or both.
package graph

// Node is a vertex in a received model version object tree.
// The sanitization core never changes a node's structure beyond
// removing or masking parameters.
type Node struct {
	ID   string
	Type string
	Name string

	// Properties is the modern nested property structure: a mapping whose
	// values are either parameter leaves (mappings containing a "value"
	// field) or nested grouping mappings.
	Properties map[string]any

	// Parameters is the legacy attribute-bearing parameter collection.
	// Nil for nodes authored against the modern schema.
	Parameters *ParameterSet

	// Elements are the child nodes in display order.
	Elements []*Node

	// extra preserves fields we do not interpret, so a mutated tree can be
	// committed back without dropping unknown data.
	extra map[string]any
}

// Context wraps a node visited during traversal.
type Context struct {
	Current *Node
}

// IsParameterLeaf reports whether a nested property mapping is a parameter
// leaf, i.e. it carries a "value" field. Mappings without one are grouping
// containers to recurse into.
func IsParameterLeaf(m map[string]any) bool {
	_, ok := m["value"]
	return ok
}
