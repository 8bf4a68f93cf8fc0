package graph

// Traverse walks the tree rooted at root depth-first in element order and
// returns one context per node. Nodes reachable through more than one path
// are visited once (guarded by pointer identity, since detached subtrees may
// share empty ids).
func Traverse(root *Node) []*Context {
	if root == nil {
		return nil
	}

	var contexts []*Context
	seen := make(map[*Node]struct{})

	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		contexts = append(contexts, &Context{Current: n})
		for _, child := range n.Elements {
			walk(child)
		}
	}
	walk(root)

	return contexts
}
