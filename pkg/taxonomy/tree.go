package taxonomy

import "github.com/matst80/rdf-finder/pkg/types"

// TreeNode is a read only projection of the arena for rendering. Ref marks a
// class already expanded elsewhere in the same tree, it carries no children.
type TreeNode struct {
	URI            string     `json:"uri"`
	Label          string     `json:"label"`
	Count          int        `json:"count"`
	InheritedCount int        `json:"inheritedCount"`
	Children       []TreeNode `json:"children,omitempty"`
	Leaf           bool       `json:"leaf"`
	Missing        bool       `json:"missing,omitempty"`
	Ref            bool       `json:"ref,omitempty"`
}

type renderer struct {
	t        *Taxonomy
	path     map[string]struct{}
	expanded map[string]struct{}
}

// Tree renders the forest below the configured roots. Every class is
// expanded at its first occurrence only, later occurrences are childless
// references, so the output is linear in the number of edges. A class
// already on the path from its root is not entered again.
func (t *Taxonomy) Tree() []TreeNode {
	r := &renderer{
		t:        t,
		path:     map[string]struct{}{},
		expanded: map[string]struct{}{},
	}
	ret := make([]TreeNode, 0, len(t.roots))
	for _, root := range t.roots {
		ret = append(ret, r.render(root))
	}
	return ret
}

func (r *renderer) render(uri string) TreeNode {
	node, ok := r.t.nodes[uri]
	if !ok {
		return TreeNode{URI: uri, Label: types.LocalName(uri), Leaf: true, Missing: true}
	}
	ret := TreeNode{
		URI:            uri,
		Label:          node.DisplayLabel(),
		Count:          node.Count,
		InheritedCount: node.InheritedCount,
	}
	if _, seen := r.expanded[uri]; seen {
		ret.Ref = true
		ret.Leaf = len(node.Children) == 0
		return ret
	}
	r.expanded[uri] = struct{}{}
	r.path[uri] = struct{}{}
	defer delete(r.path, uri)

	for _, child := range node.Children {
		if _, onPath := r.path[child]; onPath {
			continue
		}
		ret.Children = append(ret.Children, r.render(child))
	}
	ret.Leaf = len(ret.Children) == 0
	return ret
}

// Walk visits every rendered node depth first with its depth, roots at 0.
func Walk(nodes []TreeNode, fn func(node TreeNode, depth int)) {
	var walk func([]TreeNode, int)
	walk = func(level []TreeNode, depth int) {
		for _, n := range level {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
}
