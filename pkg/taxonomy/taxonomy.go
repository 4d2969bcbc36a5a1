package taxonomy

import (
	"fmt"
	"slices"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/matst80/rdf-finder/pkg/types"
)

type RootMode string

const (
	// RootList renders every uri of the statistics' rootClasses.
	RootList RootMode = "rootList"
	// SingleRoot renders the subtree below one well known class.
	SingleRoot RootMode = "singleRoot"
)

type Options struct {
	RootMode     RootMode `json:"rootMode"`
	RootSentinel string   `json:"rootSentinel"`
}

func DefaultOptions() Options {
	return Options{RootMode: RootList, RootSentinel: types.OwlThing}
}

// Node is one class in the arena. Children and Parents hold uris, never
// pointers, so multi parent graphs and cycles need no ownership.
type Node struct {
	URI            string   `json:"className"`
	LocalName      string   `json:"localName"`
	Label          string   `json:"label,omitempty"`
	Count          int      `json:"count"`
	InheritedCount int      `json:"inheritedCount"`
	Children       []string `json:"children"`
	Parents        []string `json:"parents"`
	Properties     []string `json:"properties"`
}

// DisplayLabel is the local name followed by the readable instance count, the
// raw count is added in parentheses when it differs from the inherited one.
func (n *Node) DisplayLabel() string {
	if n.InheritedCount != n.Count {
		return fmt.Sprintf("%s %s (%s)", n.LocalName, humanize.Comma(int64(n.InheritedCount)), humanize.Comma(int64(n.Count)))
	}
	return fmt.Sprintf("%s %s", n.LocalName, humanize.Comma(int64(n.Count)))
}

type Taxonomy struct {
	nodes   map[string]*Node
	roots   []string
	options Options
}

// Build resolves the flat class statistics into an arena. Children without
// statistics are pruned, the remaining ones are ranked by count, highest
// first, keeping the declared order for ties.
func Build(classes map[string]types.ClassStat, rootURIs []string, opts Options) *Taxonomy {
	if opts.RootMode == "" {
		opts.RootMode = RootList
	}
	if opts.RootSentinel == "" {
		opts.RootSentinel = types.OwlThing
	}
	t := &Taxonomy{
		nodes:   make(map[string]*Node, len(classes)),
		options: opts,
	}

	// sorted so parent order, and with it property inheritance order, is stable
	uris := make([]string, 0, len(classes))
	for uri := range classes {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	for _, uri := range uris {
		stat := classes[uri]
		localName := stat.LocalName
		if localName == "" {
			localName = types.LocalName(uri)
		}
		t.nodes[uri] = &Node{
			URI:            uri,
			LocalName:      localName,
			Label:          stat.Label,
			Count:          stat.Count,
			InheritedCount: stat.Inherited(),
			Children:       []string{},
			Parents:        []string{},
			Properties:     dedupe(stat.Properties),
		}
	}

	for _, uri := range uris {
		node := t.nodes[uri]
		for _, child := range classes[uri].Children {
			childNode, ok := t.nodes[child]
			if !ok || slices.Contains(node.Children, child) {
				continue
			}
			node.Children = append(node.Children, child)
			childNode.Parents = append(childNode.Parents, uri)
		}
		sort.SliceStable(node.Children, func(i, j int) bool {
			return t.nodes[node.Children[i]].Count > t.nodes[node.Children[j]].Count
		})
	}

	switch opts.RootMode {
	case SingleRoot:
		t.roots = []string{opts.RootSentinel}
	default:
		t.roots = slices.Clone(rootURIs)
	}
	return t
}

// FromStatistics builds the taxonomy of a dataset snapshot.
func FromStatistics(stats *types.Statistics, opts Options) *Taxonomy {
	if stats == nil {
		return Build(nil, nil, opts)
	}
	return Build(stats.Classes, stats.RootClasses, opts)
}

func (t *Taxonomy) Class(uri string) (*Node, bool) {
	node, ok := t.nodes[uri]
	return node, ok
}

// Count is the instance count of a class, zero for unknown classes.
func (t *Taxonomy) Count(uri string) int {
	if t == nil {
		return 0
	}
	if node, ok := t.nodes[uri]; ok {
		return node.Count
	}
	return 0
}

func (t *Taxonomy) Len() int {
	return len(t.nodes)
}

func (t *Taxonomy) Roots() []string {
	return slices.Clone(t.roots)
}

// ClassURIs lists every class uri in sorted order.
func (t *Taxonomy) ClassURIs() []string {
	ret := make([]string, 0, len(t.nodes))
	for uri := range t.nodes {
		ret = append(ret, uri)
	}
	sort.Strings(ret)
	return ret
}

// Properties returns the properties of a class followed by those inherited
// from its ancestors, walking parents breadth first.
func (t *Taxonomy) Properties(uri string) []string {
	if _, ok := t.nodes[uri]; !ok {
		return nil
	}
	ret := []string{}
	seenProperty := map[string]struct{}{}
	visited := map[string]struct{}{uri: {}}
	queue := []string{uri}
	for len(queue) > 0 {
		current := t.nodes[queue[0]]
		queue = queue[1:]
		for _, p := range current.Properties {
			if _, ok := seenProperty[p]; ok {
				continue
			}
			seenProperty[p] = struct{}{}
			ret = append(ret, p)
		}
		for _, parent := range current.Parents {
			if _, ok := visited[parent]; ok {
				continue
			}
			visited[parent] = struct{}{}
			queue = append(queue, parent)
		}
	}
	return ret
}

func dedupe(values []string) []string {
	ret := make([]string, 0, len(values))
	for _, v := range values {
		if !slices.Contains(ret, v) {
			ret = append(ret, v)
		}
	}
	return ret
}
