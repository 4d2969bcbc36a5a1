package taxonomy

import (
	"fmt"
	"testing"

	"github.com/matst80/rdf-finder/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func class(count int, children ...string) types.ClassStat {
	return types.ClassStat{Count: count, Children: children}
}

func labels(nodes []TreeNode) []string {
	ret := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ret = append(ret, n.Label)
	}
	return ret
}

func TestSingleChildChain(t *testing.T) {
	tax := Build(map[string]types.ClassStat{
		"A": class(10, "B"),
		"B": class(4, "C"),
		"C": class(1),
	}, []string{"A"}, DefaultOptions())

	tree := tax.Tree()
	require.Len(t, tree, 1)
	a := tree[0]
	assert.Equal(t, "A 10", a.Label)
	require.Len(t, a.Children, 1)
	b := a.Children[0]
	assert.Equal(t, "B 4", b.Label)
	require.Len(t, b.Children, 1)
	c := b.Children[0]
	assert.Equal(t, "C 1", c.Label)
	assert.True(t, c.Leaf)
	assert.Empty(t, c.Children)
}

func TestChildrenRankedByCountStable(t *testing.T) {
	tax := Build(map[string]types.ClassStat{
		"http://x.org/Root": class(100, "http://x.org/a", "http://x.org/b", "http://x.org/c", "http://x.org/d"),
		"http://x.org/a":    class(5),
		"http://x.org/b":    class(50),
		"http://x.org/c":    class(5),
		"http://x.org/d":    class(7),
	}, []string{"http://x.org/Root"}, DefaultOptions())

	root, ok := tax.Class("http://x.org/Root")
	require.True(t, ok)
	assert.Equal(t, []string{"http://x.org/b", "http://x.org/d", "http://x.org/a", "http://x.org/c"}, root.Children)

	tree := tax.Tree()
	assert.Equal(t, []string{"b 50", "d 7", "a 5", "c 5"}, labels(tree[0].Children))
}

func TestDanglingChildrenPruned(t *testing.T) {
	tax := Build(map[string]types.ClassStat{
		"A": class(3, "ghost", "B"),
		"B": class(1),
	}, []string{"A"}, DefaultOptions())

	a, _ := tax.Class("A")
	assert.Equal(t, []string{"B"}, a.Children)
	b, _ := tax.Class("B")
	assert.Equal(t, []string{"A"}, b.Parents)
}

func TestCycleIsFinite(t *testing.T) {
	tax := Build(map[string]types.ClassStat{
		"A": class(2, "B"),
		"B": class(1, "A"),
		"S": class(1, "S"),
	}, []string{"A", "S"}, DefaultOptions())

	tree := tax.Tree()
	require.Len(t, tree, 2)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "B", tree[0].Children[0].URI)
	assert.True(t, tree[0].Children[0].Leaf)
	assert.True(t, tree[1].Leaf)

	// a cycle does not break property inheritance either
	assert.NotPanics(t, func() { tax.Properties("A") })
}

func TestMultipleParentsRenderedUnderEach(t *testing.T) {
	tax := Build(map[string]types.ClassStat{
		"Root":  class(10, "Left", "Right"),
		"Left":  class(6, "Child"),
		"Right": class(4, "Child"),
		"Child": class(2),
	}, []string{"Root"}, DefaultOptions())

	child, _ := tax.Class("Child")
	assert.Equal(t, []string{"Left", "Right"}, child.Parents)

	count, refs := 0, 0
	Walk(tax.Tree(), func(n TreeNode, depth int) {
		if n.URI == "Child" {
			count++
			assert.Equal(t, 2, depth)
			assert.Equal(t, "Child 2", n.Label)
			if n.Ref {
				refs++
			}
		}
	})
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, refs)
}

func TestSharedSubtreesExpandOnce(t *testing.T) {
	// a chain of diamonds: top_i -> {left_i, right_i} -> top_i+1
	const diamonds = 20
	classes := map[string]types.ClassStat{}
	edges := 0
	for i := 0; i < diamonds; i++ {
		top := fmt.Sprintf("top%d", i)
		left := fmt.Sprintf("left%d", i)
		right := fmt.Sprintf("right%d", i)
		next := fmt.Sprintf("top%d", i+1)
		classes[top] = class(1, left, right)
		classes[left] = class(1, next)
		classes[right] = class(1, next)
		edges += 4
	}
	classes[fmt.Sprintf("top%d", diamonds)] = class(1)

	tax := Build(classes, []string{"top0"}, DefaultOptions())
	rendered := 0
	expanded := map[string]int{}
	Walk(tax.Tree(), func(n TreeNode, depth int) {
		rendered++
		if !n.Ref {
			expanded[n.URI]++
		}
		if n.Ref {
			assert.Empty(t, n.Children)
		}
	})

	assert.LessOrEqual(t, rendered, edges+1)
	assert.Len(t, expanded, len(classes))
	for uri, n := range expanded {
		assert.Equal(t, 1, n, uri)
	}
}

func TestMissingRootIsEmptySubtree(t *testing.T) {
	tax := Build(map[string]types.ClassStat{"A": class(1)}, []string{"http://x.org/Nope", "A"}, DefaultOptions())
	tree := tax.Tree()
	require.Len(t, tree, 2)
	assert.True(t, tree[0].Missing)
	assert.Equal(t, "Nope", tree[0].Label)
	assert.Empty(t, tree[0].Children)
	assert.False(t, tree[1].Missing)
}

func TestSingleRootMode(t *testing.T) {
	classes := map[string]types.ClassStat{
		types.OwlThing: class(9, "A"),
		"A":            class(9),
		"Other":        class(1),
	}
	tax := Build(classes, []string{"Other"}, Options{RootMode: SingleRoot})
	assert.Equal(t, []string{types.OwlThing}, tax.Roots())
	tree := tax.Tree()
	require.Len(t, tree, 1)
	assert.Equal(t, "Thing 9", tree[0].Label)

	tax = Build(classes, nil, Options{RootMode: SingleRoot, RootSentinel: "Other"})
	assert.Equal(t, "Other 1", tax.Tree()[0].Label)
}

func TestLabelWithInheritedCount(t *testing.T) {
	tax := Build(map[string]types.ClassStat{
		"http://x.org/Person": {Count: 1200, InheritedCount: types.Ptr(15300)},
		"http://x.org/Place":  {Count: 7, InheritedCount: types.Ptr(7)},
	}, []string{"http://x.org/Person", "http://x.org/Place"}, DefaultOptions())

	assert.Equal(t, []string{"Person 15,300 (1,200)", "Place 7"}, labels(tax.Tree()))
}

func TestPropertiesInheritedBreadthFirst(t *testing.T) {
	tax := Build(map[string]types.ClassStat{
		"Thing":  {Count: 1, Children: []string{"Agent", "Named"}, Properties: []string{"name", "sameAs"}},
		"Agent":  {Count: 1, Children: []string{"Person"}, Properties: []string{"member"}},
		"Named":  {Count: 1, Children: []string{"Person"}, Properties: []string{"alias", "name"}},
		"Person": {Count: 1, Properties: []string{"birth", "Name", "birth"}},
	}, []string{"Thing"}, DefaultOptions())

	assert.Equal(t, []string{"birth", "Name", "member", "alias", "name", "sameAs"}, tax.Properties("Person"))
	assert.Equal(t, []string{"name", "sameAs"}, tax.Properties("Thing"))
	assert.Nil(t, tax.Properties("unknown"))
}

func TestCountAndClassURIs(t *testing.T) {
	tax := FromStatistics(&types.Statistics{Classes: map[string]types.ClassStat{
		"b": class(2),
		"a": class(5),
	}}, DefaultOptions())
	assert.Equal(t, []string{"a", "b"}, tax.ClassURIs())
	assert.Equal(t, 5, tax.Count("a"))
	assert.Equal(t, 0, tax.Count("zzz"))

	var empty *Taxonomy
	assert.Equal(t, 0, empty.Count("a"))
	assert.Empty(t, FromStatistics(nil, DefaultOptions()).Tree())
}
