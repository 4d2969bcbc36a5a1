package result

import (
	"testing"

	"github.com/matst80/rdf-finder/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counts map[string]int

func (c counts) Count(uri string) int {
	return c[uri]
}

func rel(predicate, object string) types.Relation {
	return types.Relation{Predicate: predicate, Object: object}
}

func predicates(rows []PropertyRow) []string {
	ret := make([]string, 0, len(rows))
	for _, r := range rows {
		ret = append(ret, r.Predicate)
	}
	return ret
}

func TestRowsGroupedAndOrderedByFieldList(t *testing.T) {
	agg := NewAggregator(WithFields([]string{"name", "age"}))
	view := agg.Aggregate(types.ResultItem{
		Subject: "s",
		Relations: []types.Relation{
			rel("age", "3"),
			rel("name", "a"),
			rel("name", "b"),
		},
	})
	require.Len(t, view.PropertyRows, 2)
	assert.Equal(t, "name", view.PropertyRows[0].PredicateLocalName)
	assert.Equal(t, []string{"a", "b"}, []string{view.PropertyRows[0].Values[0].Object, view.PropertyRows[0].Values[1].Object})
	assert.Equal(t, "even", view.PropertyRows[0].Parity)
	assert.Equal(t, "odd", view.PropertyRows[1].Parity)
}

func TestUnknownPredicatesLastStable(t *testing.T) {
	agg := NewAggregator(WithFields([]string{"known"}))
	view := agg.Aggregate(types.ResultItem{Relations: []types.Relation{
		rel("zeta", "1"),
		rel("alpha", "2"),
		rel("known", "3"),
		rel("beta", "4"),
	}})
	assert.Equal(t, []string{"known", "zeta", "alpha", "beta"}, predicates(view.PropertyRows))
}

func TestPredicateMatchesEncodedFieldName(t *testing.T) {
	agg := NewAggregator(WithFields([]string{"http_xmlns_com_foaf_0_1_name", "http://x.org/first"}))
	view := agg.Aggregate(types.ResultItem{Relations: []types.Relation{
		rel("http://x.org/first", "1"),
		rel("http://xmlns.com/foaf/0.1/name", "2"),
	}})
	assert.Equal(t, []string{"http://xmlns.com/foaf/0.1/name", "http://x.org/first"}, predicates(view.PropertyRows))
}

func TestTypeBadgesRankedAndExcludedFromRows(t *testing.T) {
	agg := NewAggregator(WithClassCounter(counts{"X": 5, "Y": 20}))
	view := agg.Aggregate(types.ResultItem{Relations: []types.Relation{
		rel(types.RdfType, "X"),
		rel(types.RdfType, "Y"),
		rel(types.RdfType, "Z"),
		rel("name", "n"),
	}})
	uris := make([]string, 0)
	for _, b := range view.RankedTypeBadges {
		uris = append(uris, b.URI)
	}
	assert.Equal(t, []string{"Y", "X", "Z"}, uris)
	assert.Equal(t, []string{"name"}, predicates(view.PropertyRows))
}

func TestTypeBadgesVersionStrippedAndDeduplicated(t *testing.T) {
	agg := NewAggregator()
	view := agg.Aggregate(types.ResultItem{Relations: []types.Relation{
		rel(types.RdfType, "http://schema.org/1.2.3/Person"),
		rel(types.RdfType, "http://schema.org/Person"),
		rel(types.RdfType, "http://schema.org/Place"),
	}})
	require.Len(t, view.RankedTypeBadges, 2)
	assert.Equal(t, TypeBadge{URI: "http://schema.org/Person", LocalName: "Person"}, view.RankedTypeBadges[0])
	assert.Equal(t, "http://schema.org/Place", view.RankedTypeBadges[1].URI)
}

func TestValueKindsAndSourceTags(t *testing.T) {
	child := int64(77)
	agg := NewAggregator(WithProviders(map[string]string{"http://src.org/wiki": "Wikipedia"}))
	view := agg.Aggregate(types.ResultItem{
		Subject: "urn:uuid:abc",
		Relations: []types.Relation{
			{Predicate: "p", Object: "plain", Context: types.StringList{"http://src.org/wiki"}},
			{Predicate: "p", Object: "http://x.org/a", Context: types.StringList{"http://other.org/feeds#crawl"}},
			{Predicate: "p", Object: "urn:uuid:123", SubjectIdOfObject: &child},
		},
	})
	assert.Equal(t, "abc", view.SubjectDisplay)
	values := view.PropertyRows[0].Values
	require.Len(t, values, 3)

	assert.Equal(t, KindLiteral, values[0].Kind)
	assert.Equal(t, "plain", values[0].Label)
	assert.Equal(t, "Wikipedia", values[0].SourceTag)

	assert.Equal(t, KindLink, values[1].Kind)
	assert.Equal(t, "http://x.org/a", values[1].Href)
	assert.Equal(t, "crawl", values[1].SourceTag)

	assert.Equal(t, KindDocument, values[2].Kind)
	assert.Equal(t, "123", values[2].Label)
	assert.Equal(t, "doc:123", values[2].Query)
	assert.Equal(t, DefaultSourceTag, values[2].SourceTag)
	assert.Equal(t, "doc:77", values[2].ChildQuery)
}

func TestEmptyItem(t *testing.T) {
	views := NewAggregator().AggregateAll([]types.ResultItem{{Subject: "s"}})
	require.Len(t, views, 1)
	assert.Empty(t, views[0].PropertyRows)
	assert.Empty(t, views[0].RankedTypeBadges)
}
