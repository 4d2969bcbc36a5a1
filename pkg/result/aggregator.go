package result

import (
	"slices"
	"sort"
	"strings"

	"github.com/matst80/rdf-finder/pkg/query"
	"github.com/matst80/rdf-finder/pkg/types"
)

const (
	DefaultSourceTag = "default"
	uuidPrefix       = "urn:uuid:"
)

type ValueKind string

const (
	KindLiteral  ValueKind = "literal"
	KindLink     ValueKind = "link"
	KindDocument ValueKind = "document"
)

// ClassCounter ranks type badges, unknown classes count as zero.
type ClassCounter interface {
	Count(uri string) int
}

type TypeBadge struct {
	URI       string `json:"uri"`
	LocalName string `json:"localName"`
}

type Value struct {
	Object     string    `json:"object"`
	Label      string    `json:"label"`
	SourceTag  string    `json:"sourceTag"`
	Kind       ValueKind `json:"kind"`
	Href       string    `json:"href,omitempty"`
	Query      string    `json:"query,omitempty"`
	ChildDocId *int64    `json:"childDocId,omitempty"`
	ChildQuery string    `json:"childQuery,omitempty"`
}

type PropertyRow struct {
	Predicate          string  `json:"predicate"`
	PredicateLocalName string  `json:"predicateLocalName"`
	Parity             string  `json:"parity"`
	Values             []Value `json:"values"`
}

type View struct {
	Label            string        `json:"label,omitempty"`
	Subject          string        `json:"subject"`
	SubjectDisplay   string        `json:"subjectDisplay"`
	SubjectId        *int64        `json:"subjectId,omitempty"`
	Score            float64       `json:"score,omitempty"`
	RankedTypeBadges []TypeBadge   `json:"rankedTypeBadges"`
	PropertyRows     []PropertyRow `json:"propertyRows"`
}

type Aggregator struct {
	fields        map[string]int
	counter       ClassCounter
	typePredicate string
	providers     map[string]string
}

type Option func(*Aggregator)

// WithFields sets the canonical predicate order, usually FieldList.LongNames.
func WithFields(fields []string) Option {
	return func(a *Aggregator) {
		a.fields = make(map[string]int, len(fields))
		for i, f := range fields {
			if _, ok := a.fields[f]; !ok {
				a.fields[f] = i
			}
		}
	}
}

func WithClassCounter(counter ClassCounter) Option {
	return func(a *Aggregator) {
		a.counter = counter
	}
}

func WithTypePredicate(predicate string) Option {
	return func(a *Aggregator) {
		a.typePredicate = predicate
	}
}

// WithProviders maps relation context uris to display names.
func WithProviders(providers map[string]string) Option {
	return func(a *Aggregator) {
		a.providers = providers
	}
}

func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		fields:        map[string]int{},
		typePredicate: types.RdfType,
		providers:     map[string]string{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) AggregateAll(items []types.ResultItem) []View {
	ret := make([]View, 0, len(items))
	for _, item := range items {
		ret = append(ret, a.Aggregate(item))
	}
	return ret
}

func (a *Aggregator) Aggregate(item types.ResultItem) View {
	view := View{
		Label:            item.Label,
		Subject:          item.Subject,
		SubjectDisplay:   subjectDisplay(item.Subject),
		SubjectId:        item.SubjectId,
		Score:            item.Score,
		RankedTypeBadges: a.typeBadges(item.Relations),
		PropertyRows:     []PropertyRow{},
	}

	buckets := map[string][]types.Relation{}
	order := make([]string, 0)
	for _, rel := range item.Relations {
		if rel.Predicate == a.typePredicate {
			continue
		}
		if _, ok := buckets[rel.Predicate]; !ok {
			order = append(order, rel.Predicate)
		}
		buckets[rel.Predicate] = append(buckets[rel.Predicate], rel)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return a.position(order[i]) < a.position(order[j])
	})

	for i, predicate := range order {
		row := PropertyRow{
			Predicate:          predicate,
			PredicateLocalName: types.LocalName(predicate),
			Parity:             parity(i),
			Values:             make([]Value, 0, len(buckets[predicate])),
		}
		for _, rel := range buckets[predicate] {
			row.Values = append(row.Values, a.value(rel))
		}
		view.PropertyRows = append(view.PropertyRows, row)
	}
	return view
}

// position is the index of a predicate in the field list, matching either the
// raw uri or its encoded field name. Unknown predicates go last.
func (a *Aggregator) position(predicate string) int {
	if idx, ok := a.fields[predicate]; ok {
		return idx
	}
	if idx, ok := a.fields[types.EncodeFieldName(predicate)]; ok {
		return idx
	}
	return len(a.fields)
}

func (a *Aggregator) count(uri string) int {
	if a.counter == nil {
		return 0
	}
	return a.counter.Count(uri)
}

func (a *Aggregator) typeBadges(relations []types.Relation) []TypeBadge {
	seen := map[string]struct{}{}
	ret := make([]TypeBadge, 0)
	for _, rel := range relations {
		if rel.Predicate != a.typePredicate {
			continue
		}
		uri := types.StripVersion(rel.Object)
		if _, ok := seen[uri]; ok {
			continue
		}
		seen[uri] = struct{}{}
		ret = append(ret, TypeBadge{URI: uri, LocalName: types.LocalName(uri)})
	}
	counts := make(map[string]int, len(ret))
	for _, b := range ret {
		counts[b.URI] = a.count(b.URI)
	}
	slices.SortStableFunc(ret, func(x, y TypeBadge) int {
		return counts[y.URI] - counts[x.URI]
	})
	return ret
}

func (a *Aggregator) sourceTag(context types.StringList) string {
	ctx := context.First()
	if ctx == "" {
		return DefaultSourceTag
	}
	if name, ok := a.providers[ctx]; ok {
		return name
	}
	return types.LocalName(ctx)
}

func (a *Aggregator) value(rel types.Relation) Value {
	v := Value{
		Object:     rel.Object,
		Label:      rel.Label,
		SourceTag:  a.sourceTag(rel.Context),
		Kind:       KindLiteral,
		ChildDocId: rel.SubjectIdOfObject,
	}
	switch {
	case strings.HasPrefix(rel.Object, uuidPrefix):
		v.Kind = KindDocument
		id := strings.TrimPrefix(rel.Object, uuidPrefix)
		v.Query = query.SubjectQuery(id)
		if v.Label == "" {
			v.Label = id
		}
	case strings.HasPrefix(rel.Object, "http:"), strings.HasPrefix(rel.Object, "https:"):
		v.Kind = KindLink
		v.Href = rel.Object
	}
	if v.Label == "" {
		v.Label = rel.Object
	}
	if rel.SubjectIdOfObject != nil {
		v.ChildQuery = query.DocumentQuery(*rel.SubjectIdOfObject)
	}
	return v
}

func subjectDisplay(subject string) string {
	return strings.TrimPrefix(subject, uuidPrefix)
}

func parity(i int) string {
	if i%2 == 0 {
		return "even"
	}
	return "odd"
}
