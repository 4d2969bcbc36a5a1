package query

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/matst80/rdf-finder/pkg/types"
)

const DocPseudoField = "doc:"

var (
	ErrNoClass    = errors.New("no class selected")
	ErrEmptyQuery = errors.New("empty query")
)

type PropertyValue struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// ClassQuery is the structured input of the class and property form.
type ClassQuery struct {
	Class      string          `json:"class"`
	Properties []PropertyValue `json:"properties"`
}

// FromForm orders the filled in form values by the class' property list,
// values for properties the class does not expose are appended in key order.
func FromForm(class string, properties []string, values map[string]string) ClassQuery {
	q := ClassQuery{Class: class}
	used := map[string]struct{}{}
	for _, p := range properties {
		if v, ok := values[p]; ok {
			q.Properties = append(q.Properties, PropertyValue{Property: p, Value: v})
			used[p] = struct{}{}
		}
	}
	rest := make([]string, 0)
	for p := range values {
		if _, ok := used[p]; !ok {
			rest = append(rest, p)
		}
	}
	slices.Sort(rest)
	for _, p := range rest {
		q.Properties = append(q.Properties, PropertyValue{Property: p, Value: values[p]})
	}
	return q
}

// String composes type:{class} (predicate:{p} ^ object:v) ..., properties
// left blank are omitted.
func (q ClassQuery) String() string {
	parts := make([]string, 0, len(q.Properties)+1)
	parts = append(parts, "type:{"+Escape(q.Class)+"}")
	for _, p := range q.Properties {
		if strings.TrimSpace(p.Value) == "" {
			continue
		}
		parts = append(parts, "(predicate:{"+Escape(p.Property)+"} ^ object:"+Escape(p.Value)+")")
	}
	return strings.Join(parts, " ")
}

func Compose(q ClassQuery) (string, error) {
	if strings.TrimSpace(q.Class) == "" {
		return "", ErrNoClass
	}
	return q.String(), nil
}

// Unified passes the free text box through untouched.
func Unified(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyQuery
	}
	return text, nil
}

func DocumentQuery(id int64) string {
	return DocPseudoField + strconv.FormatInt(id, 10)
}

func SubjectQuery(subject string) string {
	return DocPseudoField + subject
}

// Reset is the state patch of a new query, a new query always starts on the
// first page.
func Reset(queryText string) types.QueryPatch {
	return types.QueryPatch{
		QueryText: types.Ptr(queryText),
		PageStart: types.Ptr(0),
	}
}
