package types

import (
	"net/http"
	"net/url"

	"github.com/gorilla/schema"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 10000
)

// QueryState is the canonical, serializable description of the visible query.
// The schema tags are the hash keys.
type QueryState struct {
	DatasetId   string `json:"index" schema:"index,omitempty"`
	QueryText   string `json:"query" schema:"query,omitempty"`
	PageSize    int    `json:"pageSize" schema:"pageSize,default:10"`
	PageStart   int    `json:"pageStart" schema:"pageStart"`
	Dereference bool   `json:"deref" schema:"deref"`
}

// QueryPatch is a partial QueryState, nil fields are left untouched by Apply.
type QueryPatch struct {
	DatasetId   *string `json:"index,omitempty" schema:"index"`
	QueryText   *string `json:"query,omitempty" schema:"query"`
	PageSize    *int    `json:"pageSize,omitempty" schema:"pageSize"`
	PageStart   *int    `json:"pageStart,omitempty" schema:"pageStart"`
	Dereference *bool   `json:"deref,omitempty" schema:"deref"`
}

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

func DefaultQueryState() QueryState {
	return QueryState{PageSize: DefaultPageSize}
}

func clamp[T int | float64](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func (s *QueryState) Sanitize() {
	if s.PageSize == 0 {
		s.PageSize = DefaultPageSize
	}
	s.PageSize = clamp(s.PageSize, 1, MaxPageSize)
	if s.PageStart < 0 {
		s.PageStart = 0
	}
}

// HasQuery reports whether the state is complete enough to run a search.
func (s QueryState) HasQuery() bool {
	return s.DatasetId != "" && s.QueryText != ""
}

// CurrentPage is the one based page number pageStart falls on.
func (s QueryState) CurrentPage() int {
	if s.PageSize <= 0 {
		return 1
	}
	return s.PageStart/s.PageSize + 1
}

// Apply returns a copy of the state with every non nil patch field merged in.
func (s QueryState) Apply(p QueryPatch) QueryState {
	if p.DatasetId != nil {
		s.DatasetId = *p.DatasetId
	}
	if p.QueryText != nil {
		s.QueryText = *p.QueryText
	}
	if p.PageSize != nil {
		s.PageSize = *p.PageSize
	}
	if p.PageStart != nil {
		s.PageStart = *p.PageStart
	}
	if p.Dereference != nil {
		s.Dereference = *p.Dereference
	}
	s.Sanitize()
	return s
}

func (p QueryPatch) IsEmpty() bool {
	return p.DatasetId == nil && p.QueryText == nil && p.PageSize == nil && p.PageStart == nil && p.Dereference == nil
}

func Ptr[T any](v T) *T {
	return &v
}

// DecodeQueryState reads a state from url values, missing keys keep their defaults.
func DecodeQueryState(values url.Values) (QueryState, error) {
	state := DefaultQueryState()
	if err := decoder.Decode(&state, values); err != nil {
		return state, err
	}
	state.Sanitize()
	return state, nil
}

// DecodeQueryPatch reads the keys present in values into a patch.
func DecodeQueryPatch(values url.Values) (QueryPatch, error) {
	patch := QueryPatch{}
	err := decoder.Decode(&patch, values)
	return patch, err
}

func GetQueryPatchFromRequest(r *http.Request) (QueryPatch, error) {
	if r.Method == http.MethodGet {
		return DecodeQueryPatch(r.URL.Query())
	}
	if err := r.ParseForm(); err != nil {
		return QueryPatch{}, err
	}
	return DecodeQueryPatch(r.Form)
}
