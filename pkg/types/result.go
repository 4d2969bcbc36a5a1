package types

type Relation struct {
	Predicate         string     `json:"predicate"`
	Object            string     `json:"object"`
	Label             string     `json:"label,omitempty"`
	Context           StringList `json:"context,omitempty"`
	SubjectIdOfObject *int64     `json:"subjectIdOfObject,omitempty"`
	Indexed           bool       `json:"indexed,omitempty"`
}

type ResultItem struct {
	Subject   string     `json:"subject"`
	Label     string     `json:"label,omitempty"`
	SubjectId *int64     `json:"subjectId,omitempty"`
	Score     float64    `json:"score,omitempty"`
	Relations []Relation `json:"relations"`
}

type QueryResult struct {
	NumResults  int          `json:"numResults"`
	Time        int64        `json:"time"`
	PageSize    int          `json:"pageSize"`
	PageStart   int          `json:"pageStart"`
	Query       string       `json:"query,omitempty"`
	ParsedQuery string       `json:"parsedQuery,omitempty"`
	ResultItems []ResultItem `json:"resultItems"`
}

func (r *QueryResult) Normalize() {
	if r.ResultItems == nil {
		r.ResultItems = []ResultItem{}
	}
	for i := range r.ResultItems {
		if r.ResultItems[i].Relations == nil {
			r.ResultItems[i].Relations = []Relation{}
		}
	}
}

// QueryRequest holds the parameters of the backend query endpoint.
type QueryRequest struct {
	Index     string `schema:"index"`
	Query     string `schema:"query"`
	PageSize  int    `schema:"pageSize"`
	PageStart int    `schema:"pageStart"`
	Deref     bool   `schema:"deref"`
}

func NewQueryRequest(s QueryState) QueryRequest {
	return QueryRequest{
		Index:     s.DatasetId,
		Query:     s.QueryText,
		PageSize:  s.PageSize,
		PageStart: s.PageStart,
		Deref:     s.Dereference,
	}
}
