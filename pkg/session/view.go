package session

import (
	"fmt"
	"strings"

	"github.com/matst80/rdf-finder/pkg/pager"
	"github.com/matst80/rdf-finder/pkg/result"
	"github.com/matst80/rdf-finder/pkg/taxonomy"
	"github.com/matst80/rdf-finder/pkg/types"
)

type ClassOption struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
	Depth int    `json:"depth"`
}

type PagerView struct {
	CurrentPage int          `json:"currentPage"`
	TotalPages  int          `json:"totalPages"`
	Status      string       `json:"status"`
	Links       []pager.Link `json:"links"`
}

type Results struct {
	Summary     string        `json:"summary"`
	NumResults  int           `json:"numResults"`
	Time        int64         `json:"time"`
	ParsedQuery string        `json:"parsedQuery,omitempty"`
	Items       []result.View `json:"items"`
	Pager       PagerView     `json:"pager"`
}

// View is everything the render layer needs for one paint.
type View struct {
	State             types.QueryState    `json:"state"`
	Hash              string              `json:"hash"`
	DataSets          []string            `json:"dataSets"`
	Dataset           string              `json:"dataset"`
	Classes           []taxonomy.TreeNode `json:"classes"`
	ClassOptions      []ClassOption       `json:"classOptions"`
	Fields            []string            `json:"fields"`
	Results           *Results            `json:"results,omitempty"`
	Initialized       bool                `json:"initialized"`
	LoadingStatistics bool                `json:"loadingStatistics"`
	LoadingResults    bool                `json:"loadingResults"`
	CanGoBack         bool                `json:"canGoBack"`
	CanGoForward      bool                `json:"canGoForward"`
	Notices           []Notice            `json:"notices"`
}

func Summary(numResults int, took int64) string {
	return fmt.Sprintf("Found %d results in %d ms.", numResults, took)
}

func classOptions(tree []taxonomy.TreeNode) []ClassOption {
	ret := make([]ClassOption, 0)
	taxonomy.Walk(tree, func(node taxonomy.TreeNode, depth int) {
		if node.Missing {
			return
		}
		ret = append(ret, ClassOption{
			URI:   node.URI,
			Label: strings.Repeat("  ", depth) + node.Label,
			Depth: depth,
		})
	})
	return ret
}

func newResults(res *types.QueryResult, st types.QueryState, items []result.View) *Results {
	p := pager.FromState(st, res.NumResults)
	return &Results{
		Summary:     Summary(res.NumResults, res.Time),
		NumResults:  res.NumResults,
		Time:        res.Time,
		ParsedQuery: res.ParsedQuery,
		Items:       items,
		Pager: PagerView{
			CurrentPage: p.Page(),
			TotalPages:  p.TotalPages(),
			Status:      p.Status(),
			Links:       p.Links(),
		},
	}
}
