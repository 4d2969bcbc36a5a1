package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matst80/rdf-finder/pkg/session"
	"github.com/matst80/rdf-finder/pkg/taxonomy"
)

const pollInterval = 25 * time.Millisecond

func printNotices(out io.Writer, notices []session.Notice) {
	for _, n := range notices {
		fmt.Fprintf(out, "[%s] %s\n", n.Level, n.Message)
	}
}

func printView(out io.Writer, v session.View, hash string) {
	printNotices(out, v.Notices)
	if v.Results == nil {
		fmt.Fprintln(out, "No results.")
		return
	}
	fmt.Fprintln(out, v.Results.Summary)
	fmt.Fprintln(out, "#"+hash)
	for i, item := range v.Results.Items {
		title := item.Label
		if title == "" {
			title = item.SubjectDisplay
		}
		badges := make([]string, 0, len(item.RankedTypeBadges))
		for _, b := range item.RankedTypeBadges {
			badges = append(badges, b.LocalName)
		}
		fmt.Fprintf(out, "\n%d. %s", v.State.PageStart+i+1, title)
		if len(badges) > 0 {
			fmt.Fprintf(out, " [%s]", strings.Join(badges, ", "))
		}
		fmt.Fprintln(out)
		for _, row := range item.PropertyRows {
			values := make([]string, 0, len(row.Values))
			for _, val := range row.Values {
				s := val.Label
				if val.SourceTag != "" {
					s += " (" + val.SourceTag + ")"
				}
				values = append(values, s)
			}
			fmt.Fprintf(out, "   %s: %s\n", row.PredicateLocalName, strings.Join(values, "; "))
		}
	}
	if v.Results.Pager.Status != "" {
		fmt.Fprintf(out, "\n%s (page %d of %d)\n", v.Results.Pager.Status, v.Results.Pager.CurrentPage, v.Results.Pager.TotalPages)
	}
}

func printTree(out io.Writer, tree []taxonomy.TreeNode) {
	taxonomy.Walk(tree, func(node taxonomy.TreeNode, depth int) {
		fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), node.Label)
	})
}
