package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/matst80/rdf-finder/pkg/query"
	"github.com/matst80/rdf-finder/pkg/session"
	"github.com/matst80/rdf-finder/pkg/state"
	"github.com/matst80/rdf-finder/pkg/types"
	"github.com/spf13/cobra"
)

type searchFlags struct {
	index    string
	hash     string
	class    string
	props    []string
	page     int
	pageSize int
	deref    bool
	asJson   bool
}

func newSearchCmd() *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run one query and print the aggregated results",
		Example: `  finder search --index dbpedia 'name:"tad smith"'
  finder search --index dbpedia --class http://schema.org/Person --prop http://schema.org/name=tad
  finder search --hash '!index=dbpedia&query=tad&pageStart=10'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) == 1 {
				text = args[0]
			}
			return runSearch(cmd.Context(), cmd.OutOrStdout(), f, text)
		},
	}
	cmd.Flags().StringVar(&f.index, "index", "", "dataset to search, the first one when empty")
	cmd.Flags().StringVar(&f.hash, "hash", "", "restore a complete state from a location hash")
	cmd.Flags().StringVar(&f.class, "class", "", "class uri for a structured query")
	cmd.Flags().StringArrayVar(&f.props, "prop", nil, "property=value restriction for --class, repeatable")
	cmd.Flags().IntVar(&f.page, "page", 1, "page to show")
	cmd.Flags().IntVar(&f.pageSize, "page-size", types.DefaultPageSize, "results per page")
	cmd.Flags().BoolVar(&f.deref, "deref", false, "ask the backend to dereference linked documents")
	cmd.Flags().BoolVar(&f.asJson, "json", false, "print the view as json")
	return cmd
}

func parseProps(class string, props []string) (query.ClassQuery, error) {
	q := query.ClassQuery{Class: class}
	for _, p := range props {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return q, fmt.Errorf("property %q: expected property=value", p)
		}
		q.Properties = append(q.Properties, query.PropertyValue{Property: key, Value: value})
	}
	return q, nil
}

func runSearch(ctx context.Context, out io.Writer, f *searchFlags, text string) error {
	if err := a.connect(ctx); err != nil {
		return err
	}
	defer a.close()

	hash := f.hash
	if hash == "" {
		hash = state.Serialize(types.QueryState{DatasetId: f.index, PageSize: f.pageSize, Dereference: f.deref})
	}
	ctrl, store, stop, err := a.runController(ctx, hash)
	if err != nil {
		return err
	}
	defer stop()

	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.Backend.Timeout)
	defer cancel()
	if _, err := ctrl.WaitIdle(waitCtx, pollInterval); err != nil {
		return err
	}

	switch {
	case f.class != "":
		q, err := parseProps(f.class, f.props)
		if err != nil {
			return err
		}
		err = ctrl.SearchByClass(ctx, q)
		if err != nil {
			return err
		}
	case text != "":
		if err := ctrl.Search(ctx, session.SearchForm{Query: text}); err != nil {
			return err
		}
	case f.hash == "":
		return errors.New("nothing to search, pass a query, --class or --hash")
	}
	if f.page > 1 {
		if _, err := ctrl.WaitIdle(waitCtx, pollInterval); err != nil {
			return err
		}
		if err := ctrl.SelectPage(ctx, f.page); err != nil {
			return err
		}
	}

	v, err := ctrl.WaitIdle(waitCtx, pollInterval)
	if err != nil {
		return err
	}
	if f.asJson {
		data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	printView(out, v, store.Hash())
	return nil
}
