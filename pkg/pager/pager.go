package pager

import (
	"fmt"

	"github.com/matst80/rdf-finder/pkg/types"
)

const DefaultMaxWindow = 8

type LinkKind string

const (
	LinkFirst    LinkKind = "first"
	LinkPrevious LinkKind = "previous"
	LinkPage     LinkKind = "page"
	LinkNext     LinkKind = "next"
)

type Link struct {
	Kind    LinkKind `json:"kind"`
	Page    int      `json:"page"`
	Current bool     `json:"current,omitempty"`
}

// StateSetter is the part of the state store a page selection writes to.
type StateSetter interface {
	Set(patch types.QueryPatch)
}

type SelectFunc func(targetPage int, state types.QueryState)

type Pager struct {
	PageSize    int `json:"pageSize"`
	TotalItems  int `json:"totalItems"`
	CurrentPage int `json:"currentPage"`
	MaxWindow   int `json:"maxWindow"`

	onSelect SelectFunc
}

func New(pageSize, totalItems, currentPage int) *Pager {
	return &Pager{
		PageSize:    pageSize,
		TotalItems:  totalItems,
		CurrentPage: currentPage,
		MaxWindow:   DefaultMaxWindow,
	}
}

func FromState(state types.QueryState, totalItems int) *Pager {
	return New(state.PageSize, totalItems, state.CurrentPage())
}

func (p *Pager) TotalPages() int {
	if p.PageSize <= 0 || p.TotalItems <= 0 {
		return 0
	}
	return (p.TotalItems + p.PageSize - 1) / p.PageSize
}

func (p *Pager) maxWindow() int {
	if p.MaxWindow <= 0 {
		return DefaultMaxWindow
	}
	return p.MaxWindow
}

// Page is the current page clamped to [1, TotalPages].
func (p *Pager) Page() int {
	return clamp(p.CurrentPage, 1, max(p.TotalPages(), 1))
}

// Window lists the page numbers to render around the current page. It grows
// one step per distance on both sides and stops when full or when distance
// reaches the window size, so near the edges it only grows inwards.
func (p *Pager) Window() []int {
	total := p.TotalPages()
	if total <= 1 {
		return []int{}
	}
	limit := p.maxWindow()
	current := p.Page()
	window := []int{current}
	for distance := 1; distance < limit && len(window) < limit; distance++ {
		if current-distance >= 1 {
			window = append([]int{current - distance}, window...)
		}
		if len(window) < limit && current+distance <= total {
			window = append(window, current+distance)
		}
	}
	return window
}

func (p *Pager) Links() []Link {
	total := p.TotalPages()
	if total <= 1 {
		return []Link{}
	}
	current := p.Page()
	ret := make([]Link, 0, p.maxWindow()+3)
	if current > 1 {
		ret = append(ret, Link{Kind: LinkFirst, Page: 1}, Link{Kind: LinkPrevious, Page: current - 1})
	}
	for _, page := range p.Window() {
		ret = append(ret, Link{Kind: LinkPage, Page: page, Current: page == current})
	}
	if current < total {
		ret = append(ret, Link{Kind: LinkNext, Page: current + 1})
	}
	return ret
}

func (p *Pager) Status() string {
	if p.TotalPages() == 0 {
		return ""
	}
	from := (p.Page()-1)*p.PageSize + 1
	to := min(from+p.PageSize-1, p.TotalItems)
	return fmt.Sprintf("Showing results %d to %d of %d", from, to, p.TotalItems)
}

// OnSelect registers the single page selection callback, replacing any
// earlier one.
func (p *Pager) OnSelect(fn SelectFunc) {
	p.onSelect = fn
}

// Select clamps the target page and hands it to the registered callback,
// without one the store is moved to the page's first item.
func (p *Pager) Select(targetPage int, state types.QueryState, store StateSetter) {
	target := clamp(targetPage, 1, max(p.TotalPages(), 1))
	if p.onSelect != nil {
		p.onSelect(target, state)
		return
	}
	if store != nil {
		store.Set(types.QueryPatch{PageStart: types.Ptr((target - 1) * p.PageSize)})
	}
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
