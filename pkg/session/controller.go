package session

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/rdf-finder/pkg/client"
	"github.com/matst80/rdf-finder/pkg/pager"
	"github.com/matst80/rdf-finder/pkg/query"
	"github.com/matst80/rdf-finder/pkg/result"
	"github.com/matst80/rdf-finder/pkg/state"
	"github.com/matst80/rdf-finder/pkg/taxonomy"
	"github.com/matst80/rdf-finder/pkg/tracking"
	"github.com/matst80/rdf-finder/pkg/types"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	ErrStopped      = errors.New("controller stopped")
	ErrNoStatistics = errors.New("statistics not loaded")
	ErrUnknownClass = errors.New("unknown class")

	staleResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finder_stale_responses_total",
		Help: "Backend responses dropped because a newer request superseded them",
	}, []string{"kind"})
)

// Controller owns one browsing session. A single loop goroutine holds the
// dataset list, the statistics snapshot and the last result, every store
// mutation runs on it. Backend calls run on a worker pool and report back
// through the loop, tagged with the generation they were issued for.
type Controller struct {
	backend   client.Backend
	store     *state.Store
	pool      *ants.Pool
	poolSize  int
	events    chan func()
	done      chan struct{}
	ctx       context.Context
	logger    *zap.Logger
	tracker   tracking.Tracking
	notifier  Notifier
	taxOpts   taxonomy.Options
	providers map[string]string
	timeout   time.Duration
	sessionId string

	datasets       []string
	datasetsLoaded bool
	datasetsFailed bool
	statsDataset   string
	stats          *types.Statistics
	tax            *taxonomy.Taxonomy
	tree           []taxonomy.TreeNode
	options        []ClassOption
	aggregator     *result.Aggregator
	result         *types.QueryResult
	resultState    types.QueryState
	items          []result.View
	statsGen       uint64
	resultsGen     uint64
	cancelResults  context.CancelFunc
	pendingState   types.QueryState
	loadingStats   bool
	loadingResults bool
	notices        []Notice
	unsubscribe    func()
}

type Option func(*Controller)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithPoolSize(size int) Option {
	return func(c *Controller) {
		c.poolSize = max(size, 1)
	}
}

func WithTracking(trk tracking.Tracking) Option {
	return func(c *Controller) {
		if trk != nil {
			c.tracker = trk
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

func WithTaxonomyOptions(opts taxonomy.Options) Option {
	return func(c *Controller) {
		c.taxOpts = opts
	}
}

// WithProviders maps relation contexts to source names shown next to values.
func WithProviders(providers map[string]string) Option {
	return func(c *Controller) {
		c.providers = providers
	}
}

// WithRequestTimeout bounds every backend call.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.timeout = timeout
	}
}

// WithSessionId ties the controller to an existing browser session.
func WithSessionId(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.sessionId = id
		}
	}
}

func New(backend client.Backend, store *state.Store, opts ...Option) (*Controller, error) {
	c := &Controller{
		backend:   backend,
		store:     store,
		poolSize:  max(runtime.NumCPU(), 8),
		events:    make(chan func(), 64),
		done:      make(chan struct{}),
		ctx:       context.Background(),
		logger:    zap.NewNop(),
		tracker:   tracking.Noop{},
		taxOpts:   taxonomy.DefaultOptions(),
		providers: map[string]string{},
		timeout:   30 * time.Second,
		sessionId: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	pool, err := ants.NewPool(c.poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("worker pool: %w", err)
	}
	c.pool = pool
	c.aggregator = result.NewAggregator(result.WithProviders(c.providers))
	return c, nil
}

func (c *Controller) SessionId() string {
	return c.sessionId
}

// Run drives the loop until ctx is done. It loads the dataset list first and
// then follows the store.
func (c *Controller) Run(ctx context.Context) error {
	c.ctx = ctx
	c.unsubscribe = c.store.OnChange(c.onChange)
	defer func() {
		c.unsubscribe()
		close(c.done)
		c.pool.Release()
	}()

	c.loadDataSets()
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-c.events:
			fn()
		}
	}
}

// enqueue hands fn to the loop, it is dropped once the loop has stopped.
func (c *Controller) enqueue(fn func()) {
	select {
	case c.events <- fn:
	case <-c.done:
	}
}

// do runs fn on the loop and waits for it.
func (c *Controller) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case c.events <- task:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch runs call on the pool with a context bounded by the request
// timeout. An overloaded or released pool is reported through fail on the
// loop. The returned cancel aborts the call.
func (c *Controller) dispatch(call func(ctx context.Context), fail func(error)) context.CancelFunc {
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	err := c.pool.Submit(func() {
		defer cancel()
		call(ctx)
	})
	if err != nil {
		cancel()
		fail(err)
	}
	return cancel
}

func (c *Controller) notify(level Level, message string) {
	n := newNotice(level, message)
	c.notices = append(c.notices, n)
	if len(c.notices) > maxNotices {
		c.notices = slices.Clone(c.notices[len(c.notices)-maxNotices:])
	}
	if c.notifier != nil {
		c.notifier.Notify(n)
	}
	c.logger.Info("notice", zap.String("level", string(level)), zap.String("message", message))
}

func (c *Controller) loadDataSets() {
	c.dispatch(func(ctx context.Context) {
		sets, err := c.backend.DataSets(ctx)
		c.enqueue(func() {
			c.onDataSets(sets, err)
		})
	}, func(err error) {
		c.onDataSets(nil, err)
	})
}

func (c *Controller) onDataSets(sets []string, err error) {
	if err != nil {
		c.logger.Error("loading datasets failed", zap.Error(err))
		c.datasetsFailed = true
		c.notify(LevelError, fmt.Sprintf("Could not load the dataset list: %v", err))
		return
	}
	c.datasets = sets
	c.datasetsLoaded = true
	c.datasetsFailed = false
	c.reconcile(c.store.Get())
}

func (c *Controller) onChange(change state.Change) {
	c.reconcile(change.Current)
}

func (c *Controller) defaultDataset() string {
	if len(c.datasets) == 0 {
		return ""
	}
	return c.datasets[0]
}

func (c *Controller) effectiveDataset(st types.QueryState) string {
	if st.DatasetId != "" {
		return st.DatasetId
	}
	return c.defaultDataset()
}

// reconcile brings the loaded statistics and results in line with st.
func (c *Controller) reconcile(st types.QueryState) {
	if !c.datasetsLoaded {
		return
	}
	if st.DatasetId != "" && !slices.Contains(c.datasets, st.DatasetId) {
		c.notify(LevelWarning, fmt.Sprintf("The given index named %s was not found on the server.", st.DatasetId))
		c.logger.Warn("unknown dataset", zap.String("dataset", st.DatasetId), zap.Error(client.ErrUnknownDataset))
		// the fallback replaces the invalid entry and reconciles on its own
		c.store.Replace(types.QueryPatch{DatasetId: types.Ptr(c.defaultDataset())})
		return
	}

	if st.DatasetId == "" && st.QueryText != "" && c.defaultDataset() != "" {
		// a query without a dataset runs against the default one
		c.store.Replace(types.QueryPatch{DatasetId: types.Ptr(c.defaultDataset())})
		return
	}

	dataset := c.effectiveDataset(st)
	if dataset != "" && dataset != c.statsDataset {
		c.loadStatistics(dataset)
	}

	if st.HasQuery() {
		switch {
		case c.loadingResults && c.pendingState == st:
		case !c.loadingResults && c.result != nil && c.resultState == st:
		default:
			c.loadResults(st)
		}
		return
	}
	// nothing to show, invalidate anything in flight
	c.abortResults()
	c.resultsGen++
	c.loadingResults = false
	c.result = nil
	c.items = nil
}

func (c *Controller) loadStatistics(dataset string) {
	c.statsGen++
	gen := c.statsGen
	c.statsDataset = dataset
	c.stats = nil
	c.tax = nil
	c.tree = nil
	c.options = nil
	c.aggregator = result.NewAggregator(result.WithProviders(c.providers))
	c.loadingStats = true
	c.dispatch(func(ctx context.Context) {
		stats, err := c.backend.Statistics(ctx, dataset)
		c.enqueue(func() {
			c.onStatistics(gen, dataset, stats, err)
		})
	}, func(err error) {
		c.onStatistics(gen, dataset, nil, err)
	})
}

func (c *Controller) onStatistics(gen uint64, dataset string, stats *types.Statistics, err error) {
	if gen != c.statsGen {
		staleResponses.WithLabelValues("statistics").Inc()
		c.logger.Debug("dropping stale statistics", zap.String("dataset", dataset), zap.Uint64("generation", gen))
		return
	}
	c.loadingStats = false
	if err != nil {
		c.logger.Error("loading statistics failed", zap.String("dataset", dataset), zap.Error(err))
		c.notify(LevelError, fmt.Sprintf("Could not load statistics for %s: %v", dataset, err))
		return
	}
	c.stats = stats
	c.tax = taxonomy.FromStatistics(stats, c.taxOpts)
	// rendered once per snapshot, views share it read only
	c.tree = c.tax.Tree()
	c.options = classOptions(c.tree)
	c.aggregator = result.NewAggregator(
		result.WithFields(stats.Fields.LongNames()),
		result.WithClassCounter(c.tax),
		result.WithProviders(c.providers),
	)
	if c.result != nil {
		c.items = c.aggregator.AggregateAll(c.result.ResultItems)
	}
}

func (c *Controller) abortResults() {
	if c.cancelResults != nil {
		c.cancelResults()
		c.cancelResults = nil
	}
}

func (c *Controller) loadResults(st types.QueryState) {
	c.abortResults()
	c.resultsGen++
	gen := c.resultsGen
	c.loadingResults = true
	c.pendingState = st
	c.cancelResults = c.dispatch(func(ctx context.Context) {
		res, err := c.backend.Query(ctx, types.NewQueryRequest(st))
		c.enqueue(func() {
			c.onResults(gen, st, res, err)
		})
	}, func(err error) {
		c.onResults(gen, st, nil, err)
	})
}

func (c *Controller) onResults(gen uint64, st types.QueryState, res *types.QueryResult, err error) {
	if gen != c.resultsGen {
		staleResponses.WithLabelValues("results").Inc()
		c.logger.Debug("dropping stale results", zap.String("query", st.QueryText), zap.Uint64("generation", gen))
		return
	}
	c.loadingResults = false
	c.cancelResults = nil
	if err != nil {
		c.logger.Error("query failed", zap.String("query", st.QueryText), zap.Error(err))
		c.notify(LevelError, fmt.Sprintf("The query failed: %v", err))
		return
	}
	c.result = res
	c.resultState = st
	c.items = c.aggregator.AggregateAll(res.ResultItems)
	c.track(st, res)
}

func (c *Controller) track(st types.QueryState, res *types.QueryResult) {
	event := tracking.SearchEvent{
		Dataset:         st.DatasetId,
		Query:           st.QueryText,
		Page:            st.CurrentPage(),
		PageSize:        st.PageSize,
		NumberOfResults: res.NumResults,
		TookMs:          res.Time,
	}
	trk, sessionId, logger := c.tracker, c.sessionId, c.logger
	err := c.pool.Submit(func() {
		if err := trk.TrackSearch(sessionId, event); err != nil {
			logger.Warn("tracking search failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Warn("tracking search not dispatched", zap.Error(err))
	}
}

// withDataset fills in the effective dataset when neither the patch nor the
// state carries one, a query needs both.
func (c *Controller) withDataset(patch types.QueryPatch) types.QueryPatch {
	if patch.DatasetId == nil && c.store.Get().DatasetId == "" {
		if ds := c.defaultDataset(); ds != "" {
			patch.DatasetId = types.Ptr(ds)
		}
	}
	return patch
}

type SearchForm struct {
	Query   string `json:"query" schema:"query"`
	Dataset string `json:"index" schema:"index"`
	Deref   *bool  `json:"deref" schema:"deref"`
}

// Search runs the free text query, starting on the first page.
func (c *Controller) Search(ctx context.Context, form SearchForm) error {
	text, err := query.Unified(form.Query)
	if err != nil {
		return err
	}
	patch := query.Reset(text)
	if form.Dataset != "" {
		patch.DatasetId = types.Ptr(form.Dataset)
	}
	patch.Dereference = form.Deref
	return c.do(ctx, func() {
		c.store.Set(c.withDataset(patch))
	})
}

func (c *Controller) SearchByClass(ctx context.Context, q query.ClassQuery) error {
	text, err := query.Compose(q)
	if err != nil {
		return err
	}
	return c.do(ctx, func() {
		c.store.Set(c.withDataset(query.Reset(text)))
	})
}

func (c *Controller) SelectDataset(ctx context.Context, dataset string) error {
	return c.do(ctx, func() {
		c.store.Set(types.QueryPatch{DatasetId: types.Ptr(dataset), PageStart: types.Ptr(0)})
	})
}

// OpenDocument searches for the single document with the given subject id.
func (c *Controller) OpenDocument(ctx context.Context, id int64) error {
	text := query.DocumentQuery(id)
	return c.do(ctx, func() {
		patch := c.withDataset(query.Reset(text))
		c.store.Set(patch)
		event := tracking.DocumentEvent{Dataset: c.store.Get().DatasetId, Query: text}
		trk, sessionId, logger := c.tracker, c.sessionId, c.logger
		if err := c.pool.Submit(func() {
			if err := trk.TrackDocument(sessionId, event); err != nil {
				logger.Warn("tracking document failed", zap.Error(err))
			}
		}); err != nil {
			logger.Warn("tracking document not dispatched", zap.Error(err))
		}
	})
}

func (c *Controller) SelectPage(ctx context.Context, page int) error {
	return c.do(ctx, func() {
		st := c.store.Get()
		total := 0
		if c.result != nil {
			total = c.result.NumResults
		}
		pager.FromState(st, total).Select(page, st, c.store)
	})
}

// Navigate follows an externally changed hash.
func (c *Controller) Navigate(ctx context.Context, hash string) error {
	var navErr error
	err := c.do(ctx, func() {
		navErr = c.store.Navigate(hash)
		if navErr != nil {
			c.notify(LevelWarning, fmt.Sprintf("Ignoring malformed location %q", hash))
		}
	})
	if err != nil {
		return err
	}
	return navErr
}

func (c *Controller) Back(ctx context.Context) (bool, error) {
	var moved bool
	err := c.do(ctx, func() {
		moved = c.store.Back()
	})
	return moved, err
}

func (c *Controller) Forward(ctx context.Context) (bool, error) {
	var moved bool
	err := c.do(ctx, func() {
		moved = c.store.Forward()
	})
	return moved, err
}

// Refresh reloads the dataset list and with it statistics and results.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.do(ctx, func() {
		c.statsDataset = ""
		c.result = nil
		c.datasetsLoaded = false
		c.datasetsFailed = false
		c.loadDataSets()
	})
}

// Properties lists the form fields of a class, inherited ones included.
func (c *Controller) Properties(ctx context.Context, class string) ([]string, error) {
	var props []string
	var propErr error
	err := c.do(ctx, func() {
		if c.tax == nil {
			propErr = ErrNoStatistics
			return
		}
		if _, ok := c.tax.Class(class); !ok {
			propErr = fmt.Errorf("%w: %s", ErrUnknownClass, class)
			return
		}
		props = c.tax.Properties(class)
	})
	if err != nil {
		return nil, err
	}
	return props, propErr
}

func (c *Controller) DismissNotice(ctx context.Context, id string) error {
	return c.do(ctx, func() {
		c.notices = slices.DeleteFunc(c.notices, func(n Notice) bool {
			return n.Id == id
		})
	})
}

func (c *Controller) View(ctx context.Context) (View, error) {
	var v View
	err := c.do(ctx, func() {
		v = c.snapshot()
	})
	return v, err
}

func (c *Controller) snapshot() View {
	st := c.store.Get()
	entries, pos := c.store.History()
	v := View{
		State:             st,
		Hash:              c.store.Hash(),
		DataSets:          slices.Clone(c.datasets),
		Dataset:           c.statsDataset,
		Classes:           []taxonomy.TreeNode{},
		ClassOptions:      []ClassOption{},
		Fields:            []string{},
		Initialized:       c.datasetsLoaded || c.datasetsFailed,
		LoadingStatistics: c.loadingStats,
		LoadingResults:    c.loadingResults,
		CanGoBack:         pos > 0,
		CanGoForward:      pos < len(entries)-1,
		Notices:           slices.Clone(c.notices),
	}
	if v.DataSets == nil {
		v.DataSets = []string{}
	}
	if v.Notices == nil {
		v.Notices = []Notice{}
	}
	if c.tree != nil {
		v.Classes = c.tree
		v.ClassOptions = c.options
	}
	if c.stats != nil {
		v.Fields = c.stats.Fields.ShortNames()
	}
	if c.result != nil {
		v.Results = newResults(c.result, c.resultState, c.items)
	}
	return v
}

// WaitIdle polls until the dataset list has been answered and neither
// statistics nor results are loading, and returns the view at that point.
func (c *Controller) WaitIdle(ctx context.Context, interval time.Duration) (View, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		v, err := c.View(ctx)
		if err != nil {
			return v, err
		}
		if v.Initialized && !v.LoadingResults && !v.LoadingStatistics {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-ticker.C:
		}
	}
}
