// Package pager drives cursor-based paging of one resource kind: it owns the
// fetch attempt, the current page and the stack of visited start keys.
package pager

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/openziti/rbrowse/kernel/metrics"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Option func(c *Controller)

// WithReusableCursors selects how FetchPrev steps back. With reusable cursors
// the recorded start key is sent again; otherwise paging replays from the
// first page.
func WithReusableCursors(reusable bool) Option {
	return func(c *Controller) {
		c.reusable = reusable
	}
}

// WithPageCache keeps up to size pages of the current filter so that
// next/prev steps can skip the backend.
func WithPageCache(size int) Option {
	return func(c *Controller) {
		if size <= 0 {
			c.cache = nil
			return
		}
		cache, err := lru.New[int, cachedPage](size)
		if err != nil {
			c.log.WithError(err).Warn("page cache disabled")
			return
		}
		c.cache = cache
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

type cachedPage struct {
	startKey string
	page     model.FetchedPage
}

// Controller pages through one kind. Every issued request gets a sequence
// number and only the latest one may change the page or the attempt.
// Superseded requests run to completion and their results are dropped.
//
// Cursors belong to the filter the current page was fetched with. From the
// moment a new filter is issued until its first page lands, next and prev
// are unavailable, and they stay unavailable if that fetch fails.
type Controller struct {
	mu        sync.Mutex
	kind      model.ResourceKind
	clusterId string
	limit     int
	fetch     model.FetchFunc
	reusable  bool
	filter    model.ResourceFilter
	stale     bool
	attempt   model.FetchAttempt
	page      model.FetchedPage
	startKeys []string
	seq       uint64
	cache     *lru.Cache[int, cachedPage]
	recorder  metrics.Recorder
	log       logrus.FieldLogger
}

func New(kind model.ResourceKind, clusterId string, limit int, fetch model.FetchFunc, opts ...Option) *Controller {
	if limit <= 0 {
		limit = model.DefaultPageSize
	}
	c := &Controller{
		kind:      kind,
		clusterId: clusterId,
		limit:     limit,
		fetch:     fetch,
		recorder:  metrics.Nop,
		log:       logrus.WithField("component", "pager"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("kind", kind)
	return c
}

// Retarget points the controller at another kind. Requests in flight are
// superseded and the page, cursors and attempt are cleared.
func (c *Controller) Retarget(kind model.ResourceKind, fetch model.FetchFunc, reusable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.kind = kind
	c.fetch = fetch
	c.reusable = reusable
	c.filter = model.ResourceFilter{}
	c.stale = false
	c.attempt = model.FetchAttempt{}
	c.page = model.FetchedPage{}
	c.startKeys = nil
	c.purgeCache()
	c.log = c.log.WithField("kind", kind)
}

// Fetch loads the first page for filter, discarding the cursor history.
func (c *Controller) Fetch(ctx context.Context, filter model.ResourceFilter) error {
	return c.BeginFetch(filter).Run(ctx)
}

// FetchNext loads the page after the current one. It returns
// model.ErrNoSuchPage when the current page has no next cursor.
func (c *Controller) FetchNext(ctx context.Context) error {
	p, err := c.BeginNext()
	if err != nil {
		return err
	}
	return p.Run(ctx)
}

// FetchPrev loads the page before the current one. It returns
// model.ErrNoSuchPage on the first page.
func (c *Controller) FetchPrev(ctx context.Context) error {
	p, err := c.BeginPrev()
	if err != nil {
		return err
	}
	return p.Run(ctx)
}

// Pending is a request that holds its sequence number but has not reached
// the backend yet. Issue order, not Run order, decides which result wins.
type Pending struct {
	c         *Controller
	seq       uint64
	dir       metrics.Direction
	keys      []string
	kind      model.ResourceKind
	clusterId string
	limit     int
	fetch     model.FetchFunc
	reusable  bool
	filter    model.ResourceFilter
	done      bool
}

func (c *Controller) BeginFetch(filter model.ResourceFilter) *Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeCache()
	c.stale = true
	return c.beginUnsafe(metrics.DirectionFirst, []string{""}, filter)
}

func (c *Controller) BeginNext() (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canFetchNextUnsafe() {
		return nil, model.ErrNoSuchPage
	}
	keys := append(append([]string{}, c.startKeys...), c.page.StartKey)
	return c.beginUnsafe(metrics.DirectionNext, keys, c.filter), nil
}

func (c *Controller) BeginPrev() (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canFetchPrevUnsafe() {
		return nil, model.ErrNoSuchPage
	}
	keys := append([]string{}, c.startKeys[:len(c.startKeys)-1]...)
	return c.beginUnsafe(metrics.DirectionPrev, keys, c.filter), nil
}

func (c *Controller) beginUnsafe(dir metrics.Direction, keys []string, filter model.ResourceFilter) *Pending {
	c.seq++
	p := &Pending{
		c:         c,
		seq:       c.seq,
		dir:       dir,
		keys:      keys,
		kind:      c.kind,
		clusterId: c.clusterId,
		limit:     c.limit,
		fetch:     c.fetch,
		reusable:  c.reusable,
		filter:    filter.Clone(),
	}
	index := len(keys) - 1
	if cached, ok := c.cached(index, keys[index]); ok {
		c.page = cached
		c.startKeys = keys
		c.filter = p.filter.Clone()
		c.stale = false
		c.attempt = model.FetchAttempt{Status: model.FetchSuccess}
		c.log.WithField("page", index).Debug("served from page cache")
		p.done = true
		return p
	}
	c.attempt = model.FetchAttempt{Status: model.FetchProcessing}
	return p
}

// Run sends the request and applies its result unless a later request was
// issued in the meantime. Superseded requests return nil.
func (p *Pending) Run(ctx context.Context) error {
	if p.done {
		return nil
	}
	p.done = true
	c := p.c
	index := len(p.keys) - 1
	keys := p.keys

	started := time.Now()
	var resp *model.FetchResponse
	var err error
	if p.fetch == nil {
		err = model.UnsupportedKind(p.kind)
	} else if p.dir == metrics.DirectionPrev && !p.reusable {
		resp, keys, err = replay(ctx, p.fetch, p.clusterId, p.filter, p.limit, index)
	} else {
		resp, err = p.fetch(ctx, p.clusterId, model.NewFetchRequest(p.filter, keys[index], p.limit))
	}
	if err == nil && resp == nil {
		err = errors.New("backend returned no response")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	sample := metrics.FetchSample{
		ClusterId: p.clusterId,
		Kind:      p.kind,
		Direction: p.dir,
		Elapsed:   time.Since(started),
		Failed:    err != nil,
	}
	if p.seq != c.seq {
		sample.Superseded = true
		c.recorder.RecordFetch(sample)
		c.log.WithField("seq", p.seq).Debug("dropping superseded fetch result")
		return nil
	}
	if err != nil {
		c.recorder.RecordFetch(sample)
		c.attempt = model.FetchAttempt{Status: model.FetchFailed, StatusText: err.Error()}
		c.log.WithError(err).Warn("fetch failed")
		return &model.FetchFailedError{Kind: p.kind, Cause: err}
	}
	sample.Items = len(resp.Items)
	c.recorder.RecordFetch(sample)

	c.page = model.FetchedPage{
		Items:      resp.Items,
		StartKey:   resp.StartKey,
		TotalCount: resp.TotalCount,
	}.Clone()
	c.startKeys = keys
	c.filter = p.filter.Clone()
	c.stale = false
	c.attempt = model.FetchAttempt{Status: model.FetchSuccess}
	if c.cache != nil {
		c.cache.Add(len(keys)-1, cachedPage{startKey: keys[len(keys)-1], page: c.page.Clone()})
	}
	return nil
}

// replay walks from the first page to page index following next cursors and
// returns the last response with the start keys used along the way. A
// dataset that shrank underneath ends the walk early.
func replay(ctx context.Context, fetch model.FetchFunc, clusterId string, filter model.ResourceFilter, limit, index int) (*model.FetchResponse, []string, error) {
	keys := []string{""}
	resp, err := fetch(ctx, clusterId, model.NewFetchRequest(filter, "", limit))
	for err == nil && resp != nil && len(keys) <= index && resp.StartKey != "" {
		keys = append(keys, resp.StartKey)
		resp, err = fetch(ctx, clusterId, model.NewFetchRequest(filter, resp.StartKey, limit))
	}
	return resp, keys, err
}

func (c *Controller) cached(index int, startKey string) (model.FetchedPage, bool) {
	if c.cache == nil {
		return model.FetchedPage{}, false
	}
	entry, ok := c.cache.Get(index)
	if !ok || entry.startKey != startKey {
		return model.FetchedPage{}, false
	}
	return entry.page.Clone(), true
}

func (c *Controller) purgeCache() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

func (c *Controller) Attempt() model.FetchAttempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// Page returns a copy of the current page.
func (c *Controller) Page() model.FetchedPage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page.Clone()
}

// Filter returns the filter the current page was fetched with.
func (c *Controller) Filter() model.ResourceFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.Clone()
}

func (c *Controller) Kind() model.ResourceKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kind
}

func (c *Controller) Limit() int {
	return c.limit
}

func (c *Controller) CanFetchNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canFetchNextUnsafe()
}

func (c *Controller) CanFetchPrev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canFetchPrevUnsafe()
}

func (c *Controller) canFetchNextUnsafe() bool {
	return !c.stale && c.page.StartKey != "" && len(c.startKeys) > 0
}

func (c *Controller) canFetchPrevUnsafe() bool {
	return !c.stale && len(c.startKeys) > 1
}

func (c *Controller) PageIndicators() model.PageIndicators {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indicatorsUnsafe()
}

// View is the controller state a renderer needs, read under one lock.
type View struct {
	Kind       model.ResourceKind
	Filter     model.ResourceFilter
	Attempt    model.FetchAttempt
	Page       model.FetchedPage
	Indicators model.PageIndicators
	CanNext    bool
	CanPrev    bool
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Kind:       c.kind,
		Filter:     c.filter.Clone(),
		Attempt:    c.attempt,
		Page:       c.page.Clone(),
		Indicators: c.indicatorsUnsafe(),
		CanNext:    c.canFetchNextUnsafe(),
		CanPrev:    c.canFetchPrevUnsafe(),
	}
}

func (c *Controller) indicatorsUnsafe() model.PageIndicators {
	ind := model.PageIndicators{Total: c.page.TotalCount}
	if len(c.page.Items) == 0 || len(c.startKeys) == 0 {
		return ind
	}
	ind.From = (len(c.startKeys)-1)*c.limit + 1
	ind.To = ind.From + len(c.page.Items) - 1
	return ind
}
