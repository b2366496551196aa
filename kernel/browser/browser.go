// Package browser wires filter state, kind adapters and the pager into one
// resource browser. Every committed filter change issues exactly one fetch.
package browser

import (
	"context"
	"sync"

	"github.com/openziti/rbrowse/kernel/filter"
	"github.com/openziti/rbrowse/kernel/kinds"
	"github.com/openziti/rbrowse/kernel/metrics"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/openziti/rbrowse/kernel/pager"
	"github.com/openziti/rbrowse/kernel/query"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type State string

const (
	Idle          State = "idle"
	AwaitingFetch State = "awaiting_fetch"
	Ready         State = "ready"
	Failed        State = "failed"
)

// Snapshot is a consistent, caller-owned view of the browser.
type Snapshot struct {
	State      State
	Kind       model.ResourceKind
	Filter     model.ResourceFilter
	Attempt    model.FetchAttempt
	Page       model.FetchedPage
	Indicators model.PageIndicators
	Columns    []*kinds.Column
	Sortable   bool
	CanNext    bool
	CanPrev    bool
}

type Config struct {
	Context  *model.Context
	Registry *kinds.Registry
	Recorder metrics.Recorder
	Logger   logrus.FieldLogger
	// FetchContext bounds every fetch the browser issues.
	FetchContext context.Context
}

func (c *Config) CheckAndSetDefaults() error {
	if c.Context == nil {
		return errors.New("browser context is missing")
	}
	if c.Registry == nil {
		return errors.New("kind registry is missing")
	}
	if c.Recorder == nil {
		c.Recorder = metrics.Nop
	}
	if c.Logger == nil {
		c.Logger = logrus.WithField("component", "browser")
	}
	if c.FetchContext == nil {
		c.FetchContext = context.Background()
	}
	return nil
}

type Browser struct {
	ctx      *model.Context
	registry *kinds.Registry
	filter   *filter.State
	pager    *pager.Controller
	fetchCtx context.Context
	log      logrus.FieldLogger

	mu        sync.Mutex
	state     State
	kind      model.ResourceKind
	columns   []*kinds.Column
	caps      kinds.Capabilities
	listeners []listener
	nextId    int

	inflight    sync.WaitGroup
	unsubscribe func()
}

type listener struct {
	id int
	fn func(Snapshot)
}

func New(cfg Config) (*Browser, error) {
	if err := cfg.CheckAndSetDefaults(); err != nil {
		return nil, err
	}
	opts := []pager.Option{
		pager.WithRecorder(cfg.Recorder),
		pager.WithLogger(cfg.Logger.WithField("component", "pager")),
	}
	if cfg.Context.Config != nil && cfg.Context.Config.PageCacheSize > 0 {
		opts = append(opts, pager.WithPageCache(cfg.Context.Config.PageCacheSize))
	}
	b := &Browser{
		ctx:      cfg.Context,
		registry: cfg.Registry,
		filter:   filter.NewState(cfg.Registry),
		pager:    pager.New("", cfg.Context.GetClusterId(), cfg.Context.GetPageSize(), nil, opts...),
		fetchCtx: cfg.FetchContext,
		log:      cfg.Logger.WithField("cluster", cfg.Context.GetClusterId()),
		state:    Idle,
	}
	b.unsubscribe = b.filter.Subscribe(b.onFilterChange)
	return b, nil
}

// SetKind switches to kind and resets the filter to its defaults, which
// issues exactly one fetch. An unsupported kind leaves an empty, idle browser.
func (b *Browser) SetKind(kind model.ResourceKind) error {
	return b.SetKindWith(kind, nil)
}

// SetKindWith switches to kind and applies fn on top of the kind's default
// filter in the same commit, so the switch still issues exactly one fetch.
func (b *Browser) SetKindWith(kind model.ResourceKind, fn func(tx *filter.Tx)) error {
	adapter, err := b.registry.Adapter(kind)
	if err != nil {
		b.log.WithError(err).WithField("kind", kind).Warn("unable to browse kind")
		b.mu.Lock()
		b.state = Idle
		b.kind = ""
		b.columns = nil
		b.caps = kinds.Capabilities{}
		b.pager.Retarget("", nil, false)
		b.mu.Unlock()
		b.notify()
		return err
	}

	b.mu.Lock()
	b.kind = kind
	b.columns = adapter.Columns
	b.caps = adapter.Capabilities
	b.pager.Retarget(kind, adapter.Fetch, adapter.Capabilities.ReusableCursors)
	b.mu.Unlock()

	return b.filter.Batch(func(tx *filter.Tx) {
		if err := tx.ResetForKind(kind); err != nil {
			return
		}
		if fn != nil {
			fn(tx)
		}
	})
}

// SetSort changes the sort. Kinds whose backend cannot sort keep their
// default order.
func (b *Browser) SetSort(sort *model.SortType) {
	b.mu.Lock()
	kind, sortable := b.kind, b.caps.Sortable
	b.mu.Unlock()
	if kind != "" && !sortable {
		b.log.WithField("kind", kind).Warn("kind cannot be sorted, ignoring sort")
		return
	}
	b.filter.SetSort(sort)
}

// Capabilities reports what the backend of kind supports.
func (b *Browser) Capabilities(kind model.ResourceKind) (kinds.Capabilities, error) {
	return b.registry.CapabilitiesFor(kind)
}

func (b *Browser) SetSearch(text string) {
	b.filter.SetSearch(text)
}

func (b *Browser) SetQuery(text string) {
	b.filter.SetQuery(text)
}

// Batch applies several filter mutations with a single refetch.
func (b *Browser) Batch(fn func(tx *filter.Tx)) error {
	return b.filter.Batch(fn)
}

// AddLabel narrows the current results to resources carrying label.
func (b *Browser) AddLabel(label model.ResourceLabel) {
	b.filter.SetQuery(query.AddLabelToQuery(b.filter.Current(), label))
}

// Refresh refetches the first page with the current filter.
func (b *Browser) Refresh() {
	b.onFilterChange(b.filter.Current())
}

// NextPage fetches the next page. Without one it does nothing.
func (b *Browser) NextPage() {
	b.step(b.pager.BeginNext)
}

// PrevPage fetches the previous page. Without one it does nothing.
func (b *Browser) PrevPage() {
	b.step(b.pager.BeginPrev)
}

func (b *Browser) step(begin func() (*pager.Pending, error)) {
	b.mu.Lock()
	if b.kind == "" {
		b.mu.Unlock()
		return
	}
	p, err := begin()
	if err != nil {
		b.mu.Unlock()
		b.log.WithError(err).Debug("page step ignored")
		return
	}
	b.state = AwaitingFetch
	b.mu.Unlock()
	b.notify()
	b.run(p)
}

func (b *Browser) onFilterChange(f model.ResourceFilter) {
	b.mu.Lock()
	if b.kind == "" {
		b.mu.Unlock()
		return
	}
	b.state = AwaitingFetch
	p := b.pager.BeginFetch(f)
	b.mu.Unlock()
	b.notify()
	b.run(p)
}

func (b *Browser) run(p *pager.Pending) {
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		if err := p.Run(b.fetchCtx); err != nil {
			b.log.WithError(err).Debug("fetch completed with error")
		}
		b.settle()
	}()
}

// settle derives the browser state from the latest attempt. Superseded
// requests leave the state alone.
func (b *Browser) settle() {
	b.mu.Lock()
	if b.kind != "" {
		switch b.pager.Attempt().Status {
		case model.FetchSuccess:
			b.state = Ready
		case model.FetchFailed:
			b.state = Failed
		}
	}
	b.mu.Unlock()
	b.notify()
}

// Wait blocks until every issued fetch has completed.
func (b *Browser) Wait() {
	b.inflight.Wait()
}

// Close stops reacting to filter changes and waits for fetches in flight.
func (b *Browser) Close() {
	b.unsubscribe()
	b.Wait()
}

func (b *Browser) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Browser) Kind() model.ResourceKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.kind
}

func (b *Browser) Kinds() []model.ResourceKind {
	return b.registry.Kinds()
}

func (b *Browser) Filter() model.ResourceFilter {
	return b.filter.Current()
}

func (b *Browser) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.pager.View()
	return Snapshot{
		State:      b.state,
		Kind:       b.kind,
		Filter:     b.filter.Current(),
		Attempt:    v.Attempt,
		Page:       v.Page,
		Indicators: v.Indicators,
		Columns:    b.columns,
		Sortable:   b.caps.Sortable,
		CanNext:    v.CanNext,
		CanPrev:    v.CanPrev,
	}
}

// Subscribe delivers a snapshot after every state change. It returns a
// function removing fn.
func (b *Browser) Subscribe(fn func(Snapshot)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextId++
	id := b.nextId
	b.listeners = append(b.listeners, listener{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

func (b *Browser) notify() {
	b.mu.Lock()
	listeners := make([]listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()
	if len(listeners) == 0 {
		return
	}
	snap := b.Snapshot()
	for _, l := range listeners {
		l.fn(snap)
	}
}
