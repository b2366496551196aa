// Package filter holds the single source of truth for sort, free-text search
// and predicate query, and notifies subscribers once per committed change.
package filter

import (
	"sync"

	"github.com/openziti/rbrowse/kernel/model"
)

// DefaultSorter supplies the sort a kind starts with.
type DefaultSorter interface {
	DefaultSortFor(kind model.ResourceKind) (model.SortType, error)
}

// Listener receives a copy of the filter after every committed change.
type Listener func(model.ResourceFilter)

type subscription struct {
	id int
	fn Listener
}

// State owns a ResourceFilter. Search and Query are mutually exclusive:
// setting one clears the other.
type State struct {
	mu            sync.Mutex
	current       model.ResourceFilter
	defaults      DefaultSorter
	subscriptions []subscription
	nextId        int
}

func NewState(defaults DefaultSorter) *State {
	return &State{defaults: defaults}
}

// Current returns a copy of the filter.
func (s *State) Current() model.ResourceFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Subscribe registers l and returns a function removing it.
func (s *State) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	id := s.nextId
	s.subscriptions = append(s.subscriptions, subscription{id: id, fn: l})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscriptions {
			if sub.id == id {
				s.subscriptions = append(s.subscriptions[:i:i], s.subscriptions[i+1:]...)
				return
			}
		}
	}
}

func (s *State) SetSort(sort *model.SortType) {
	_ = s.Batch(func(tx *Tx) { tx.SetSort(sort) })
}

func (s *State) SetSearch(text string) {
	_ = s.Batch(func(tx *Tx) { tx.SetSearch(text) })
}

func (s *State) SetQuery(text string) {
	_ = s.Batch(func(tx *Tx) { tx.SetQuery(text) })
}

// ResetForKind sets the kind's default sort and clears search and query.
// It always notifies, even if the resulting filter equals the current one.
func (s *State) ResetForKind(kind model.ResourceKind) error {
	return s.Batch(func(tx *Tx) { _ = tx.ResetForKind(kind) })
}

// Batch applies several mutations and notifies subscribers at most once.
// If any mutation in fn fails, nothing is committed.
func (s *State) Batch(fn func(tx *Tx)) error {
	s.mu.Lock()
	tx := &Tx{next: s.current.Clone(), defaults: s.defaults}
	fn(tx)
	if tx.err != nil {
		s.mu.Unlock()
		return tx.err
	}
	if !tx.forced && tx.next.Equal(s.current) {
		s.mu.Unlock()
		return nil
	}
	s.current = tx.next
	committed := s.current.Clone()
	subs := make([]subscription, len(s.subscriptions))
	copy(subs, s.subscriptions)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(committed.Clone())
	}
	return nil
}

// Tx stages mutations inside Batch.
type Tx struct {
	next     model.ResourceFilter
	defaults DefaultSorter
	forced   bool
	err      error
}

func (tx *Tx) SetSort(sort *model.SortType) {
	if sort == nil {
		tx.next.Sort = nil
		return
	}
	s := *sort
	tx.next.Sort = &s
}

func (tx *Tx) SetSearch(text string) {
	tx.next.Search = text
	tx.next.Query = ""
}

func (tx *Tx) SetQuery(text string) {
	tx.next.Query = text
	tx.next.Search = ""
}

func (tx *Tx) ResetForKind(kind model.ResourceKind) error {
	if tx.defaults == nil {
		tx.err = model.UnsupportedKind(kind)
		return tx.err
	}
	sort, err := tx.defaults.DefaultSortFor(kind)
	if err != nil {
		tx.err = err
		return err
	}
	tx.next = model.ResourceFilter{Sort: &sort}
	tx.forced = true
	return nil
}

// Current is the staged filter.
func (tx *Tx) Current() model.ResourceFilter {
	return tx.next.Clone()
}
