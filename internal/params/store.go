// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package params holds the single current analysis-parameter value and
// notifies subscribed panels when it is replaced.
package params

import (
	"sync"

	"github.com/jeranaias/dataground-tui/internal/model"
)

// Store is the publisher side of the analysis-parameter fan-out.
//
// Exactly one AnalysisParameters value is current at a time; Set replaces it
// wholesale. There is no merging: both the chat controller and the manual
// sidebar write complete records and the last writer wins. A nil current
// value means no analysis has been requested yet.
type Store struct {
	mu          sync.Mutex
	current     *model.AnalysisParameters
	generation  uint64
	subscribers []func(*model.AnalysisParameters)
}

// NewStore creates an empty parameter store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces the current value and notifies every subscriber with the new
// record. Callbacks run outside the lock so a subscriber may call Current
// or Generation re-entrantly.
func (s *Store) Set(p *model.AnalysisParameters) {
	s.mu.Lock()
	s.current = p
	s.generation++
	subs := make([]func(*model.AnalysisParameters), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(p)
	}
}

// Current returns the current value, which may be nil.
func (s *Store) Current() *model.AnalysisParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Generation returns a counter incremented on every Set. Panels capture it
// at fetch dispatch and discard results whose generation is no longer
// current.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Subscribe registers a callback invoked on every Set. Subscriptions are
// permanent for the life of the store.
func (s *Store) Subscribe(fn func(*model.AnalysisParameters)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// ChangedMsg is broadcast through the Bubble Tea update loop after a Set so
// panels can react inside their own Update methods. Generation is the store
// generation at the time of the Set.
type ChangedMsg struct {
	Params     *model.AnalysisParameters
	Generation uint64
}

// SetAndAnnounce replaces the current value and returns the ChangedMsg that
// should be routed to the panels.
func (s *Store) SetAndAnnounce(p *model.AnalysisParameters) ChangedMsg {
	s.Set(p)
	return ChangedMsg{Params: p, Generation: s.Generation()}
}
