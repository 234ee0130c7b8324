// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package sweep

import (
	"context"
	"sort"
	"sync"

	"github.com/siemens/subdig/types"
)

// Tracker keeps the most recent state of the candidate addresses of a sweep. A
// typical use case for a Tracker is to consume the news stream of a [Sweeper]
// and to render the progress of the sweep from the tracked state.
type Tracker struct {
	mu sync.Mutex
	m  map[string]types.Candidate
}

// NewTracker returns a new and properly initialized Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		m: map[string]types.Candidate{},
	}
}

// Update the tracker with a candidate update. Updates never regress: once a
// candidate has been decided, it stays decided, and its reachability quality
// only moves forward.
func (t *Tracker) Update(c types.Candidate) {
	if c.Addr == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	known, ok := t.m[c.Addr]
	if ok && (known.Outcome != types.Undecided || c.Quality < known.Quality) {
		return
	}
	t.m[c.Addr] = c
}

// Get returns all tracked candidates in ascending address order.
func (t *Tracker) Get() []types.Candidate {
	t.mu.Lock()
	defer t.mu.Unlock()
	cs := make([]types.Candidate, 0, len(t.m))
	for _, c := range t.m {
		cs = append(cs, c)
	}
	sort.Slice(cs, func(a, b int) bool {
		return addrLess(cs[a].Addr, cs[b].Addr)
	})
	return cs
}

// Counts returns the number of tracked candidates per outcome.
func (t *Tracker) Counts() map[types.Outcome]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := map[types.Outcome]int{}
	for _, c := range t.m {
		counts[c.Outcome]++
	}
	return counts
}

// Track candidate updates received from the specified news channel until the
// channel is closed or the context done. Track only returns after processing
// all updates or when the context is done.
func (t *Tracker) Track(ctx context.Context, news <-chan types.Candidate) error {
	for {
		select {
		case c, ok := <-news:
			if !ok {
				return nil
			}
			t.Update(c)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
