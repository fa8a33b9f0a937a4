package gridcore

import (
	"context"
	"sync"
)

// EntryState describes what a cache lookup found.
type EntryState int

const (
	StateIdle    EntryState = iota // never fetched
	StatePending                   // fetch in flight, no data yet
	StateReady                     // data present
	StateError                     // last fetch failed, no data to show
)

// Result is a point-in-time view of one cache entry. Data stays visible
// while a refetch is in flight (stale-while-revalidate).
type Result struct {
	State    EntryState
	Data     any
	Err      error
	Stale    bool
	Fetching bool
}

type cacheEntry struct {
	data     any
	hasData  bool
	err      error
	stale    bool
	fetching bool
	gen      int
	cancel   context.CancelFunc
}

// Cache is the keyed client cache of query results. SetData is synchronous
// and visible to subsequent lookups before any round trip resolves; Cancel
// and SetData bump the entry generation so a late-arriving stale response
// cannot clobber an optimistic write.
//
// Fetch completions and mutation settlements are delivered through the
// scheduler passed to NewCache, so the UI event loop stays the single
// writer. A nil scheduler makes Fetch and Mutate run their calls inline and
// settle before returning; tests rely on that for determinism.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	schedule func(func())
	sync     bool
	onChange func(key string)
}

func NewCache(schedule func(func())) *Cache {
	c := &Cache{entries: map[string]*cacheEntry{}, schedule: schedule}
	if schedule == nil {
		c.sync = true
		c.schedule = func(f func()) { f() }
	}
	return c
}

// OnChange registers a single listener notified (on the scheduler) after an
// entry's visible state changes from an async completion or invalidation.
func (c *Cache) OnChange(fn func(key string)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Cache) notify(key string) {
	if c.onChange != nil {
		c.onChange(key)
	}
}

func (c *Cache) entry(key string) *cacheEntry {
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	return e
}

// Lookup returns the entry's current state without side effects.
func (c *Cache) Lookup(key string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Result{State: StateIdle}
	}
	r := Result{Data: e.data, Err: e.err, Stale: e.stale, Fetching: e.fetching}
	switch {
	case e.hasData:
		r.State = StateReady
	case e.fetching:
		r.State = StatePending
	case e.err != nil:
		r.State = StateError
	}
	return r
}

// Fetch starts an asynchronous load for key unless one is already in
// flight. The fetched value replaces the entry's data only if no Cancel,
// SetData or newer Fetch superseded it meanwhile.
func (c *Cache) Fetch(key string, fn func(ctx context.Context) (any, error)) {
	c.mu.Lock()
	e := c.entry(key)
	if e.fetching {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.fetching = true
	e.gen++
	e.cancel = cancel
	gen := e.gen
	c.mu.Unlock()

	run := func() {
		data, err := fn(ctx)
		c.schedule(func() {
			c.mu.Lock()
			e := c.entry(key)
			if e.gen != gen {
				c.mu.Unlock()
				return // superseded; drop the stale response
			}
			e.fetching = false
			e.cancel = nil
			if err != nil {
				e.err = err
			} else {
				e.data = data
				e.hasData = true
				e.err = nil
				e.stale = false
			}
			notify := c.onChange
			c.mu.Unlock()
			if notify != nil {
				notify(key)
			}
		})
	}
	if c.sync {
		run()
	} else {
		go run()
	}
}

// SetData applies a synchronous optimistic update to the entry. Any
// in-flight fetch for the key is cancelled first so its response cannot
// overwrite the new value. Returns the previous data for rollback.
func (c *Cache) SetData(key string, update func(prev any) any) (prev any) {
	c.mu.Lock()
	e := c.entry(key)
	c.supersedeLocked(e)
	prev = e.data
	e.data = update(e.data)
	e.hasData = true
	e.err = nil
	notify := c.onChange
	c.mu.Unlock()
	if notify != nil {
		notify(key)
	}
	return prev
}

// Restore puts back a snapshot captured before an optimistic update.
func (c *Cache) Restore(key string, snapshot any) {
	c.SetData(key, func(any) any { return snapshot })
}

// Invalidate marks the entry stale. Data stays visible; consumers observing
// the stale flag refetch. An in-flight fetch is superseded so it cannot
// complete with pre-invalidation data.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	e := c.entry(key)
	c.supersedeLocked(e)
	e.stale = true
	notify := c.onChange
	c.mu.Unlock()
	if notify != nil {
		notify(key)
	}
}

// Cancel aborts any in-flight fetch for the key.
func (c *Cache) Cancel(key string) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.supersedeLocked(e)
	}
	c.mu.Unlock()
}

// Drop removes the entry entirely (table or base switched away).
func (c *Cache) Drop(key string) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.supersedeLocked(e)
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

func (c *Cache) supersedeLocked(e *cacheEntry) {
	e.gen++
	e.fetching = false
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// MutationHooks is the optimistic mutation lifecycle. BeforeSend applies the
// optimistic change and returns the rollback used on error; any hook may be
// nil. OnSettled runs after OnError or OnSuccess.
type MutationHooks struct {
	BeforeSend func() (rollback func())
	OnError    func(err error)
	OnSuccess  func()
	OnSettled  func()
}

// Mutate runs the optimistic lifecycle around an RPC call. The optimistic
// apply happens synchronously before this returns; the call itself runs in a
// goroutine and settles on the scheduler. Concurrent mutations on the same
// entity are not serialized; the last settlement wins.
func (c *Cache) Mutate(ctx context.Context, call func(ctx context.Context) error, hooks MutationHooks) {
	var rollback func()
	if hooks.BeforeSend != nil {
		rollback = hooks.BeforeSend()
	}
	run := func() {
		err := call(ctx)
		c.schedule(func() {
			if err != nil {
				if rollback != nil {
					rollback()
				}
				if hooks.OnError != nil {
					hooks.OnError(err)
				}
			} else if hooks.OnSuccess != nil {
				hooks.OnSuccess()
			}
			if hooks.OnSettled != nil {
				hooks.OnSettled()
			}
		})
	}
	if c.sync {
		run()
	} else {
		go run()
	}
}
