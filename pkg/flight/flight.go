package flight

import (
	"context"
	"sync"
	"time"
)

// Cache coalesces concurrent work for the same key. With a positive expiry it
// also remembers successful results until they expire. Failed work is never
// remembered.
type Cache[K comparable, V any] struct {
	mu      *sync.Mutex
	done    map[K]result[V]
	pending map[K]*call[V]
	work    func(context.Context, K) (V, error)
	ttl     time.Duration // <= 0 remembers nothing
	now     func() time.Time
}

type result[V any] struct {
	val     V
	expires time.Time
}

type call[V any] struct {
	val  V
	err  error
	done chan struct{}
}

func NewCache[K comparable, V any](work func(context.Context, K) (V, error)) Cache[K, V] {
	return Cache[K, V]{
		mu:      new(sync.Mutex),
		done:    make(map[K]result[V]),
		pending: make(map[K]*call[V]),
		work:    work,
		now:     time.Now,
	}
}

// Expiry sets how long results stored from now on are remembered.
// d <= 0 turns remembering off and drops what is already stored.
func (p *Cache[K, V]) Expiry(d time.Duration) {
	p.mu.Lock()
	p.ttl = d
	if d <= 0 {
		clear(p.done)
	}
	p.mu.Unlock()
}

// Get returns a remembered result, joins in-flight work for k, or runs the
// work itself. A waiter whose ctx ends stops waiting; the work keeps going.
func (p *Cache[K, V]) Get(ctx context.Context, k K) (V, error) {
	p.mu.Lock()
	if r, ok := p.done[k]; ok {
		if p.now().Before(r.expires) {
			p.mu.Unlock()
			return r.val, nil
		}
		delete(p.done, k)
	}
	if c, ok := p.pending[k]; ok {
		p.mu.Unlock()
		return wait(ctx, c)
	}
	c := p.start(k)
	p.mu.Unlock()

	return p.run(ctx, k, c)
}

// Force skips remembered results and always runs fresh work once any
// in-flight call for k has finished.
func (p *Cache[K, V]) Force(ctx context.Context, k K) (V, error) {
	p.mu.Lock()
	for {
		c, ok := p.pending[k]
		if !ok {
			break
		}
		p.mu.Unlock()
		if _, err := wait(ctx, c); ctx.Err() != nil {
			var zero V
			return zero, err
		}
		p.mu.Lock()
	}
	c := p.start(k)
	p.mu.Unlock()

	return p.run(ctx, k, c)
}

// start registers a call for k. p.mu must be held.
func (p *Cache[K, V]) start(k K) *call[V] {
	c := &call[V]{done: make(chan struct{})}
	p.pending[k] = c
	return c
}

func (p *Cache[K, V]) run(ctx context.Context, k K, c *call[V]) (V, error) {
	c.val, c.err = p.work(ctx, k)

	p.mu.Lock()
	if c.err == nil && p.ttl > 0 {
		p.done[k] = result[V]{val: c.val, expires: p.now().Add(p.ttl)}
	}
	delete(p.pending, k)
	close(c.done)
	p.mu.Unlock()

	return c.val, c.err
}

func wait[V any](ctx context.Context, c *call[V]) (V, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
