package recorder

import "sync"

// pending holds records waiting for the next Flush, in registration order.
type pending[T any] struct {
	mu    sync.Mutex
	items []T
}

func (p *pending[T]) push(item T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, item)
}

// drain returns every record and leaves the buffer empty.
func (p *pending[T]) drain() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.items
	p.items = nil
	return out
}

// restore puts records from a failed flush back in front of anything
// pushed since they were drained.
func (p *pending[T]) restore(items []T) {
	if len(items) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(items[:len(items):len(items)], p.items...)
}

func (p *pending[T]) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
