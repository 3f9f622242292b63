package singleton

import "sync"

// Deferred is a lazy cross-reference: a small handle holding a resolve
// function that runs once, on first real access. It stands in for values that
// may not exist yet while a configuration document is being parsed.
type Deferred struct {
	once    sync.Once
	resolve func() (any, error)
	value   any
	err     error
}

func NewDeferred(resolve func() (any, error)) *Deferred {
	return &Deferred{resolve: resolve}
}

// Resolve evaluates the handle. The first call runs the resolve function and
// memoizes its outcome; failure at that point is the caller's to handle.
func (d *Deferred) Resolve() (any, error) {
	d.once.Do(func() {
		d.value, d.err = d.resolve()
	})
	return d.value, d.err
}
