package steps

import "sync"

// Errors is a sticky error sink shared by a builder and every anonymous
// traversal created from it. The first recorded error wins; later ones are
// dropped because they are usually consequences of the first.
//
// Builders are not safe for concurrent use, but the sink is, so a decorator
// may share one across goroutines if it ever needs to.
type Errors struct {
	mu  sync.Mutex
	err error
}

// Record stores err unless an error is already stored. A nil err is ignored.
func (e *Errors) Record(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err == nil {
		e.err = err
	}
}

// Err returns the first recorded error.
func (e *Errors) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}
