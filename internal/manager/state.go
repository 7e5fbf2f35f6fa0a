package manager

import (
	"fmt"
	"sync"

	"github.com/onixnotes/onix/internal/vault"
)

// cell is a mutex-guarded value that is only ever read or replaced whole.
// A panic inside an update poisons the cell; later accesses fail with
// vault.ErrLockFailure instead of observing a half-applied update.
type cell[T any] struct {
	name     string
	mu       sync.Mutex
	value    T
	poisoned bool
}

func (c *cell[T]) update(fn func(T) T) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.poisoned {
		return fmt.Errorf("%w: %s", vault.ErrLockFailure, c.name)
	}
	defer func() {
		if r := recover(); r != nil {
			c.poisoned = true
			panic(r)
		}
	}()
	c.value = fn(c.value)
	return nil
}

func (c *cell[T]) load() (T, error) {
	var out T
	err := c.update(func(v T) T {
		out = v
		return v
	})
	return out, err
}

func (c *cell[T]) store(v T) error {
	return c.update(func(T) T { return v })
}
