// Package lock provides mutual exclusion keyed by an arbitrary string. The
// booking engine takes one key per room so that the availability check and
// the write of a booking never interleave with another writer of that room.
package lock

import "context"

type Locker interface {
	// Lock blocks until the key is held or ctx is done. The returned unlock
	// function is safe to call more than once.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
