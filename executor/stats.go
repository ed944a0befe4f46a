/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package executor

import "go.uber.org/atomic"

// Stats is a snapshot of the executor counters.
type Stats struct {
	Submitted uint64
	Admitted  uint64
	Succeeded uint64
	// Failed includes tasks that returned an error, panicked,
	// or whose submission context ended before admission.
	Failed uint64

	Queued int
	Active int
}

type counters struct {
	submitted atomic.Uint64
	admitted  atomic.Uint64
	succeeded atomic.Uint64
	failed    atomic.Uint64
}
