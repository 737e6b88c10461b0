package health

import "sync/atomic"

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips the readiness gate. Flip it off at the start of graceful
// shutdown so load balancers stop routing before the listener closes.
func SetReady(v bool) { ready.Store(v) }

// Ready reports the current readiness gate state.
func Ready() bool { return ready.Load() }
