// Package timer implements the polled timer scheduler behind the router's
// timer events.
//
// A timer is identified by its owner and a source ID. Scheduling the same
// (owner, source) pair again replaces the timer instead of adding a second
// one, and a negative delay cancels it:
//
//	s := timer.NewScheduler[*Behavior]()
//	s.Schedule(b, 5, time.Second, true, now)  // every second
//	s.Schedule(b, 5, 2*time.Second, true, now) // same timer, new period
//
// Nothing fires on its own. The host loop calls Tick with the current time
// and receives the timers that came due, earliest first, with timers due at
// the same instant in scheduling order. Repeating timers advance by whole
// periods from their previous deadline, so a late tick neither fires a
// timer twice nor shifts its phase.
//
// Scheduler is not safe for concurrent use.
package timer
