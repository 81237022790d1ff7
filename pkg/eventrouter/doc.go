/*
Package eventrouter distributes events between the components of a robot
controller: behaviors, sensors, motion generators and network listeners.

# Overview

A Router is an explicitly constructed bus. Components post events to it and
subscribe to the subsets they care about with three levels of specificity:

	r := eventrouter.New(eventrouter.WithLogger(logger))

	r.Subscribe(behavior, subscription.ForGenerator(event.Button))              // every button
	r.Subscribe(behavior, subscription.ForSource(event.Button, 3))              // button 3
	r.Subscribe(behavior, subscription.ForType(event.Button, 3, event.Activate)) // presses of button 3

	r.Post(ctx, event.New(event.Button, 3, event.Activate))

Delivery order for one event is: interceptors, then observers; within each,
exact subscriptions before source subscriptions before generator
subscriptions; within a tier, subscription order. An Interceptor that returns
true suppresses the event for everyone after it.

# Re-entrant Posting

Subscribers may post, subscribe and unsubscribe from inside their callbacks.
A post made while a dispatch is in progress is queued as a dispatch record
and delivered after the current event finishes, in FIFO order, by the loop
that is already running. Nesting depth never grows the call stack.

Each record holds a snapshot of the subscribers matched when it was posted.
Before every callback the router checks the handle is still subscribed, so a
handle removed mid-dispatch is skipped rather than called.

# Timers

	r.AddTimer(behavior, 5, time.Second, true) // Timer event (source 5) every second
	r.RemoveTimer(behavior, 5)

Fired timers are delivered first to their owner alone, then broadcast to any
subscriber of the Timer generator. ProcessTimers (or Run) drives them.

# Other Goroutines

Code running outside the router's owner submits through the relay queue
instead of posting:

	r.QueueEvent(evt)   // from any goroutine
	r.RequeueEvent(evt) // replace queued events with the same generator and source

Run processes timers and drains the queue until its context is cancelled.

# Forwarding

SetForward installs a relay for an execution context (see package forward).
Posts whose context carries that origin are handed to the relay, which may
take over the event instead of local dispatch.

# Subscription Notices

Unless disabled with WithSubscriptionNotices(false), the router posts Router
generator events when a generator gains its first subscriber (Activate),
loses its last (Deactivate), or otherwise changes (Status). The source ID is
the generator concerned. Producers can use them to start and stop work
lazily.
*/
package eventrouter
