// Package subscription implements the three-tier subscription table used by
// the router to find the handles interested in an event.
//
// A subscription key names a generator and optionally a source and a type:
//
//	subscription.ForGenerator(event.Button)                       // every button event
//	subscription.ForSource(event.Button, 3)                       // every event of button 3
//	subscription.ForType(event.Button, 3, event.Activate)         // presses of button 3
//
// Match returns the handles for an event with the most specific tier first:
// exact subscriptions, then source subscriptions, then generator
// subscriptions, each tier in subscription order. Identical subscriptions are
// not merged; a handle subscribed twice is returned twice.
//
// Table is not safe for concurrent use. The router guards it with its own
// lock and hands out snapshots, never references into the table.
package subscription
