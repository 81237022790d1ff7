// Package forward decides whether an event posted from a given execution
// context is dispatched locally or handed to a relay for another context.
//
// Each Origin has one slot in a Table. A post carries its origin in the
// context:
//
//	ctx = forward.WithOrigin(ctx, forward.Motion)
//	router.Post(ctx, evt)
//
// If the Motion slot holds a Relay, the router calls it before taking its
// dispatch lock. A relay that reports suppressed=true takes over the event;
// otherwise local dispatch proceeds.
//
// QueueRelay, PosterRelay, Tee and RelayFunc cover in-process forwarding.
// Network and cross-process relays live in the redisrelay and outbox
// packages.
package forward
