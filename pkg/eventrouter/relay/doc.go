// Package relay provides the hand-off queue that lets goroutines outside the
// router's owner submit events for dispatch on the owner's goroutine.
//
// Producers call Submit or SubmitReplacing from any goroutine; neither
// touches the router's lock. The owner drains the queue and posts each
// event:
//
//	q := relay.NewQueue(relay.DefaultQueueConfig)
//	go func() {
//	    for reading := range sensor {
//	        q.SubmitReplacing(reading) // keep only the newest per source
//	    }
//	}()
//
//	for range q.Ready() {
//	    q.Drain(func(evt event.Event) { router.Post(ctx, evt) })
//	}
//
// SubmitReplacing removes any queued event with the same generator and
// source before appending, so a fast source never builds a backlog of stale
// readings.
//
// A bounded queue applies its OverflowPolicy when full: DropOldest evicts
// the head to make room, DropNewest rejects the incoming event.
package relay
