// Package redisrelay carries router events between processes over Redis
// pub/sub.
//
// A Publisher is a forward.Relay: install it in a forwarding slot and posts
// from that origin are published to a channel. A Subscriber listens on the
// same channel and submits decoded events to a relay.Queue, which the
// receiving router drains on its own goroutine.
//
//	client := redisrelay.NewClient(settings.Redis)
//	pub := redisrelay.NewPublisher(client, redisrelay.PublisherConfig{Channel: "arm"})
//	_ = router.SetForward(forward.Motion, pub)
//
//	sub := redisrelay.NewSubscriber(client, redisrelay.SubscriberConfig{
//		Channel: "arm",
//		Queue:   other.Queue(),
//	})
//	go sub.Run(ctx)
//
// Delivery is best effort: Redis pub/sub does not buffer for absent
// subscribers, and events that fail to publish are dropped.
package redisrelay
