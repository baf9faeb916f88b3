// Package broadcast fans typed messages out to in-process subscribers.
//
// MemoryBroadcaster gives every subscriber a buffered channel. Broadcast never
// blocks: a subscriber whose buffer is full misses that message, so one slow
// reader cannot stall the sender or the other readers. The notification hub
// relies on this to stream to websocket clients.
//
//	b := broadcast.NewMemoryBroadcaster[notify.Message](64)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	_ = b.Broadcast(ctx, broadcast.Message[notify.Message]{Data: msg})
//	for m := range sub.Receive(ctx) {
//		// handle m.Data
//	}
//
// A subscription ends when its Close is called, when the context passed to
// Subscribe is done, or when the broadcaster is closed. In every case its
// channel is closed. Broadcasting after Close is a no-op.
package broadcast
