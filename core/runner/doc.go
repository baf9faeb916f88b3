// Package runner executes background work for the application: recurring
// interval tasks, delayed one-shot tasks, and long-lived consumers such as
// the deferred request queue consumer.
//
// Each task runs on its own goroutine. An invocation that fails or panics is
// logged with its stack and counted in Stats; it never stops the runner or
// other tasks. Stop cancels scheduling and the consumer context, then waits
// for in-flight invocations up to the shutdown timeout.
//
// # Queue consumer
//
// QueueConsumer dequeues items from a queue.Queue and dispatches each one
// through the command bus inside a new scope whose execution context is the
// snapshot captured at enqueue time:
//
//	consumer, err := runner.NewQueueConsumer(bus, q, runner.WithConsumerLogger(log))
//	if err != nil {
//	    return err
//	}
//	r := runner.New(runner.WithLogger(log))
//	_ = r.RunConsumer("queue", consumer.Consume)
//
// An item that has been dequeued is always finished, acknowledged or
// marked failed, even if shutdown starts while it is being processed.
//
// # Scheduled requests
//
// SendAs adapts a request factory into a task body dispatched under a fixed
// identity, typically the system user:
//
//	_ = r.ScheduleInterval("ping", cfg.PingInterval,
//	    runner.SendAs(bus, execctx.System(cfg.SystemUser), func() any {
//	        return demo.Ping{Name: "Schedule"}
//	    }),
//	)
package runner
