// Package async provides generic futures.
//
// Async runs a function on its own goroutine and returns a Future for the
// result. The request bus uses it for SendAsync and for asynchronous
// handlers, and the background runner uses it to track task loops during
// shutdown:
//
//	f := async.Async(ctx, req, func(ctx context.Context, req Ping) (string, error) {
//		return "pong " + req.Name, nil
//	})
//	res, err := f.AwaitWithTimeout(time.Second)
//
// A context cancelled before the function starts completes the future with
// ctx.Err() without running it. A panic on the future's goroutine completes it
// with a *PanicError wrapping ErrPanic, so callers receive an error instead of
// a crashed process.
//
// Map chains a transformation onto a future, Resolved wraps a known result,
// and WaitAll / WaitAny coordinate several futures.
package async
