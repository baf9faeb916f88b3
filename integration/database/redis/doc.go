// Package redis provides Redis client initialization, the durable request
// queue and the token revocation list.
//
// Connect validates the URL scheme (redis:// or rediss://), creates the client
// and retries the initial ping with exponential backoff.
//
// # Queue
//
// Queue implements queue.Queue on three lists. Enqueue stores the item as JSON
// and pushes its ID on the pending list. Dequeue moves the oldest ID to the
// processing list with a blocking BLMOVE, so an item taken by a consumer that
// crashes stays in Redis. Recover moves such items back to the head of the
// pending list and is meant to run before the consumer starts:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	q := redis.NewQueueFromConfig(cfg, client)
//	if _, err := q.Recover(ctx); err != nil {
//		return err
//	}
//	consumer, err := runner.NewQueueConsumer(bus, q)
//
// Completed items expire after the retention period. Failed items are kept
// and listed under the failed key.
//
// # Revocation
//
// RevocationList implements identity.RevocationStore with keys that expire
// together with the revoked token.
//
// # Configuration
//
//	REDIS_URL                 (required, default: redis://localhost:6379/0)
//	REDIS_RETRY_ATTEMPTS      (default: 3)
//	REDIS_RETRY_INTERVAL      (default: 5s)
//	REDIS_CONNECT_TIMEOUT     (default: 30s)
//	REDIS_KEY_PREFIX          (default: commander)
//	REDIS_QUEUE_NAME          (default: default)
//	REDIS_QUEUE_POLL_TIMEOUT  (default: 1s)
//	REDIS_QUEUE_RETENTION     (default: 24h)
//
// # Error Handling
//
//   - ErrFailedToParseRedisConnString: the connection URL is malformed
//   - ErrRedisNotReady: Redis did not answer within the retry budget
//   - ErrEmptyConnectionURL: no connection URL was provided
//   - ErrHealthcheckFailed: the health check ping failed
//
// Queue operations return the queue package errors (ErrItemExists,
// ErrItemNotFound, ErrItemNotProcessing).
package redis
