package redis

// Key layout, relative to the configured prefix:
//
//	{prefix}:queue:{name}:pending     list of item IDs, oldest on the right
//	{prefix}:queue:{name}:processing  list of dequeued item IDs
//	{prefix}:queue:{name}:failed      list of failed item IDs
//	{prefix}:item:{id}                JSON encoded queue.Item
//	{prefix}:revoked:{jti}            revoked token marker

type keys struct {
	prefix string
	queue  string
}

func newKeys(prefix, queue string) keys {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return keys{prefix: prefix, queue: queue}
}

func (k keys) pending() string    { return k.prefix + ":queue:" + k.queue + ":pending" }
func (k keys) processing() string { return k.prefix + ":queue:" + k.queue + ":processing" }
func (k keys) failed() string     { return k.prefix + ":queue:" + k.queue + ":failed" }
func (k keys) item(id string) string {
	return k.prefix + ":item:" + id
}
func (k keys) revoked(id string) string {
	return k.prefix + ":revoked:" + id
}
