// Package mongo provides MongoDB client initialization, health checking and
// the audit document store.
//
// New and NewWithDatabase retry the initial ping with exponential backoff,
// which covers the cold start of managed clusters.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	auditor := audit.NewFromConfig(auditCfg, mongo.NewAuditStoreFromConfig(auditCfg, db))
//
// AuditStore writes one document per dispatch scope with the children
// embedded. A collection name containing audit.MachinePlaceholder gets the
// host name substituted.
//
// # Configuration
//
//	MONGODB_URL                 (required)
//	MONGODB_DATABASE            (default: commander)
//	MONGODB_CONNECT_TIMEOUT     (default: 10s)
//	MONGODB_MAX_POOL_SIZE       (default: 100)
//	MONGODB_MIN_POOL_SIZE       (default: 1)
//	MONGODB_MAX_CONN_IDLE_TIME  (default: 300s)
//	MONGODB_RETRY_WRITES        (default: true)
//	MONGODB_RETRY_READS         (default: true)
//	MONGODB_RETRY_ATTEMPTS      (default: 3)
//	MONGODB_RETRY_INTERVAL      (default: 5s)
//
// # Error Handling
//
//	ErrFailedToConnectToMongo - Returned when all retry attempts are exhausted
//	ErrHealthcheckFailed      - Returned when health check ping fails
package mongo
