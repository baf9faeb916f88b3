// Package opensearch provides OpenSearch client initialization, health
// checking and a searchable audit document store.
//
// New creates the client and fails fast when the cluster does not answer an
// info request, so a broken client is never returned.
//
//	client, err := opensearch.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := opensearch.NewAuditStoreFromConfig(auditCfg, client)
//
// AuditStore indexes each scope document under its ID. The index name is the
// audit collection name, lowercased, with the machine placeholder expanded.
//
// # Configuration
//
//	type Config struct {
//		Addresses    []string `env:"OPENSEARCH_ADDRESSES,required" envSeparator:","`
//		Username     string   `env:"OPENSEARCH_USERNAME,notEmpty"`
//		Password     string   `env:"OPENSEARCH_PASSWORD,notEmpty"`
//		MaxRetries   int      `env:"OPENSEARCH_MAX_RETRIES" envDefault:"3"`
//		DisableRetry bool     `env:"OPENSEARCH_DISABLE_RETRY" envDefault:"false"`
//	}
//
// # Error Handling
//
//   - ErrConnectionFailed: the client could not be created
//   - ErrHealthcheckFailed: the cluster is unreachable or unhealthy
//   - ErrIndexFailed: an index request failed or returned an error status
package opensearch
