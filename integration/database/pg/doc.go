// Package pg provides PostgreSQL connection management, migrations and a
// transactional store built on pgx.
//
// Connect creates a pgxpool with exponential backoff retries and verifies it
// with a ping. Migrate applies goose migrations from an fs.FS. Healthcheck
// returns a probe suitable for the readiness endpoint.
//
// # Store
//
// Store implements store.Store. Begin returns a context carrying the
// transaction; repositories reach it through Store.Querier, which falls back
// to the pool outside a transaction:
//
//	st := pg.NewPoolStore(pool)
//	ctx, err := st.Begin(ctx)
//	if err != nil {
//		return err
//	}
//	defer st.Rollback(ctx)
//
//	_, err = st.Querier(ctx).Exec(ctx, "INSERT INTO contacts (id, email) VALUES ($1, $2)", id, email)
//	if err != nil {
//		return pg.MapError(err)
//	}
//	if err := st.Track(ctx, contact); err != nil {
//		return err
//	}
//	if err := st.Flush(ctx); err != nil {
//		return err // *store.ValidationError on failed rules or constraints
//	}
//	return st.Commit(ctx)
//
// Flush validates tracked entities and then runs SET CONSTRAINTS ALL
// IMMEDIATE, so deferred constraints fail before commit. Integrity
// violations (SQLSTATE class 23) are reported as *store.ValidationError.
//
// # Configuration
//
//	type Config struct {
//		ConnectionString  string        `env:"PG_CONN_URL,required"`
//		MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//		MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
//		HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
//		MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
//		MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`
//		RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
//		MigrationsPath    string        `env:"PG_MIGRATIONS_PATH" envDefault:"migrations"`
//		MigrationsTable   string        `env:"PG_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
//	}
//
// # Error Handling
//
// IsNotFoundError, IsDuplicateKeyError, IsForeignKeyViolationError and
// IsIntegrityViolation classify driver errors. MapError converts them into
// the store package errors.
package pg
