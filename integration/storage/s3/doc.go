// Package s3 archives audit documents to Amazon S3 or an S3-compatible
// service such as MinIO.
//
// AuditArchive implements audit.Store. Each scope document is uploaded as
// JSON under {prefix}/{yyyy}/{mm}/{dd}/{id}.json, which keeps a cheap,
// immutable copy next to the queryable store:
//
//	archive, err := s3.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := audit.MultiStore(mongoStore, archive)
//
// Without static credentials the default AWS credential chain (environment,
// shared config, instance role) is used. Endpoint and ForcePathStyle target
// S3-compatible services.
//
// # Configuration
//
//	S3_BUCKET            (required)
//	S3_REGION            (required)
//	S3_ACCESS_KEY_ID
//	S3_SECRET_KEY
//	S3_ENDPOINT
//	S3_FORCE_PATH_STYLE  (default: false)
//	S3_AUDIT_PREFIX      (default: audit)
//	S3_UPLOAD_TIMEOUT    (default: 30s)
//
// # Error Handling
//
// Driver errors are classified into ErrBucketNotFound, ErrAccessDenied,
// ErrServiceUnavailable, ErrOperationTimeout and ErrOperationCanceled.
package s3
