package s3

import "time"

// Config holds the archive bucket settings loaded from the environment.
type Config struct {
	Bucket         string        `env:"S3_BUCKET,required"`
	Region         string        `env:"S3_REGION,required"`
	AccessKeyID    string        `env:"S3_ACCESS_KEY_ID"`
	SecretKey      string        `env:"S3_SECRET_KEY"`
	Endpoint       string        `env:"S3_ENDPOINT"`
	ForcePathStyle bool          `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
	Prefix         string        `env:"S3_AUDIT_PREFIX" envDefault:"audit"`
	UploadTimeout  time.Duration `env:"S3_UPLOAD_TIMEOUT" envDefault:"30s"`
}
