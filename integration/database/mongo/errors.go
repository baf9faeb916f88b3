package mongo

import "errors"

var (
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongodb")
	ErrHealthcheckFailed      = errors.New("mongodb healthcheck failed")
	ErrEmptyConnectionURL     = errors.New("empty mongodb connection URL, use MONGODB_URL env var")
	ErrDocumentNil            = errors.New("audit document cannot be nil")
)
