// Package logger builds slog loggers and provides attribute helpers shared by
// the bus, the runner, and the integrations.
//
// # Construction
//
//	log := logger.New(
//		logger.WithProduction("commander"),
//		logger.WithContextExtractors(logger.ExecContextExtractor),
//	)
//
// WithDevelopment logs text at debug level, WithProduction and WithStaging log
// JSON at info level. All of them tag records with the service name and
// environment. WithLevel, WithJSONFormatter, WithOutput, and WithAttr refine
// the preset.
//
// # Context extraction
//
// ContextHandler adds attributes derived from the context passed to the
// *Context logging methods. ExecContextExtractor adds the username of the
// execution context bound by a dispatch scope, so every record logged during
// a dispatch identifies its caller:
//
//	log.InfoContext(ctx, "contact saved")
//	// level=INFO msg="contact saved" username=alice
//
// # Attributes
//
// Helpers return the empty attribute for absent values, which slog omits:
//
//	log.ErrorContext(ctx, "request failed",
//		logger.Component("bus"),
//		logger.Request(name),
//		logger.Duration(time.Since(start)),
//		logger.Error(err),
//	)
package logger
