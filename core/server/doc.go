// Package server runs the HTTP side of the application: the notification
// websocket endpoint and the liveness and readiness probes.
//
// Server wraps http.Server with graceful shutdown and a Run method for
// errgroup:
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	router := server.NewRouter(log, hub,
//		server.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
//		server.Check{Name: "redis", Fn: redis.Healthcheck(client)},
//	)
//	g.Go(srv.Run(ctx, router))
//
// RequestID and Logging are plain net/http middleware, composed with Chain:
//
//	handler := server.Chain(router, server.RequestID, server.Logging(log, 0))
//
// The request context of every handler is cancelled when the server context
// is, so long-lived websocket handlers return on shutdown.
package server
