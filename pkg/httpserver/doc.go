// Package httpserver provides an http.Server wrapper with graceful shutdown
// on context cancellation, environment-driven configuration, and probe
// handlers for liveness and readiness.
//
// # Usage
//
//	cfg, _ := config.Load[httpserver.Config]()
//	srv := httpserver.NewFromConfig(cfg, log)
//	if err := srv.Run(ctx, mux); err != nil {
//		log.Error("server failed", "error", err)
//	}
package httpserver
