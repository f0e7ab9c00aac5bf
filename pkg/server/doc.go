// Package server serves sizewatch over HTTP.
//
// Routes:
//
//	GET /ws            websocket endpoint for the probe script
//	GET /sizewatch.js  the embedded probe script
//	GET /healthz       liveness and session count
//	GET /metrics       Prometheus metrics (when enabled)
//
// Each websocket connection performs a ClientHello/ServerHello handshake
// and then becomes a remote.Session. The session handler passed with
// WithSessionHandler decides what to watch:
//
//	srv := server.New(server.DefaultConfig(),
//	    server.WithSessionHandler(func(s *remote.Session) {
//	        s.OnNode = func(s *remote.Session, n *remote.Node) {
//	            _ = s.ListenTo(ctx, element.One(n), onResize)
//	        }
//	    }),
//	)
//	log.Fatal(srv.Run(ctx))
package server
