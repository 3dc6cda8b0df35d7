// Package server hosts the live camera configuration as a long-running
// service.
//
// New performs the tolerant boot load, bootstraps the runtime accessor and
// binds the storage engine as its persister. Start then runs until a
// termination signal:
//
//	srv, err := server.New(&server.Config{
//	    Path:          "/etc/jffs2/anyka_cfg.ini",
//	    FlushSchedule: "@every 30s",
//	    ListenAddr:    "127.0.0.1:9110",
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start() // blocks until SIGINT or SIGTERM
//
// # Signals
//
//   - SIGHUP re-reads the file through the strict setters
//   - SIGINT and SIGTERM stop the schedule, flush pending writes and exit
//
// # Diagnostics
//
// When ListenAddr is set, a plain HTTP listener serves /metrics, /healthz,
// a redacted YAML summary at /config and the serialized file at
// /config.ini. POST /reload and POST /flush trigger the matching
// operations. The listener is meant for loopback or a management network;
// it has no authentication.
package server
