// Package shutdown coordinates graceful teardown of the service.
//
// Components register under a phase; on SIGTERM/SIGINT the coordinator
// runs phases in ascending order, so the HTTP server drains in-flight
// scans before the completion store, feed, and telemetry provider close
// underneath them.
package shutdown
