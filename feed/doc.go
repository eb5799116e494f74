// Package feed distributes pallet completion events to dashboards.
//
// The completion workflow publishes one Event per confirmed check-in;
// SSEHandler and WSHandler push those events to browsers. Delivery is
// best-effort by design: the feed exists for live monitoring, the
// completion log is the record.
//
// # Backends
//
//   - MemoryFeed: in-process fan-out (single instance)
//   - NATSFeed: a NATS subject shared across instances
package feed
