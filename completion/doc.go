// Package completion provides the durable completion log.
//
// The Store interface maps a remote task ID to the timestamp of its first
// confirmed completion. Records are created once and never overwritten:
// SetIfAbsent preserves the existing timestamp so that "already checked in"
// messaging always shows the original date.
//
// # Backends
//
//   - FileStore: a JSON map file, rewritten wholesale and atomically on
//     every accepted write (production single-host default)
//   - NATSStore: a NATS JetStream KV bucket whose Create operation makes
//     first-write-wins a server-side guarantee (multi-process deployments)
//   - MemoryStore: for tests and ephemeral use
//
// # Usage
//
//	store, _ := completion.NewFileStore("/var/lib/palletkit/completions.json")
//	defer store.Close()
//
//	recorded, err := store.SetIfAbsent(ctx, "4711", time.Now())
//	// recorded is the original timestamp if the task was already done
package completion
