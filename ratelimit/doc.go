// Package ratelimit guards the public scan endpoints.
//
// The scan and complete URLs are reachable without credentials because
// they are opened by scanning a printed QR code. A per-client-IP token
// bucket keeps an unauthenticated flood from hammering the remote task
// service through those routes. Buckets are created on first sight and
// swept after an idle period.
package ratelimit
