// Package web is the HTTP surface of the service.
//
// Two kinds of routes share one server: the public scan endpoints,
// reachable by anyone holding a printed QR code and protected only by
// the URL signature plus a per-IP rate limit, and the private /api and
// dashboard routes behind HTTP Basic Auth. All handlers run inside
// panic recovery; a bug in one request renders a 500 page, never a
// crashed process.
package web
