// Package errors provides structured errors for the pallet completion service.
//
// Every failure that crosses a package boundary is a coded, categorized error
// value. The route boundary maps codes to HTTP statuses; the completion
// workflow uses categories to decide between surfacing a failure and
// degrading gracefully.
//
// # Usage
//
//	// Create errors with codes
//	err := errors.Forbidden("signature mismatch", errors.WithTaskID("4711"))
//
//	// Wrap errors from lower layers
//	err = errors.Wrap(err, "scan rejected")
//
//	// Inspect at the route boundary
//	status := errors.HTTPStatus(err) // 403
//	if errors.IsTransient(err) {
//	    // remote task service hiccup, tell the user to retry
//	}
package errors
