// Package workflow runs the signed pallet check-in.
//
// One Engine.Complete call is one QR scan: verify the HMAC signature,
// consult the completion log, close the remote task, record the
// completion, then list the commission's remaining open pallets. The
// remote task service is the system of record for the physical action;
// the local log only backs the "already checked in" page. The close
// deliberately happens before the log write, so a crash between the two
// leaves the task closed remotely and unrecorded locally, which a later
// rescan repairs.
package workflow
