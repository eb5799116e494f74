// Package loadlist builds and stores load lists.
//
// A load list is an immutable snapshot of the open pallets of one
// commission at the moment a dispatcher hits "create", sorted the way the
// warehouse reads them: most urgent priority first, then pallet text in
// German alphabetical order. Snapshots live under opaque generated IDs so
// the link printed on a QR code reveals nothing about other commissions.
//
// The package also holds the sorting rules themselves (SortTasks,
// SortLabels), shared with the completion workflow's remaining-pallets
// view, and an optional Bleve index for finding which load list carries a
// given drawing code.
package loadlist
