// Package transfer moves file content between clients and the object store.
//
// Uploads hash incoming content and reuse an existing file when the same
// bytes are already stored for the account. Blobs are always written before
// their database rows, so a failure can only ever leave an unreferenced
// blob, never a row pointing at missing content; the Reconciler sweeps the
// leftovers. Bulk and zip uploads isolate per-file failures and report them
// alongside the successes.
package transfer
