// Package workflow holds the per-screen state of the attendance console.
//
// A Screen is one operator's attendance page for one roster kind. It owns the
// roster snapshot, the attendance ledger and the payment staging, and moves
// through Idle, Loading, Ready, Editing and Submitting. Screens are kept in a
// Registry keyed by session and kind and are discarded on logout.
package workflow
