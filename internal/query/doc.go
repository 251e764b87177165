// Package query provides a pollable wrapper around asynchronous
// fetches for single-threaded event loops.
//
// A [Query] moves through Idle, Loading, and Success or Error. The
// owner starts work with Fetch or Refetch and calls Poll on every loop
// tick; Poll never blocks and reports whether the state changed, which
// is the render loop's cue to redraw.
//
// Refetch abandons the in-flight attempt: its context is cancelled and
// its channel dropped, so a late result can never overwrite a newer
// one. At most one attempt's outcome is ever observable per Query.
package query
